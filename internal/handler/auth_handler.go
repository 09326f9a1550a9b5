package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/mossy/internal/appleid"
	"github.com/hitoshi/mossy/internal/middleware"
	"github.com/hitoshi/mossy/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login はIDトークンを検証し、セッショントークンを発行したユーザーを返す。
	// 失敗時は*appleid.CredentialsErrorを返す。
	Login(ctx context.Context, creds appleid.Credentials) (*model.User, error)
}

// AuthHandler はSign in with AppleのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	AuthorizationCode string `json:"authorization_code"`
	IdentityToken     string `json:"identity_token"`
	Nonce             string `json:"nonce"`
	User              string `json:"user"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID                         string `json:"_id"`
	Email                      string `json:"email"`
	AppleUserID                string `json:"apple_user_id"`
	Token                      string `json:"token"`
	IsAdmin                    bool   `json:"is_admin"`
	ShouldColorSchemeUseSystem bool   `json:"should_color_scheme_use_system"`
	IsColorSchemeDarkMode      bool   `json:"is_color_scheme_dark_mode"`
	ColorTheme                 int    `json:"color_theme"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:                         user.ID,
		Email:                      user.Email,
		AppleUserID:                user.AppleUserID,
		Token:                      user.Token,
		IsAdmin:                    user.IsAdmin,
		ShouldColorSchemeUseSystem: user.Theme.UseSystemColorScheme,
		IsColorSchemeDarkMode:      user.Theme.DarkMode,
		ColorTheme:                 user.Theme.ColorTheme,
	}
}

// LogIn はIDトークンを検証してセッショントークンを発行する。
// POST /api/log-in
func (h *AuthHandler) LogIn(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.service.Login(r.Context(), appleid.Credentials{
		AuthorizationCode: req.AuthorizationCode,
		IdentityToken:     req.IdentityToken,
		Nonce:             req.Nonce,
		User:              req.User,
	})
	if err != nil {
		handleLoginError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// handleLoginError はログイン失敗をレスポンスに変換する。
// 失敗の種別はログにのみ残し、レスポンスには含めない。
// 鍵セットの取得・解析失敗は502、DB障害と想定外のエラーは500、それ以外の検証失敗は401。
func handleLoginError(w http.ResponseWriter, err error) {
	var credErr *appleid.CredentialsError
	if errors.As(err, &credErr) {
		switch {
		case credErr.Kind.Upstream():
			apiErr := model.NewIdentityProviderError()
			middleware.WriteErrorResponse(w, middleware.StatusCodeFor(apiErr), apiErr)
			return
		case credErr.Kind != appleid.KindDatabase:
			apiErr := model.NewLoginFailedError()
			middleware.WriteErrorResponse(w, middleware.StatusCodeFor(apiErr), apiErr)
			return
		}
	}

	slog.Error("login failed with internal error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
