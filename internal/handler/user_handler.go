package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
// どちらの操作もトークンとapple_user_idの両方が一致するユーザーのみを対象にする。
type UserServiceInterface interface {
	Get(ctx context.Context, header, appleUserID string) (*model.User, error)
	UpdateTheme(ctx context.Context, header, appleUserID string, theme model.ThemeSettings) (repository.UpdateResult, error)
}

// UserHandler はユーザー情報のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// getUserRequest はユーザー取得リクエストのボディ。
type getUserRequest struct {
	AppleUserID string `json:"apple_user_id"`
}

// updateThemeRequest は表示設定更新リクエストのボディ。
type updateThemeRequest struct {
	AppleUserID                string `json:"apple_user_id"`
	ShouldColorSchemeUseSystem bool   `json:"should_color_scheme_use_system"`
	IsColorSchemeDarkMode      bool   `json:"is_color_scheme_dark_mode"`
	ColorTheme                 int    `json:"color_theme"`
}

// GetUser はトークンとapple_user_idに一致するユーザーを返す。
// POST /api/user
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	var req getUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.service.Get(r.Context(), r.Header.Get("Authorization"), req.AppleUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateTheme はユーザーの表示設定を更新する。
// PATCH /api/user/theme
func (h *UserHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	var req updateThemeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.UpdateTheme(r.Context(), r.Header.Get("Authorization"), req.AppleUserID, model.ThemeSettings{
		UseSystemColorScheme: req.ShouldColorSchemeUseSystem,
		DarkMode:             req.IsColorSchemeDarkMode,
		ColorTheme:           req.ColorTheme,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUpdateResult(result))
}
