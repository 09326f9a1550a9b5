package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
)

// --- モック定義 ---

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	getFn         func(ctx context.Context, header, appleUserID string) (*model.User, error)
	updateThemeFn func(ctx context.Context, header, appleUserID string, theme model.ThemeSettings) (repository.UpdateResult, error)
}

func (m *mockUserService) Get(ctx context.Context, header, appleUserID string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, header, appleUserID)
	}
	return nil, model.NewUnauthorizedError()
}

func (m *mockUserService) UpdateTheme(ctx context.Context, header, appleUserID string, theme model.ThemeSettings) (repository.UpdateResult, error) {
	if m.updateThemeFn != nil {
		return m.updateThemeFn(ctx, header, appleUserID, theme)
	}
	return repository.UpdateResult{}, nil
}

// --- POST /api/user ---

func TestUserHandler_GetUser_Success(t *testing.T) {
	svc := &mockUserService{
		getFn: func(ctx context.Context, header, appleUserID string) (*model.User, error) {
			if header != "Bearer token-1" {
				t.Errorf("header = %q", header)
			}
			if appleUserID != "apple-1" {
				t.Errorf("appleUserID = %q", appleUserID)
			}
			return &model.User{
				ID:          "user-1",
				AppleUserID: appleUserID,
				Token:       "token-1",
				Theme:       model.ThemeSettings{UseSystemColorScheme: true, ColorTheme: 3},
			}, nil
		},
	}

	req := newJSONRequest(http.MethodPost, "/api/user", `{"apple_user_id":"apple-1"}`)
	req.Header.Set("Authorization", "Bearer token-1")
	w := httptest.NewRecorder()
	NewUserHandler(svc).GetUser(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body userResponse
	decodeBody(t, w, &body)
	if body.ID != "user-1" || !body.ShouldColorSchemeUseSystem || body.ColorTheme != 3 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestUserHandler_GetUser_SubjectMismatch_ReturnsUnauthorized(t *testing.T) {
	req := newJSONRequest(http.MethodPost, "/api/user", `{"apple_user_id":"someone-else"}`)
	req.Header.Set("Authorization", "Bearer token-1")
	w := httptest.NewRecorder()
	NewUserHandler(&mockUserService{}).GetUser(w, req)

	assertErrorCode(t, w, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}

// --- PATCH /api/user/theme ---

func TestUserHandler_UpdateTheme(t *testing.T) {
	var got model.ThemeSettings
	svc := &mockUserService{
		updateThemeFn: func(ctx context.Context, header, appleUserID string, theme model.ThemeSettings) (repository.UpdateResult, error) {
			got = theme
			return repository.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		},
	}

	body := `{"apple_user_id":"apple-1","should_color_scheme_use_system":false,"is_color_scheme_dark_mode":true,"color_theme":5}`
	req := newJSONRequest(http.MethodPatch, "/api/user/theme", body)
	req.Header.Set("Authorization", "Bearer token-1")
	w := httptest.NewRecorder()
	NewUserHandler(svc).UpdateTheme(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	want := model.ThemeSettings{UseSystemColorScheme: false, DarkMode: true, ColorTheme: 5}
	if got != want {
		t.Errorf("theme = %+v, want %+v", got, want)
	}
	var result updateResult
	decodeBody(t, w, &result)
	if result.MatchedCount != 1 || result.ModifiedCount != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestUserHandler_UpdateTheme_MissingAppleUserID(t *testing.T) {
	svc := &mockUserService{
		updateThemeFn: func(ctx context.Context, header, appleUserID string, theme model.ThemeSettings) (repository.UpdateResult, error) {
			return repository.UpdateResult{}, model.NewInvalidRequestError("apple_user_idは必須です")
		},
	}

	req := newJSONRequest(http.MethodPatch, "/api/user/theme", `{"color_theme":2}`)
	req.Header.Set("Authorization", "Bearer token-1")
	w := httptest.NewRecorder()
	NewUserHandler(svc).UpdateTheme(w, req)

	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeInvalidRequest)
}
