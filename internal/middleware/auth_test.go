package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/mossy/internal/model"
)

// --- モック定義 ---

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, header, appleUserID string) (*model.User, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, header, appleUserID string) (*model.User, error) {
	return m.authenticateFn(ctx, header, appleUserID)
}

func tokenAuthenticator() *mockAuthenticator {
	return &mockAuthenticator{
		authenticateFn: func(_ context.Context, header, appleUserID string) (*model.User, error) {
			if appleUserID != "" {
				return nil, errors.New("middleware must not scope by apple_user_id")
			}
			switch header {
			case "":
				return nil, model.NewMissingAuthorizationError()
			case "Bearer":
				return nil, model.NewMalformedAuthorizationError()
			case "Bearer valid-token":
				return &model.User{ID: "user-123"}, nil
			case "Bearer broken-db":
				return nil, errors.New("connection refused")
			default:
				return nil, model.NewUnauthorizedError()
			}
		},
	}
}

// --- テスト ---

func TestTokenAuthMiddleware_ValidToken_InjectsUser(t *testing.T) {
	mw := NewTokenAuthMiddleware(tokenAuthenticator())

	var capturedUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := UserFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
			return
		}
		capturedUserID = user.ID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if capturedUserID != "user-123" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-123")
	}
}

func TestTokenAuthMiddleware_Failures(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"ヘッダーなし", "", http.StatusBadRequest, model.ErrCodeMissingAuthorization},
		{"トークンなし", "Bearer", http.StatusBadRequest, model.ErrCodeMalformedAuthorization},
		{"未知のトークン", "Bearer stale-token", http.StatusUnauthorized, model.ErrCodeUnauthorized},
		{"リポジトリエラー", "Bearer broken-db", http.StatusInternalServerError, model.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTokenAuthMiddleware(tokenAuthenticator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestUserFromContext_NoValue_ReturnsError(t *testing.T) {
	if _, err := UserFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user in context")
	}
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user ID in context")
	}
}

func TestUserIDFromContext_ValidValue_ReturnsUserID(t *testing.T) {
	ctx := ContextWithUser(context.Background(), &model.User{ID: "user-456"})
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if userID != "user-456" {
		t.Errorf("userID = %q, want %q", userID, "user-456")
	}
}
