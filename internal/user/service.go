// Package user はユーザー情報の参照と表示設定のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
)

// Authenticator はAuthorizationヘッダーからユーザーを解決するインターフェース。
type Authenticator interface {
	Authenticate(ctx context.Context, header, appleUserID string) (*model.User, error)
}

// Service はユーザー管理のサービス層。
// トークンとApple側のユーザー識別子の両方が一致するユーザーのみを扱う。
type Service struct {
	authenticator Authenticator
	userRepo      repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(authenticator Authenticator, userRepo repository.UserRepository) *Service {
	return &Service{
		authenticator: authenticator,
		userRepo:      userRepo,
	}
}

// Get はトークンとappleUserIDに一致するユーザーを返す。
func (s *Service) Get(ctx context.Context, header, appleUserID string) (*model.User, error) {
	if appleUserID == "" {
		return nil, model.NewInvalidRequestError("apple_user_idは必須です")
	}
	return s.authenticator.Authenticate(ctx, header, appleUserID)
}

// UpdateTheme はユーザーの表示設定を更新する。
func (s *Service) UpdateTheme(ctx context.Context, header, appleUserID string, theme model.ThemeSettings) (repository.UpdateResult, error) {
	user, err := s.Get(ctx, header, appleUserID)
	if err != nil {
		return repository.UpdateResult{}, err
	}

	result, err := s.userRepo.UpdateTheme(ctx, user.ID, theme)
	if err != nil {
		return repository.UpdateResult{}, fmt.Errorf("表示設定の更新に失敗しました: %w", err)
	}

	slog.Info("表示設定を更新しました",
		slog.String("user_id", user.ID),
		slog.Int("color_theme", theme.ColorTheme),
	)

	return result, nil
}
