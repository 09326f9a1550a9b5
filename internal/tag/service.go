// Package tag はタスク分類用タグのドメインロジックを提供する。
package tag

import (
	"context"
	"fmt"

	"github.com/hitoshi/mossy/internal/authz"
	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
	"github.com/hitoshi/mossy/internal/security"
)

// Input はタグの作成・更新で受け取る値。
// ParentTagIDは存在を検証しない弱参照。
type Input struct {
	Name        string
	Description *string
	ParentTagID *string
}

// Service はタグ管理のサービス層。
type Service struct {
	tagRepo   repository.TagRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(tagRepo repository.TagRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{tagRepo: tagRepo, sanitizer: sanitizer}
}

// List はユーザーのタグをname昇順・id降順で返す。
func (s *Service) List(ctx context.Context, userID string, page repository.Page) ([]*model.Tag, error) {
	tags, err := s.tagRepo.ListByUserID(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("タグ一覧の取得に失敗しました: %w", err)
	}
	return tags, nil
}

// Create はタグを作成し、採番したIDを返す。
func (s *Service) Create(ctx context.Context, userID string, input Input) (string, error) {
	if err := model.ValidateOptionalID(input.ParentTagID); err != nil {
		return "", err
	}

	id, err := model.NewID()
	if err != nil {
		return "", err
	}

	tag := &model.Tag{
		ID:          id,
		UserID:      userID,
		Name:        s.sanitizer.SanitizeText(input.Name),
		Description: s.sanitizeOptional(input.Description),
		ParentTagID: input.ParentTagID,
	}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return "", fmt.Errorf("タグの作成に失敗しました: %w", err)
	}
	return id, nil
}

// Update は所有者本人のタグの名前・説明・親タグを更新する。
func (s *Service) Update(ctx context.Context, userID, tagID string, input Input) (repository.UpdateResult, error) {
	if err := model.ValidateID(tagID); err != nil {
		return repository.UpdateResult{}, err
	}
	if err := model.ValidateOptionalID(input.ParentTagID); err != nil {
		return repository.UpdateResult{}, err
	}

	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return repository.UpdateResult{}, fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	if err := authz.EnsureOwner(tag, userID, model.NewTagNotFoundError(tagID)); err != nil {
		return repository.UpdateResult{}, err
	}

	result, err := s.tagRepo.Update(ctx, tagID, userID, repository.TagUpdate{
		Name:        s.sanitizer.SanitizeText(input.Name),
		Description: s.sanitizeOptional(input.Description),
		ParentTagID: input.ParentTagID,
	})
	if err != nil {
		return repository.UpdateResult{}, fmt.Errorf("タグの更新に失敗しました: %w", err)
	}
	return result, nil
}

// Delete はID群のタグを削除する。
// 見つかったタグが1件でも他人のものであれば何も削除しない。
// 削除したタグを参照するタスクや子タグはそのまま残る。
func (s *Service) Delete(ctx context.Context, userID string, tagIDs []string) (int64, error) {
	if err := model.ValidateIDs(tagIDs); err != nil {
		return 0, err
	}

	tags, err := s.tagRepo.FindByIDs(ctx, tagIDs)
	if err != nil {
		return 0, fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	if err := authz.EnsureAllOwned(tags, userID); err != nil {
		return 0, err
	}

	deleted, err := s.tagRepo.DeleteByIDs(ctx, tagIDs, userID)
	if err != nil {
		return 0, fmt.Errorf("タグの削除に失敗しました: %w", err)
	}
	return deleted, nil
}

func (s *Service) sanitizeOptional(text *string) *string {
	if text == nil {
		return nil
	}
	sanitized := s.sanitizer.SanitizeText(*text)
	return &sanitized
}
