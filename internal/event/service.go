// Package event はタスクの実施記録（イベント）のドメインロジックを提供する。
package event

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/mossy/internal/authz"
	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
)

// Service はイベント管理のサービス層。
type Service struct {
	eventRepo repository.EventRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(eventRepo repository.EventRepository) *Service {
	return &Service{eventRepo: eventRepo}
}

// ParseDate はRFC 3339形式の日時を解析する。
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, model.NewInvalidDateError(value)
	}
	return date.UTC(), nil
}

// List はユーザーのイベントをdate降順・id降順で返す。
func (s *Service) List(ctx context.Context, userID string, page repository.Page) ([]*model.Event, error) {
	events, err := s.eventRepo.ListByUserID(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	return events, nil
}

// ListWithTaskName はListと同じ範囲のイベントを参照先タスク名付きで返す。
func (s *Service) ListWithTaskName(ctx context.Context, userID string, page repository.Page) ([]model.EventWithTaskName, error) {
	events, err := s.eventRepo.ListWithTaskName(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	return events, nil
}

// Create はイベントを作成し、採番したIDを返す。
// 参照先タスクの存在と所有者は検証しない。
func (s *Service) Create(ctx context.Context, userID, taskID, date string) (string, error) {
	if err := model.ValidateID(taskID); err != nil {
		return "", err
	}
	parsed, err := ParseDate(date)
	if err != nil {
		return "", err
	}

	id, err := model.NewID()
	if err != nil {
		return "", err
	}

	event := &model.Event{
		ID:     id,
		TaskID: taskID,
		UserID: userID,
		Date:   parsed,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return "", fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}
	return id, nil
}

// UpdateDate は所有者本人のイベントの日時を変更する。
func (s *Service) UpdateDate(ctx context.Context, userID, eventID, date string) (repository.UpdateResult, error) {
	if err := model.ValidateID(eventID); err != nil {
		return repository.UpdateResult{}, err
	}
	parsed, err := ParseDate(date)
	if err != nil {
		return repository.UpdateResult{}, err
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return repository.UpdateResult{}, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	if err := authz.EnsureOwner(event, userID, model.NewEventNotFoundError(eventID)); err != nil {
		return repository.UpdateResult{}, err
	}

	result, err := s.eventRepo.UpdateDate(ctx, eventID, userID, parsed)
	if err != nil {
		return repository.UpdateResult{}, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}
	return result, nil
}

// Delete はID群のイベントを削除する。
// 見つかったイベントが1件でも他人のものであれば何も削除しない。
func (s *Service) Delete(ctx context.Context, userID string, eventIDs []string) (int64, error) {
	if err := model.ValidateIDs(eventIDs); err != nil {
		return 0, err
	}

	events, err := s.eventRepo.FindByIDs(ctx, eventIDs)
	if err != nil {
		return 0, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	if err := authz.EnsureAllOwned(events, userID); err != nil {
		return 0, err
	}

	deleted, err := s.eventRepo.DeleteByIDs(ctx, eventIDs, userID)
	if err != nil {
		return 0, fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	return deleted, nil
}
