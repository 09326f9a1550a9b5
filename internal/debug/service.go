// Package debug は管理者向けのテストデータ生成・一括削除を提供する。
// 全操作は呼び出したユーザー自身のデータのみを対象とする。
package debug

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hitoshi/mossy/internal/authz"
	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
)

// GeneratedTaskFrequency は生成するタスクの頻度（日）。
const GeneratedTaskFrequency = 7

// GeneratedEventDate は生成するイベントの日時。
var GeneratedEventDate = time.Date(2023, 10, 1, 5, 43, 48, 487_000_000, time.UTC)

// Service はデバッグ操作のサービス層。
type Service struct {
	taskRepo  repository.TaskRepository
	eventRepo repository.EventRepository
	tagRepo   repository.TagRepository
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	taskRepo repository.TaskRepository,
	eventRepo repository.EventRepository,
	tagRepo repository.TagRepository,
) *Service {
	return &Service{
		taskRepo:  taskRepo,
		eventRepo: eventRepo,
		tagRepo:   tagRepo,
		now:       time.Now,
	}
}

// CreateTasks は"0"から"quantity-1"までの名前でタスクを生成し、IDを返す。
func (s *Service) CreateTasks(ctx context.Context, user *model.User, quantity uint8) ([]string, error) {
	if err := authz.RequireAdmin(user); err != nil {
		return nil, err
	}

	ids := make([]string, 0, quantity)
	tasks := make([]*model.Task, 0, quantity)
	createdAt := s.now()
	for i := 0; i < int(quantity); i++ {
		id, err := model.NewID()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		tasks = append(tasks, &model.Task{
			ID:        id,
			UserID:    user.ID,
			Name:      strconv.Itoa(i),
			Frequency: GeneratedTaskFrequency,
			CreatedAt: createdAt,
		})
	}

	if len(tasks) > 0 {
		if err := s.taskRepo.CreateMany(ctx, tasks); err != nil {
			return nil, fmt.Errorf("タスクの一括作成に失敗しました: %w", err)
		}
	}

	slog.Info("デバッグ用タスクを生成しました",
		slog.String("user_id", user.ID),
		slog.Int("count", len(ids)),
	)
	return ids, nil
}

// DeleteTasks はユーザーの全タスクを削除する。
func (s *Service) DeleteTasks(ctx context.Context, user *model.User) (int64, error) {
	if err := authz.RequireAdmin(user); err != nil {
		return 0, err
	}
	deleted, err := s.taskRepo.DeleteByUserID(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("タスクの一括削除に失敗しました: %w", err)
	}
	return deleted, nil
}

// CreateEvents はユーザーの各タスクにGeneratedEventDateのイベントを1件ずつ生成し、IDを返す。
func (s *Service) CreateEvents(ctx context.Context, user *model.User) ([]string, error) {
	if err := authz.RequireAdmin(user); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}

	ids := make([]string, 0, len(tasks))
	events := make([]*model.Event, 0, len(tasks))
	for _, task := range tasks {
		id, err := model.NewID()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		events = append(events, &model.Event{
			ID:     id,
			TaskID: task.ID,
			UserID: user.ID,
			Date:   GeneratedEventDate,
		})
	}

	if len(events) > 0 {
		if err := s.eventRepo.CreateMany(ctx, events); err != nil {
			return nil, fmt.Errorf("イベントの一括作成に失敗しました: %w", err)
		}
	}

	slog.Info("デバッグ用イベントを生成しました",
		slog.String("user_id", user.ID),
		slog.Int("count", len(ids)),
	)
	return ids, nil
}

// DeleteEvents はユーザーの全イベントを削除する。
func (s *Service) DeleteEvents(ctx context.Context, user *model.User) (int64, error) {
	if err := authz.RequireAdmin(user); err != nil {
		return 0, err
	}
	deleted, err := s.eventRepo.DeleteByUserID(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("イベントの一括削除に失敗しました: %w", err)
	}
	return deleted, nil
}

// CreateTags は"0"から"quantity-1"までの名前でタグを生成し、IDを返す。
func (s *Service) CreateTags(ctx context.Context, user *model.User, quantity uint8) ([]string, error) {
	if err := authz.RequireAdmin(user); err != nil {
		return nil, err
	}

	ids := make([]string, 0, quantity)
	tags := make([]*model.Tag, 0, quantity)
	for i := 0; i < int(quantity); i++ {
		id, err := model.NewID()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		tags = append(tags, &model.Tag{
			ID:     id,
			UserID: user.ID,
			Name:   strconv.Itoa(i),
		})
	}

	if len(tags) > 0 {
		if err := s.tagRepo.CreateMany(ctx, tags); err != nil {
			return nil, fmt.Errorf("タグの一括作成に失敗しました: %w", err)
		}
	}

	slog.Info("デバッグ用タグを生成しました",
		slog.String("user_id", user.ID),
		slog.Int("count", len(ids)),
	)
	return ids, nil
}

// DeleteTags はユーザーの全タグを削除する。
func (s *Service) DeleteTags(ctx context.Context, user *model.User) (int64, error) {
	if err := authz.RequireAdmin(user); err != nil {
		return 0, err
	}
	deleted, err := s.tagRepo.DeleteByUserID(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("タグの一括削除に失敗しました: %w", err)
	}
	return deleted, nil
}
