// Package task はタスクの一覧（苔むし度順）と作成・更新・削除のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hitoshi/mossy/internal/authz"
	"github.com/hitoshi/mossy/internal/metrics"
	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/ranking"
	"github.com/hitoshi/mossy/internal/repository"
	"github.com/hitoshi/mossy/internal/security"
)

// Input はタスクの作成・更新で受け取る値。
type Input struct {
	Name      string
	Frequency int
	Tags      []string
}

// validate は頻度がINTEGER列に収まることとタグIDの形式を検証する。
func (in Input) validate() error {
	if in.Frequency < math.MinInt32 || in.Frequency > math.MaxInt32 {
		return model.NewInvalidRequestError(fmt.Sprintf("frequencyが範囲外です: %d", in.Frequency))
	}
	return model.ValidateIDs(in.Tags)
}

// Service はタスク管理のサービス層。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	taskRepo repository.TaskRepository,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
		metrics:   collector,
		now:       time.Now,
	}
}

// ListRanked はユーザーのタスクをmoss降順・id降順で並べ、offset件読み飛ばしてlimit件返す。
func (s *Service) ListRanked(ctx context.Context, userID string, page repository.Page) ([]model.RankedTask, error) {
	rows, err := s.taskRepo.ListWithLatestEvent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}

	ranked := ranking.Rank(s.now(), rows, page.Limit, page.Offset)
	s.metrics.RecordRankedTasks(len(ranked))
	return ranked, nil
}

// Create はタスクを作成し、採番したIDを返す。
func (s *Service) Create(ctx context.Context, userID string, input Input) (string, error) {
	if err := input.validate(); err != nil {
		return "", err
	}

	id, err := model.NewID()
	if err != nil {
		return "", err
	}

	task := &model.Task{
		ID:        id,
		UserID:    userID,
		Name:      s.sanitizer.SanitizeText(input.Name),
		Frequency: input.Frequency,
		Tags:      input.Tags,
		CreatedAt: s.now(),
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return "", fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return id, nil
}

// Update は所有者本人のタスクの名前・頻度・タグを更新する。
func (s *Service) Update(ctx context.Context, userID, taskID string, input Input) (repository.UpdateResult, error) {
	if err := model.ValidateID(taskID); err != nil {
		return repository.UpdateResult{}, err
	}
	if err := input.validate(); err != nil {
		return repository.UpdateResult{}, err
	}

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return repository.UpdateResult{}, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if err := authz.EnsureOwner(task, userID, model.NewTaskNotFoundError(taskID)); err != nil {
		return repository.UpdateResult{}, err
	}

	result, err := s.taskRepo.Update(ctx, taskID, userID, repository.TaskUpdate{
		Name:      s.sanitizer.SanitizeText(input.Name),
		Frequency: input.Frequency,
		Tags:      input.Tags,
	})
	if err != nil {
		return repository.UpdateResult{}, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	return result, nil
}

// Delete はID群のタスクを削除する。
// 見つかったタスクが1件でも他人のものであれば何も削除しない。
func (s *Service) Delete(ctx context.Context, userID string, taskIDs []string) (int64, error) {
	if err := model.ValidateIDs(taskIDs); err != nil {
		return 0, err
	}

	tasks, err := s.taskRepo.FindByIDs(ctx, taskIDs)
	if err != nil {
		return 0, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if err := authz.EnsureAllOwned(tasks, userID); err != nil {
		return 0, err
	}

	deleted, err := s.taskRepo.DeleteByIDs(ctx, taskIDs, userID)
	if err != nil {
		return 0, fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	return deleted, nil
}
