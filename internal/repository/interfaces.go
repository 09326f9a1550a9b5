// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/mossy/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// UpsertLogin はapple_user_idをキーにユーザーを原子的にUPSERTする。
	// 未登録ならcandidateをそのまま作成し、登録済みならtokenとtoken_issued_atのみを更新する。
	// どちらの場合も永続化後のユーザーを返す。
	UpsertLogin(ctx context.Context, candidate *model.User) (*model.User, error)

	// FindByToken はフィルタに一致するユーザーを取得する。見つからない場合はnilを返す。
	FindByToken(ctx context.Context, filter TokenFilter) (*model.User, error)

	// UpdateTheme はユーザーの表示設定のみを更新する。
	UpdateTheme(ctx context.Context, userID string, theme model.ThemeSettings) (UpdateResult, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// FindByIDs は指定ID群のうち存在するタスクを取得する。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Task, error)

	// ListByUserID はユーザーの全タスクを取得する。
	ListByUserID(ctx context.Context, userID string) ([]*model.Task, error)

	// ListWithLatestEvent はユーザーの全タスクを、各タスクの最新イベント日時と結合して取得する。
	// 並び順は保証しない（順位付けは呼び出し側で行う）。
	ListWithLatestEvent(ctx context.Context, userID string) ([]model.TaskWithLatestEvent, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// CreateMany は複数のタスクを同一トランザクションで作成する。
	CreateMany(ctx context.Context, tasks []*model.Task) error

	// Update は所有者が一致するタスクの名前・頻度・タグを更新する。
	Update(ctx context.Context, id, userID string, update TaskUpdate) (UpdateResult, error)

	// DeleteByIDs は所有者が一致するタスクをID群で削除し、削除件数を返す。
	DeleteByIDs(ctx context.Context, ids []string, userID string) (int64, error)

	// DeleteByUserID はユーザーの全タスクを削除し、削除件数を返す。
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// EventRepository はイベントデータの永続化インターフェース。
type EventRepository interface {
	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// FindByIDs は指定ID群のうち存在するイベントを取得する。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Event, error)

	// ListByUserID はユーザーのイベントをdate降順・id降順で取得する。
	ListByUserID(ctx context.Context, userID string, page Page) ([]*model.Event, error)

	// ListWithTaskName はListByUserIDと同じ並び・範囲のイベントをタスク名付きで取得する。
	ListWithTaskName(ctx context.Context, userID string, page Page) ([]model.EventWithTaskName, error)

	// Create はイベントを作成する。
	Create(ctx context.Context, event *model.Event) error

	// CreateMany は複数のイベントを同一トランザクションで作成する。
	CreateMany(ctx context.Context, events []*model.Event) error

	// UpdateDate は所有者が一致するイベントの日時を更新する。
	UpdateDate(ctx context.Context, id, userID string, date time.Time) (UpdateResult, error)

	// DeleteByIDs は所有者が一致するイベントをID群で削除し、削除件数を返す。
	DeleteByIDs(ctx context.Context, ids []string, userID string) (int64, error)

	// DeleteByUserID はユーザーの全イベントを削除し、削除件数を返す。
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// TagRepository はタグデータの永続化インターフェース。
type TagRepository interface {
	// FindByID は指定IDのタグを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Tag, error)

	// FindByIDs は指定ID群のうち存在するタグを取得する。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Tag, error)

	// ListByUserID はユーザーのタグをname昇順・id降順で取得する。
	ListByUserID(ctx context.Context, userID string, page Page) ([]*model.Tag, error)

	// Create はタグを作成する。
	Create(ctx context.Context, tag *model.Tag) error

	// CreateMany は複数のタグを同一トランザクションで作成する。
	CreateMany(ctx context.Context, tags []*model.Tag) error

	// Update は所有者が一致するタグの名前・説明・親タグを更新する。
	Update(ctx context.Context, id, userID string, update TagUpdate) (UpdateResult, error)

	// DeleteByIDs は所有者が一致するタグをID群で削除し、削除件数を返す。
	DeleteByIDs(ctx context.Context, ids []string, userID string) (int64, error)

	// DeleteByUserID はユーザーの全タグを削除し、削除件数を返す。
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}
