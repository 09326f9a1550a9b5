package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/mossy/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	event := &model.Event{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, task_id, user_id, date FROM events WHERE id = $1`,
		id,
	).Scan(&event.ID, &event.TaskID, &event.UserID, &event.Date)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	return event, nil
}

// FindByIDs は指定ID群のうち存在するイベントを取得する。
func (r *PostgresEventRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Event, error) {
	if len(ids) == 0 {
		return []*model.Event{}, nil
	}
	return r.queryEvents(ctx,
		`SELECT id, task_id, user_id, date FROM events WHERE id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
}

// ListByUserID はユーザーのイベントをdate降順・id降順でページ取得する。
// page.Limitが0の場合はoffset以降の全件を返す。
func (r *PostgresEventRepo) ListByUserID(ctx context.Context, userID string, page Page) ([]*model.Event, error) {
	return r.queryEvents(ctx,
		`SELECT id, task_id, user_id, date FROM events
		 WHERE user_id = $1
		 ORDER BY date DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, page.limitArg(), page.Offset,
	)
}

// ListWithTaskName はListByUserIDと同じ並び・範囲のイベントを参照先タスク名付きで取得する。
// 参照先タスクが削除済みの場合、タスク名はnilになる。
func (r *PostgresEventRepo) ListWithTaskName(ctx context.Context, userID string, page Page) ([]model.EventWithTaskName, error) {
	result := []model.EventWithTaskName{}

	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, t.name, e.date
		 FROM events e
		 LEFT JOIN tasks t ON t.id = e.task_id
		 WHERE e.user_id = $1
		 ORDER BY e.date DESC, e.id DESC
		 LIMIT $2 OFFSET $3`,
		userID, page.limitArg(), page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("タスク名付きイベント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row model.EventWithTaskName
		var taskName sql.NullString
		if err := rows.Scan(&row.ID, &taskName, &row.Date); err != nil {
			return nil, fmt.Errorf("イベント行の読み取りに失敗しました: %w", err)
		}
		row.TaskName = stringPtrValue(taskName)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の走査に失敗しました: %w", err)
	}
	return result, nil
}

// Create はイベントを作成する。
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	if err := insertEvent(ctx, r.db, event); err != nil {
		return fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}
	return nil
}

// CreateMany は複数のイベントを同一トランザクションで作成する。
func (r *PostgresEventRepo) CreateMany(ctx context.Context, events []*model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	for _, event := range events {
		if err := insertEvent(ctx, tx, event); err != nil {
			return fmt.Errorf("イベントの一括作成に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// UpdateDate は所有者が一致するイベントの日時を更新する。
func (r *PostgresEventRepo) UpdateDate(ctx context.Context, id, userID string, date time.Time) (UpdateResult, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET date = $3 WHERE id = $1 AND user_id = $2`,
		id, userID, date,
	)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}
	return updateResult(result)
}

// DeleteByIDs は所有者が一致するイベントをID群で削除する。
func (r *PostgresEventRepo) DeleteByIDs(ctx context.Context, ids []string, userID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = ANY($1::uuid[]) AND user_id = $2`,
		pq.Array(ids), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// DeleteByUserID はユーザーの全イベントを削除する。
func (r *PostgresEventRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("ユーザーのイベント削除に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

func (r *PostgresEventRepo) queryEvents(ctx context.Context, query string, args ...any) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("イベントの検索に失敗しました: %w", err)
	}
	defer rows.Close()

	events := []*model.Event{}
	for rows.Next() {
		event := &model.Event{}
		if err := rows.Scan(&event.ID, &event.TaskID, &event.UserID, &event.Date); err != nil {
			return nil, fmt.Errorf("イベント行の読み取りに失敗しました: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベントの走査に失敗しました: %w", err)
	}
	return events, nil
}

func insertEvent(ctx context.Context, db execer, event *model.Event) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO events (id, task_id, user_id, date) VALUES ($1, $2, $3, $4)`,
		event.ID, event.TaskID, event.UserID, event.Date,
	)
	return err
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
