package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/mossy/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, frequency, tags, created_at FROM tasks WHERE id = $1`,
		id,
	)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	return task, nil
}

// FindByIDs は指定ID群のうち存在するタスクを取得する。
func (r *PostgresTaskRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Task, error) {
	if len(ids) == 0 {
		return []*model.Task{}, nil
	}
	return r.queryTasks(ctx,
		`SELECT id, user_id, name, frequency, tags, created_at FROM tasks WHERE id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
}

// ListByUserID はユーザーの全タスクを作成順に取得する。
func (r *PostgresTaskRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Task, error) {
	return r.queryTasks(ctx,
		`SELECT id, user_id, name, frequency, tags, created_at FROM tasks
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
}

// ListWithLatestEvent はユーザーの全タスクと各タスクの最新イベント日時を取得する。
// イベントはtask_idの弱参照で結合し、所有者は問わない。
func (r *PostgresTaskRepo) ListWithLatestEvent(ctx context.Context, userID string) ([]model.TaskWithLatestEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.name, t.frequency, t.tags, t.created_at, le.latest_date
		 FROM tasks t
		 LEFT JOIN LATERAL (
		     SELECT MAX(e.date) AS latest_date FROM events e WHERE e.task_id = t.id
		 ) le ON true
		 WHERE t.user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	result := []model.TaskWithLatestEvent{}
	for rows.Next() {
		var row model.TaskWithLatestEvent
		var tags pq.StringArray
		var latest sql.NullTime
		if err := rows.Scan(
			&row.ID, &row.UserID, &row.Name, &row.Frequency, &tags, &row.CreatedAt, &latest,
		); err != nil {
			return nil, fmt.Errorf("タスク行の読み取りに失敗しました: %w", err)
		}
		row.Tags = []string(tags)
		if latest.Valid {
			t := latest.Time
			row.LatestEventDate = &t
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスク一覧の走査に失敗しました: %w", err)
	}
	return result, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	if err := insertTask(ctx, r.db, task); err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// CreateMany は複数のタスクを同一トランザクションで作成する。
func (r *PostgresTaskRepo) CreateMany(ctx context.Context, tasks []*model.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	for _, task := range tasks {
		if err := insertTask(ctx, tx, task); err != nil {
			return fmt.Errorf("タスクの一括作成に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Update は所有者が一致するタスクの名前・頻度・タグを更新する。
func (r *PostgresTaskRepo) Update(ctx context.Context, id, userID string, update TaskUpdate) (UpdateResult, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET name = $3, frequency = $4, tags = $5::uuid[]
		 WHERE id = $1 AND user_id = $2`,
		id, userID, update.Name, update.Frequency, pq.Array(update.Tags),
	)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	return updateResult(result)
}

// DeleteByIDs は所有者が一致するタスクをID群で削除する。
func (r *PostgresTaskRepo) DeleteByIDs(ctx context.Context, ids []string, userID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ANY($1::uuid[]) AND user_id = $2`,
		pq.Array(ids), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// DeleteByUserID はユーザーの全タスクを削除する。
func (r *PostgresTaskRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("ユーザーのタスク削除に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

func (r *PostgresTaskRepo) queryTasks(ctx context.Context, query string, args ...any) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("タスクの検索に失敗しました: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("タスク行の読み取りに失敗しました: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスクの走査に失敗しました: %w", err)
	}
	return tasks, nil
}

func insertTask(ctx context.Context, db execer, task *model.Task) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, name, frequency, tags, created_at)
		 VALUES ($1, $2, $3, $4, $5::uuid[], $6)`,
		task.ID, task.UserID, task.Name, task.Frequency, pq.Array(task.Tags), task.CreatedAt,
	)
	return err
}

func scanTask(row rowScanner) (*model.Task, error) {
	task := &model.Task{}
	var tags pq.StringArray
	if err := row.Scan(&task.ID, &task.UserID, &task.Name, &task.Frequency, &tags, &task.CreatedAt); err != nil {
		return nil, err
	}
	task.Tags = []string(tags)
	return task, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
