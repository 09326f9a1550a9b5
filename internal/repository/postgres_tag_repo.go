package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/mossy/internal/model"
)

// PostgresTagRepo はPostgreSQLを使用したタグリポジトリ。
type PostgresTagRepo struct {
	db *sql.DB
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB) *PostgresTagRepo {
	return &PostgresTagRepo{db: db}
}

// FindByID は指定IDのタグを取得する。見つからない場合はnilを返す。
func (r *PostgresTagRepo) FindByID(ctx context.Context, id string) (*model.Tag, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, description, parent_tag_id FROM tags WHERE id = $1`,
		id,
	)

	tag, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	return tag, nil
}

// FindByIDs は指定ID群のうち存在するタグを取得する。
func (r *PostgresTagRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Tag, error) {
	if len(ids) == 0 {
		return []*model.Tag{}, nil
	}
	return r.queryTags(ctx,
		`SELECT id, user_id, name, description, parent_tag_id FROM tags WHERE id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
}

// ListByUserID はユーザーのタグをname昇順・id降順でページ取得する。
// page.Limitが0の場合はoffset以降の全件を返す。
func (r *PostgresTagRepo) ListByUserID(ctx context.Context, userID string, page Page) ([]*model.Tag, error) {
	return r.queryTags(ctx,
		`SELECT id, user_id, name, description, parent_tag_id FROM tags
		 WHERE user_id = $1
		 ORDER BY name ASC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, page.limitArg(), page.Offset,
	)
}

// Create はタグを作成する。
func (r *PostgresTagRepo) Create(ctx context.Context, tag *model.Tag) error {
	if err := insertTag(ctx, r.db, tag); err != nil {
		return fmt.Errorf("タグの作成に失敗しました: %w", err)
	}
	return nil
}

// CreateMany は複数のタグを同一トランザクションで作成する。
func (r *PostgresTagRepo) CreateMany(ctx context.Context, tags []*model.Tag) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	for _, tag := range tags {
		if err := insertTag(ctx, tx, tag); err != nil {
			return fmt.Errorf("タグの一括作成に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Update は所有者が一致するタグの名前・説明・親タグを更新する。
func (r *PostgresTagRepo) Update(ctx context.Context, id, userID string, update TagUpdate) (UpdateResult, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tags SET name = $3, description = $4, parent_tag_id = $5
		 WHERE id = $1 AND user_id = $2`,
		id, userID, update.Name, nullStringPtr(update.Description), nullStringPtr(update.ParentTagID),
	)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("タグの更新に失敗しました: %w", err)
	}
	return updateResult(result)
}

// DeleteByIDs は所有者が一致するタグをID群で削除する。
// 子タグのparent_tag_idは弱参照のため更新しない。
func (r *PostgresTagRepo) DeleteByIDs(ctx context.Context, ids []string, userID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ANY($1::uuid[]) AND user_id = $2`,
		pq.Array(ids), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("タグの削除に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// DeleteByUserID はユーザーの全タグを削除する。
func (r *PostgresTagRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("ユーザーのタグ削除に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

func (r *PostgresTagRepo) queryTags(ctx context.Context, query string, args ...any) ([]*model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("タグの検索に失敗しました: %w", err)
	}
	defer rows.Close()

	tags := []*model.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("タグ行の読み取りに失敗しました: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タグの走査に失敗しました: %w", err)
	}
	return tags, nil
}

func insertTag(ctx context.Context, db execer, tag *model.Tag) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO tags (id, user_id, name, description, parent_tag_id) VALUES ($1, $2, $3, $4, $5)`,
		tag.ID, tag.UserID, tag.Name, nullStringPtr(tag.Description), nullStringPtr(tag.ParentTagID),
	)
	return err
}

func scanTag(row rowScanner) (*model.Tag, error) {
	tag := &model.Tag{}
	var description, parentTagID sql.NullString
	if err := row.Scan(&tag.ID, &tag.UserID, &tag.Name, &description, &parentTagID); err != nil {
		return nil, err
	}
	tag.Description = stringPtrValue(description)
	tag.ParentTagID = stringPtrValue(parentTagID)
	return tag, nil
}

// compile-time interface check
var _ TagRepository = (*PostgresTagRepo)(nil)
