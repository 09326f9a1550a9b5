package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/mossy/internal/model"
)

const userColumns = `id, email, apple_user_id, token, token_issued_at, is_admin,
	should_color_scheme_use_system, is_color_scheme_dark_mode, color_theme,
	created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// UpsertLogin はapple_user_idの一意制約を競合対象にしてユーザーをUPSERTする。
// 既存ユーザーの場合はtoken、token_issued_at、updated_atのみを更新し、
// 表示設定や管理者フラグは保持する。
func (r *PostgresUserRepo) UpsertLogin(ctx context.Context, candidate *model.User) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (apple_user_id) DO UPDATE
		 SET token = EXCLUDED.token,
		     token_issued_at = EXCLUDED.token_issued_at,
		     updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		candidate.ID, candidate.Email, candidate.AppleUserID, candidate.Token, candidate.TokenIssuedAt,
		candidate.IsAdmin, candidate.Theme.UseSystemColorScheme, candidate.Theme.DarkMode,
		candidate.Theme.ColorTheme, candidate.CreatedAt, candidate.UpdatedAt,
	)

	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("ユーザーのUPSERTに失敗しました: %w", err)
	}
	return user, nil
}

// FindByToken はフィルタに一致するユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByToken(ctx context.Context, filter TokenFilter) (*model.User, error) {
	where, args := filter.where()
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where,
		args...,
	)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("トークンによるユーザーの取得に失敗しました: %w", err)
	}
	return user, nil
}

// UpdateTheme はユーザーの表示設定を更新する。
func (r *PostgresUserRepo) UpdateTheme(ctx context.Context, userID string, theme model.ThemeSettings) (UpdateResult, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET should_color_scheme_use_system = $2,
		     is_color_scheme_dark_mode = $3,
		     color_theme = $4,
		     updated_at = now()
		 WHERE id = $1`,
		userID, theme.UseSystemColorScheme, theme.DarkMode, theme.ColorTheme,
	)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("表示設定の更新に失敗しました: %w", err)
	}
	return updateResult(result)
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.AppleUserID, &user.Token, &user.TokenIssuedAt, &user.IsAdmin,
		&user.Theme.UseSystemColorScheme, &user.Theme.DarkMode, &user.Theme.ColorTheme,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
