package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// execer は*sql.DBと*sql.Txの共通インターフェース。
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// nullStringPtr は*stringをsql.NullStringに変換する。nilはNULLになる。
func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtrValue はsql.NullStringを*stringに変換する。NULLはnilになる。
func stringPtrValue(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// rowsAffected はExec結果から影響行数を取り出す。
func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("影響行数の取得に失敗しました: %w", err)
	}
	return n, nil
}

// updateResult はExec結果をUpdateResultに変換する。
func updateResult(result sql.Result) (UpdateResult, error) {
	n, err := rowsAffected(result)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{MatchedCount: n, ModifiedCount: n}, nil
}
