package repository

import (
	"strings"
)

// Page はskip/limit方式のページ指定。
// イベント・タグの取得ではLimitが0の場合は件数を制限しない。
// タスクのmoss順位付けでは0件を返す（ranking.Rankを参照）。
type Page struct {
	Limit  int
	Offset int
}

// NewPage は負の値を0に丸めたPageを生成する。
func NewPage(limit, offset int) Page {
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// limitArg はLIMIT句のバインド値を返す。
// Limitが0の場合はNULLを返し、PostgreSQLはLIMIT NULLを無制限として扱う。
func (p Page) limitArg() any {
	if p.Limit == 0 {
		return nil
	}
	return p.Limit
}

// UpdateResult は更新系操作の結果。
// PostgreSQLでは一致件数と更新件数は常に等しい。
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// TokenFilter はセッショントークンでユーザーを引くための条件。
// AppleUserIDが空でない場合はsubject識別子でも絞り込む。
type TokenFilter struct {
	Token       string
	AppleUserID string
}

// ByToken はトークンのみで引くフィルタを返す。
func ByToken(token string) TokenFilter {
	return TokenFilter{Token: token}
}

// ByTokenAndAppleUserID はトークンとsubject識別子の両方で引くフィルタを返す。
func ByTokenAndAppleUserID(token, appleUserID string) TokenFilter {
	return TokenFilter{Token: token, AppleUserID: appleUserID}
}

// where はフィルタをWHERE句とバインド引数に変換する。
func (f TokenFilter) where() (string, []any) {
	clauses := []string{"token = $1"}
	args := []any{f.Token}
	if f.AppleUserID != "" {
		clauses = append(clauses, "apple_user_id = $2")
		args = append(args, f.AppleUserID)
	}
	return strings.Join(clauses, " AND "), args
}

// TaskUpdate はタスク更新の対象フィールド。
type TaskUpdate struct {
	Name      string
	Frequency int
	Tags      []string
}

// TagUpdate はタグ更新の対象フィールド。
type TagUpdate struct {
	Name        string
	Description *string
	ParentTagID *string
}
