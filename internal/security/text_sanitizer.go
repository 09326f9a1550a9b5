package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力のプレーンテキスト項目からマークアップを取り除く。
// タスク名、タグ名、タグの説明の保存前に使う。
type TextSanitizer interface {
	SanitizeText(s string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer は全タグを除去するStrictPolicyのサニタイザーを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// maxUnescapeDepth は文字実体の多重エスケープを展開する最大回数。
const maxUnescapeDepth = 5

// SanitizeText はタグを除去し、エスケープされた文字実体を元の文字に戻して前後の空白を除く。
// 文字実体を戻した結果がマークアップになる入力（"&lt;b&gt;"など）は、変化しなくなるまで除去を繰り返す。
// 上限回数で収まらない場合は文字実体のまま返す。
func (s *textSanitizer) SanitizeText(text string) string {
	if text == "" {
		return ""
	}
	current := text
	for i := 0; i < maxUnescapeDepth; i++ {
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(current)))
		if next == current {
			return next
		}
		current = next
	}
	return strings.TrimSpace(s.policy.Sanitize(current))
}

var _ TextSanitizer = (*textSanitizer)(nil)
