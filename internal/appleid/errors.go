package appleid

import (
	"errors"
	"fmt"
)

// Kind はログイン資格情報の検証失敗の種別。
type Kind string

// 失敗種別。メトリクスのラベルとログにもそのまま使う。
const (
	KindFetchKeys           Kind = "fetch_keys"
	KindDeserializeJSON     Kind = "deserialize_json"
	KindDecodeJWT           Kind = "decode_jwt"
	KindNoKid               Kind = "no_kid"
	KindNoMatchingKid       Kind = "no_matching_kid"
	KindInvalidKeySucceeded Kind = "invalid_key_succeeded"
	KindMatchingKeyFailed   Kind = "matching_key_failed"
	KindDecodeComponent     Kind = "decode_component"
	KindInvalidNonce        Kind = "invalid_nonce"
	KindSubjectMismatch     Kind = "subject_mismatch"
	KindDatabase            Kind = "database"
)

// Upstream は失敗がIDプロバイダー側（鍵セットの取得・解析）に起因するかを返す。
// この場合クライアントの資格情報は検証できていない。
func (k Kind) Upstream() bool {
	return k == KindFetchKeys || k == KindDeserializeJSON
}

// CredentialsError はIDトークンの取得・検証・セッション発行の失敗を表す。
// Errには原因となったエラーを保持する（レスポンスには含めない）。
type CredentialsError struct {
	Kind Kind
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *CredentialsError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("credentials error: %s", e.Kind)
	}
	return fmt.Sprintf("credentials error: %s: %v", e.Kind, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *CredentialsError) Unwrap() error {
	return e.Err
}

// Is は種別が一致するCredentialsErrorを同一とみなす。
// errors.Is(err, appleid.ErrInvalidNonce) のように番兵値と比較できる。
func (e *CredentialsError) Is(target error) bool {
	t, ok := target.(*CredentialsError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// 種別ごとの番兵値。
var (
	ErrFetchKeys           = &CredentialsError{Kind: KindFetchKeys}
	ErrDeserializeJSON     = &CredentialsError{Kind: KindDeserializeJSON}
	ErrDecodeJWT           = &CredentialsError{Kind: KindDecodeJWT}
	ErrNoKid               = &CredentialsError{Kind: KindNoKid}
	ErrNoMatchingKid       = &CredentialsError{Kind: KindNoMatchingKid}
	ErrInvalidKeySucceeded = &CredentialsError{Kind: KindInvalidKeySucceeded}
	ErrMatchingKeyFailed   = &CredentialsError{Kind: KindMatchingKeyFailed}
	ErrDecodeComponent     = &CredentialsError{Kind: KindDecodeComponent}
	ErrInvalidNonce        = &CredentialsError{Kind: KindInvalidNonce}
	ErrSubjectMismatch     = &CredentialsError{Kind: KindSubjectMismatch}
	ErrDatabase            = &CredentialsError{Kind: KindDatabase}
)

// NewError は原因エラーを包んだCredentialsErrorを生成する。
func NewError(kind Kind, err error) *CredentialsError {
	return &CredentialsError{Kind: kind, Err: err}
}

// KindOf はエラーチェーンからCredentialsErrorの種別を取り出す。
// CredentialsErrorを含まない場合は空文字列を返す。
func KindOf(err error) Kind {
	var ce *CredentialsError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
