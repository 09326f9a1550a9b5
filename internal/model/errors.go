// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeMissingAuthorization   = "MISSING_AUTHORIZATION"
	ErrCodeMalformedAuthorization = "MALFORMED_AUTHORIZATION"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeLoginFailed            = "LOGIN_FAILED"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeTaskNotFound           = "TASK_NOT_FOUND"
	ErrCodeEventNotFound          = "EVENT_NOT_FOUND"
	ErrCodeTagNotFound            = "TAG_NOT_FOUND"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeInvalidDate            = "INVALID_DATE"
	ErrCodeInternal               = "INTERNAL_ERROR"
	ErrCodeIdentityProvider       = "IDENTITY_PROVIDER_UNAVAILABLE"
)

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewMissingAuthorizationError はAuthorizationヘッダー欠落エラーを生成する。
func NewMissingAuthorizationError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingAuthorization,
		Message:  "Authorizationヘッダーがありません。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewMalformedAuthorizationError はAuthorizationヘッダー形式不正エラーを生成する。
func NewMalformedAuthorizationError() *APIError {
	return &APIError{
		Code:     ErrCodeMalformedAuthorization,
		Message:  "Authorizationヘッダーの形式が不正です。",
		Category: "auth",
		Action:   "\"Bearer <token>\" 形式で指定してください。",
	}
}

// NewUnauthorizedError はトークンに対応するユーザーが存在しない場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewLoginFailedError はログイン失敗エラーを生成する。
// 失敗理由の詳細はログにのみ記録し、レスポンスには含めない。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "ログインに失敗しました。",
		Category: "auth",
		Action:   "もう一度サインインしてください。",
	}
}

// NewIdentityProviderError はAppleの公開鍵セットを取得・解析できなかった場合のエラーを生成する。
func NewIdentityProviderError() *APIError {
	return &APIError{
		Code:     ErrCodeIdentityProvider,
		Message:  "認証サーバーに接続できませんでした。",
		Category: "auth",
		Action:   "しばらく待ってから再度サインインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分が作成したデータのみ操作できます。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "task",
		Action:   "タスクIDを確認してください。",
	}
}

// NewEventNotFoundError はイベント未検出エラーを生成する。
func NewEventNotFoundError(eventID string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("指定されたイベントが見つかりません: %s", eventID),
		Category: "task",
		Action:   "イベントIDを確認してください。",
	}
}

// NewTagNotFoundError はタグ未検出エラーを生成する。
func NewTagNotFoundError(tagID string) *APIError {
	return &APIError{
		Code:     ErrCodeTagNotFound,
		Message:  fmt.Sprintf("指定されたタグが見つかりません: %s", tagID),
		Category: "task",
		Action:   "タグIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidDateError は日時の形式不正エラーを生成する。
func NewInvalidDateError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("日時の形式が不正です: %s", value),
		Category: "validation",
		Action:   "RFC 3339形式（例: 2023-10-01T05:43:48.487Z）で指定してください。",
	}
}
