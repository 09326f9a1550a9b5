package model

import "time"

// Event はタスクの実施記録を表す。
// TaskIDは弱参照で、参照先タスクが削除されていても記録は残る。
type Event struct {
	ID     string
	TaskID string
	UserID string
	Date   time.Time
}

// EventWithTaskName はイベントに参照先タスクの名前を結合したもの。
// タスクが存在しない場合、TaskNameはnil。
type EventWithTaskName struct {
	ID       string
	TaskName *string
	Date     time.Time
}

// OwnerID は所有ユーザーのIDを返す。
func (e Event) OwnerID() string { return e.UserID }
