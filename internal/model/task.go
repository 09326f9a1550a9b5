package model

import "time"

// MillisecondsPerDay は頻度（日数）をミリ秒に換算する係数。
const MillisecondsPerDay int64 = 24 * 60 * 60 * 1000

// Task は繰り返し行う習慣を表す。
// Frequencyは実施間隔の日数。Tagsはタグへの弱参照（存在は保証しない）。
type Task struct {
	ID        string
	UserID    string
	Name      string
	Frequency int
	Tags      []string
	CreatedAt time.Time
}

// TaskWithLatestEvent はタスクと、そのタスクに紐づく最新イベントの日時を結合したもの。
// イベントが1件もない場合、LatestEventDateはnil。
type TaskWithLatestEvent struct {
	Task
	LatestEventDate *time.Time
}

// RankedTask はmoss（苔むし度）を付与したタスク一覧の1行。
// LatestEventDateがnilの場合、TimeSinceLatestEventとMossもnil。
type RankedTask struct {
	Task
	LatestEventDate      *time.Time
	TimeSinceLatestEvent *int64 // ミリ秒
	Moss                 *int64 // ミリ秒
}

// OwnerID は所有ユーザーのIDを返す。
func (t Task) OwnerID() string { return t.UserID }
