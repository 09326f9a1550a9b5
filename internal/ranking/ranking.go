// Package ranking はタスクを苔むし度（moss）で順位付けする。
//
// mossは「最新イベントからの経過ミリ秒 − 頻度（日）×1日のミリ秒」で、
// 正の値は実施予定日を過ぎていることを表す。イベントが1件もないタスクのmossは未定義で、
// mossを持つ全タスクの後ろに並ぶ。
package ranking

import (
	"cmp"
	"slices"
	"time"

	"github.com/hitoshi/mossy/internal/model"
)

// Moss は基準時刻nowにおけるタスクのmossを計算する。
// latestがnilの場合はnilを返す。
func Moss(now time.Time, frequency int, latest *time.Time) *int64 {
	if latest == nil {
		return nil
	}
	window := int64(frequency) * model.MillisecondsPerDay
	moss := *sinceLatest(now, latest) - window
	return &moss
}

// sinceLatest は最新イベントからnowまでの経過ミリ秒を返す。latestがnilの場合はnil。
func sinceLatest(now time.Time, latest *time.Time) *int64 {
	if latest == nil {
		return nil
	}
	ms := now.Sub(*latest).Milliseconds()
	return &ms
}

// Rank は各タスクにmossを付与し、moss降順・id降順で並べてからoffset件読み飛ばし、limit件を返す。
// limitが0以下の場合は0件を返す。
func Rank(now time.Time, rows []model.TaskWithLatestEvent, limit, offset int) []model.RankedTask {
	ranked := make([]model.RankedTask, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, model.RankedTask{
			Task:                 row.Task,
			LatestEventDate:      row.LatestEventDate,
			TimeSinceLatestEvent: sinceLatest(now, row.LatestEventDate),
			Moss:                 Moss(now, row.Frequency, row.LatestEventDate),
		})
	}

	slices.SortFunc(ranked, compare)

	return page(ranked, limit, offset)
}

// compare はmoss降順（未定義は最後）、同値ならid降順の比較関数。
func compare(a, b model.RankedTask) int {
	switch {
	case a.Moss != nil && b.Moss == nil:
		return -1
	case a.Moss == nil && b.Moss != nil:
		return 1
	case a.Moss != nil && b.Moss != nil && *a.Moss != *b.Moss:
		return cmp.Compare(*b.Moss, *a.Moss)
	}
	return cmp.Compare(b.ID, a.ID)
}

func page(ranked []model.RankedTask, limit, offset int) []model.RankedTask {
	if limit <= 0 || offset >= len(ranked) {
		return []model.RankedTask{}
	}
	if offset < 0 {
		offset = 0
	}
	end := offset + limit
	if end > len(ranked) || end < offset {
		end = len(ranked)
	}
	return ranked[offset:end]
}
