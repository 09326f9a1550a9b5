package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
	"github.com/hitoshi/mossy/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	// ListRanked はmoss降順に並べたタスクを1ページ分返す。
	ListRanked(ctx context.Context, userID string, page repository.Page) ([]model.RankedTask, error)
	Create(ctx context.Context, userID string, input task.Input) (string, error)
	Update(ctx context.Context, userID, taskID string, input task.Input) (repository.UpdateResult, error)
	// Delete は所有するタスクをまとめて削除する。1件でも他人のものがあれば何もしない。
	Delete(ctx context.Context, userID string, taskIDs []string) (int64, error)
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskRequest はタスク作成・更新リクエストのボディ。
type taskRequest struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	Frequency int      `json:"frequency"`
	Tags      []string `json:"tags"`
}

func (req taskRequest) input() task.Input {
	return task.Input{Name: req.Name, Frequency: req.Frequency, Tags: req.Tags}
}

// rankedTaskResponse はタスク一覧のAPIレスポンス。
type rankedTaskResponse struct {
	ID                   string     `json:"_id"`
	Name                 string     `json:"name"`
	Frequency            int        `json:"frequency"`
	Tags                 []string   `json:"tags"`
	User                 string     `json:"user"`
	LatestEventDate      *time.Time `json:"latest_event_date"`
	TimeSinceLatestEvent *int64     `json:"time_since_latest_event"`
	Moss                 *int64     `json:"moss"`
}

// ListTasks はタスク一覧を苔むし度順に返す。
// GET /api/tasks?limit=&offset=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	tasks, err := h.service.ListRanked(r.Context(), user.ID, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]rankedTaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toRankedTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateTask はタスクを作成する。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	id, err := h.service.Create(r.Context(), user.ID, req.input())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insertResult{InsertedID: id})
}

// UpdateTask はタスクの名前・頻度・タグを更新する。
// PATCH /api/tasks
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Update(r.Context(), user.ID, req.ID, req.input())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUpdateResult(result))
}

// DeleteTasks はID配列で指定したタスクを削除する。
// DELETE /api/tasks
func (h *TaskHandler) DeleteTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	ids, err := decodeIDs(w, r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	deleted, err := h.service.Delete(r.Context(), user.ID, ids)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResult{DeletedCount: deleted})
}

func toRankedTaskResponse(t model.RankedTask) rankedTaskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	var latest *time.Time
	if t.LatestEventDate != nil {
		utc := t.LatestEventDate.UTC()
		latest = &utc
	}
	return rankedTaskResponse{
		ID:                   t.ID,
		Name:                 t.Name,
		Frequency:            t.Frequency,
		Tags:                 tags,
		User:                 t.UserID,
		LatestEventDate:      latest,
		TimeSinceLatestEvent: t.TimeSinceLatestEvent,
		Moss:                 t.Moss,
	}
}
