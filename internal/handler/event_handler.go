package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	List(ctx context.Context, userID string, page repository.Page) ([]*model.Event, error)
	// ListWithTaskName はタスク名を結合したイベントを返す。タスクが消えていれば名前はnil。
	ListWithTaskName(ctx context.Context, userID string, page repository.Page) ([]model.EventWithTaskName, error)
	Create(ctx context.Context, userID, taskID, date string) (string, error)
	UpdateDate(ctx context.Context, userID, eventID, date string) (repository.UpdateResult, error)
	Delete(ctx context.Context, userID string, eventIDs []string) (int64, error)
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{service: service}
}

// eventRequest はイベント作成・更新リクエストのボディ。
// dateはRFC 3339形式の文字列。
type eventRequest struct {
	ID   string `json:"_id"`
	Task string `json:"task"`
	Date string `json:"date"`
}

// eventResponse はイベントのAPIレスポンス。
type eventResponse struct {
	ID   string    `json:"_id"`
	Task string    `json:"task"`
	Date time.Time `json:"date"`
	User string    `json:"user"`
}

// eventStringResponse はタスク名付きイベントのAPIレスポンス。
type eventStringResponse struct {
	ID   string    `json:"_id"`
	Task *string   `json:"task"`
	Date time.Time `json:"date"`
}

// ListEvents はイベントを日時の新しい順に返す。
// GET /api/events?limit=&offset=
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	events, err := h.service.List(r.Context(), user.ID, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventResponse{
			ID:   e.ID,
			Task: e.TaskID,
			Date: e.Date.UTC(),
			User: e.UserID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListEventsWithTaskName はタスク名付きのイベントを返す。
// GET /api/events-string?limit=&offset=
func (h *EventHandler) ListEventsWithTaskName(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	events, err := h.service.ListWithTaskName(r.Context(), user.ID, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]eventStringResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventStringResponse{
			ID:   e.ID,
			Task: e.TaskName,
			Date: e.Date.UTC(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateEvent はイベントを記録する。
// POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	id, err := h.service.Create(r.Context(), user.ID, req.Task, req.Date)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insertResult{InsertedID: id})
}

// UpdateEvent はイベントの日時を変更する。
// PATCH /api/events
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.UpdateDate(r.Context(), user.ID, req.ID, req.Date)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUpdateResult(result))
}

// DeleteEvents はID配列で指定したイベントを削除する。
// DELETE /api/events
func (h *EventHandler) DeleteEvents(w http.ResponseWriter, r *http.Request) {
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
