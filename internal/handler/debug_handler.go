package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mossy/internal/model"
)

// DebugServiceInterface は管理者向けテストデータ操作のサービスインターフェース。
// すべての操作は管理者以外にFORBIDDENを返す。
type DebugServiceInterface interface {
	CreateTasks(ctx context.Context, user *model.User, quantity uint8) ([]string, error)
	DeleteTasks(ctx context.Context, user *model.User) (int64, error)
	CreateEvents(ctx context.Context, user *model.User) ([]string, error)
	DeleteEvents(ctx context.Context, user *model.User) (int64, error)
	CreateTags(ctx context.Context, user *model.User, quantity uint8) ([]string, error)
	DeleteTags(ctx context.Context, user *model.User) (int64, error)
}

// DebugHandler はテストデータ生成・削除のHTTPハンドラー。
type DebugHandler struct {
	service DebugServiceInterface
}

// NewDebugHandler はDebugHandlerを生成する。
func NewDebugHandler(service DebugServiceInterface) *DebugHandler {
	return &DebugHandler{service: service}
}

// quantityRequest は生成件数の指定。0〜255。
type quantityRequest struct {
	Quantity uint8 `json:"quantity"`
}

// CreateTasks はテスト用タスクを生成する。
// POST /api/debug/tasks
func (h *DebugHandler) CreateTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	ids, err := h.service.CreateTasks(r.Context(), user, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsertManyResult(ids))
}

// DeleteTasks は呼び出したユーザーのタスクをすべて削除する。
// DELETE /api/debug/tasks
func (h *DebugHandler) DeleteTasks(w http.ResponseWriter, r *http.Request) {
	h.deleteAll(w, r, h.service.DeleteTasks)
}

// CreateEvents は所有するタスクごとに1件ずつテスト用イベントを生成する。
// POST /api/debug/events
func (h *DebugHandler) CreateEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	ids, err := h.service.CreateEvents(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsertManyResult(ids))
}

// DeleteEvents は呼び出したユーザーのイベントをすべて削除する。
// DELETE /api/debug/events
func (h *DebugHandler) DeleteEvents(w http.ResponseWriter, r *http.Request) {
	h.deleteAll(w, r, h.service.DeleteEvents)
}

// CreateTags はテスト用タグを生成する。
// POST /api/debug/tags
func (h *DebugHandler) CreateTags(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	ids, err := h.service.CreateTags(r.Context(), user, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsertManyResult(ids))
}

// DeleteTags は呼び出したユーザーのタグをすべて削除する。
// DELETE /api/debug/tags
func (h *DebugHandler) DeleteTags(w http.ResponseWriter, r *http.Request) {
	h.deleteAll(w, r, h.service.DeleteTags)
}

func (h *DebugHandler) deleteAll(w http.ResponseWriter, r *http.Request, del func(context.Context, *model.User) (int64, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	deleted, err := del(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResult{DeletedCount: deleted})
}
