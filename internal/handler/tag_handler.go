package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
	"github.com/hitoshi/mossy/internal/tag"
)

// TagServiceInterface はタグハンドラーが必要とするサービスインターフェース。
type TagServiceInterface interface {
	List(ctx context.Context, userID string, page repository.Page) ([]*model.Tag, error)
	Create(ctx context.Context, userID string, input tag.Input) (string, error)
	Update(ctx context.Context, userID, tagID string, input tag.Input) (repository.UpdateResult, error)
	Delete(ctx context.Context, userID string, tagIDs []string) (int64, error)
}

// TagHandler はタグ管理のHTTPハンドラー。
type TagHandler struct {
	service TagServiceInterface
}

// NewTagHandler はTagHandlerを生成する。
func NewTagHandler(service TagServiceInterface) *TagHandler {
	return &TagHandler{service: service}
}

// tagRequest はタグ作成・更新リクエストのボディ。
type tagRequest struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ParentTag   *string `json:"parent_tag"`
}

func (req tagRequest) input() tag.Input {
	return tag.Input{Name: req.Name, Description: req.Description, ParentTagID: req.ParentTag}
}

// tagResponse はタグのAPIレスポンス。
type tagResponse struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ParentTag   *string `json:"parent_tag"`
	User        string  `json:"user"`
}

// ListTags はタグを名前順に返す。
// GET /api/tags?limit=&offset=
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	tags, err := h.service.List(r.Context(), user.ID, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, tagResponse{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			ParentTag:   t.ParentTagID,
			User:        t.UserID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateTag はタグを作成する。
// POST /api/tags
func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req tagRequest
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

// UpdateTag はタグの名前・説明・親タグを更新する。
// PATCH /api/tags
func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req tagRequest
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

// DeleteTags はID配列で指定したタグを削除する。
// DELETE /api/tags
func (h *TagHandler) DeleteTags(w http.ResponseWriter, r *http.Request) {
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
