package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
	"github.com/hitoshi/mossy/internal/tag"
)

// mockTagService はTagServiceInterfaceのモック実装。
type mockTagService struct {
	listFn   func(ctx context.Context, userID string, page repository.Page) ([]*model.Tag, error)
	createFn func(ctx context.Context, userID string, input tag.Input) (string, error)
	updateFn func(ctx context.Context, userID, tagID string, input tag.Input) (repository.UpdateResult, error)
	deleteFn func(ctx context.Context, userID string, tagIDs []string) (int64, error)
}

func (m *mockTagService) List(ctx context.Context, userID string, page repository.Page) ([]*model.Tag, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, page)
	}
	return nil, nil
}

func (m *mockTagService) Create(ctx context.Context, userID string, input tag.Input) (string, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return "", nil
}

func (m *mockTagService) Update(ctx context.Context, userID, tagID string, input tag.Input) (repository.UpdateResult, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, tagID, input)
	}
	return repository.UpdateResult{}, nil
}

func (m *mockTagService) Delete(ctx context.Context, userID string, tagIDs []string) (int64, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, tagIDs)
	}
	return 0, nil
}

func TestTagHandler_ListTags_DefaultPageReturnsAllRows(t *testing.T) {
	svc := &mockTagService{
		listFn: func(ctx context.Context, userID string, page repository.Page) ([]*model.Tag, error) {
			if page != (repository.Page{}) {
				t.Errorf("page = %+v, want zero page", page)
			}
			return []*model.Tag{
				{ID: "g1", UserID: userID, Name: "a"},
				{ID: "g2", UserID: userID, Name: "b"},
				{ID: "g3", UserID: userID, Name: "c"},
			}, nil
		},
	}

	req := withUser(newJSONRequest(http.MethodGet, "/api/tags", ""), testUser())
	w := httptest.NewRecorder()
	NewTagHandler(svc).ListTags(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body []map[string]any
	decodeBody(t, w, &body)
	if len(body) != 3 {
		t.Errorf("len = %d, want 3", len(body))
	}
}

func TestTagHandler_ListTags(t *testing.T) {
	desc := "運動系"
	svc := &mockTagService{
		listFn: func(ctx context.Context, userID string, page repository.Page) ([]*model.Tag, error) {
			return []*model.Tag{
				{ID: "g1", UserID: userID, Name: "health", Description: &desc},
				{ID: "g2", UserID: userID, Name: "run", ParentTagID: strPtr("g1")},
			}, nil
		},
	}

	req := withUser(newJSONRequest(http.MethodGet, "/api/tags?limit=10", ""), testUser())
	w := httptest.NewRecorder()
	NewTagHandler(svc).ListTags(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body []map[string]any
	decodeBody(t, w, &body)
	if len(body) != 2 {
		t.Fatalf("len = %d, want 2", len(body))
	}
	if body[0]["description"] != "運動系" || body[0]["parent_tag"] != nil {
		t.Errorf("first = %v", body[0])
	}
	if body[1]["description"] != nil || body[1]["parent_tag"] != "g1" {
		t.Errorf("second = %v", body[1])
	}
	if body[1]["user"] != "user-1" {
		t.Errorf("user = %v", body[1]["user"])
	}
}

func TestTagHandler_CreateTag_OptionalFields(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDesc   *string
		wantParent *string
	}{
		{"省略", `{"name":"a"}`, nil, nil},
		{"null", `{"name":"a","description":null,"parent_tag":null}`, nil, nil},
		{"指定", `{"name":"a","description":"d","parent_tag":"p"}`, strPtr("d"), strPtr("p")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got tag.Input
			svc := &mockTagService{
				createFn: func(ctx context.Context, userID string, input tag.Input) (string, error) {
					got = input
					return "g-new", nil
				},
			}

			req := withUser(newJSONRequest(http.MethodPost, "/api/tags", tt.body), testUser())
			w := httptest.NewRecorder()
			NewTagHandler(svc).CreateTag(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if !equalStrPtr(got.Description, tt.wantDesc) || !equalStrPtr(got.ParentTagID, tt.wantParent) {
				t.Errorf("input = %+v", got)
			}
		})
	}
}

func TestTagHandler_UpdateTag_NotFound(t *testing.T) {
	svc := &mockTagService{
		updateFn: func(ctx context.Context, userID, tagID string, input tag.Input) (repository.UpdateResult, error) {
			return repository.UpdateResult{}, model.NewTagNotFoundError(tagID)
		},
	}

	req := withUser(newJSONRequest(http.MethodPatch, "/api/tags", `{"_id":"g1","name":"x"}`), testUser())
	w := httptest.NewRecorder()
	NewTagHandler(svc).UpdateTag(w, req)
	assertErrorCode(t, w, http.StatusNotFound, model.ErrCodeTagNotFound)
}

func TestTagHandler_DeleteTags(t *testing.T) {
	svc := &mockTagService{
		deleteFn: func(ctx context.Context, userID string, tagIDs []string) (int64, error) {
			return int64(len(tagIDs)), nil
		},
	}

	req := withUser(newJSONRequest(http.MethodDelete, "/api/tags", `["g1","g2","g3"]`), testUser())
	w := httptest.NewRecorder()
	NewTagHandler(svc).DeleteTags(w, req)

	var body deleteResult
	decodeBody(t, w, &body)
	if body.DeletedCount != 3 {
		t.Errorf("deleted_count = %d, want 3", body.DeletedCount)
	}
}

func strPtr(s string) *string { return &s }

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
