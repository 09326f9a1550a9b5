package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/mossy/internal/model"
	"github.com/hitoshi/mossy/internal/repository"
	"github.com/hitoshi/mossy/internal/task"
)

// --- モック定義 ---

// mockTaskService はTaskServiceInterfaceのモック実装。
type mockTaskService struct {
	listRankedFn func(ctx context.Context, userID string, page repository.Page) ([]model.RankedTask, error)
	createFn     func(ctx context.Context, userID string, input task.Input) (string, error)
	updateFn     func(ctx context.Context, userID, taskID string, input task.Input) (repository.UpdateResult, error)
	deleteFn     func(ctx context.Context, userID string, taskIDs []string) (int64, error)
}

func (m *mockTaskService) ListRanked(ctx context.Context, userID string, page repository.Page) ([]model.RankedTask, error) {
	if m.listRankedFn != nil {
		return m.listRankedFn(ctx, userID, page)
	}
	return nil, nil
}

func (m *mockTaskService) Create(ctx context.Context, userID string, input task.Input) (string, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return "", nil
}

func (m *mockTaskService) Update(ctx context.Context, userID, taskID string, input task.Input) (repository.UpdateResult, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, taskID, input)
	}
	return repository.UpdateResult{}, nil
}

func (m *mockTaskService) Delete(ctx context.Context, userID string, taskIDs []string) (int64, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, taskIDs)
	}
	return 0, nil
}

// --- GET /api/tasks ---

func TestTaskHandler_ListTasks_Success(t *testing.T) {
	latest := time.Date(2024, 4, 21, 12, 0, 0, 0, time.UTC)
	since := 10 * model.MillisecondsPerDay
	moss := 3 * model.MillisecondsPerDay

	var gotPage repository.Page
	svc := &mockTaskService{
		listRankedFn: func(ctx context.Context, userID string, page repository.Page) ([]model.RankedTask, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			gotPage = page
			return []model.RankedTask{
				{
					Task:                 model.Task{ID: "t1", UserID: "user-1", Name: "筋トレ", Frequency: 7, Tags: []string{"tag-1"}},
					LatestEventDate:      &latest,
					TimeSinceLatestEvent: &since,
					Moss:                 &moss,
				},
				{Task: model.Task{ID: "t2", UserID: "user-1", Name: "読書", Frequency: 1}},
			}, nil
		},
	}

	req := withUser(newJSONRequest(http.MethodGet, "/api/tasks?limit=2&offset=1", ""), testUser())
	w := httptest.NewRecorder()
	NewTaskHandler(svc).ListTasks(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotPage != (repository.Page{Limit: 2, Offset: 1}) {
		t.Errorf("page = %+v, want {2 1}", gotPage)
	}

	var body []map[string]any
	decodeBody(t, w, &body)
	if len(body) != 2 {
		t.Fatalf("len = %d, want 2", len(body))
	}
	first := body[0]
	if first["_id"] != "t1" || first["user"] != "user-1" || first["frequency"] != float64(7) {
		t.Errorf("unexpected first task: %v", first)
	}
	if first["latest_event_date"] != "2024-04-21T12:00:00Z" {
		t.Errorf("latest_event_date = %v", first["latest_event_date"])
	}
	if first["moss"] != float64(moss) || first["time_since_latest_event"] != float64(since) {
		t.Errorf("moss/time_since = %v/%v", first["moss"], first["time_since_latest_event"])
	}

	second := body[1]
	for _, key := range []string{"latest_event_date", "time_since_latest_event", "moss"} {
		v, ok := second[key]
		if !ok || v != nil {
			t.Errorf("%s should be null, got %v (present=%v)", key, v, ok)
		}
	}
	if tags, ok := second["tags"].([]any); !ok || len(tags) != 0 {
		t.Errorf("tags should be empty array, got %v", second["tags"])
	}
}

func TestTaskHandler_ListTasks_DefaultPageIsZero(t *testing.T) {
	var gotPage repository.Page
	svc := &mockTaskService{
		listRankedFn: func(ctx context.Context, userID string, page repository.Page) ([]model.RankedTask, error) {
			gotPage = page
			return nil, nil
		},
	}

	req := withUser(newJSONRequest(http.MethodGet, "/api/tasks", ""), testUser())
	w := httptest.NewRecorder()
	NewTaskHandler(svc).ListTasks(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotPage != (repository.Page{}) {
		t.Errorf("page = %+v, want zero", gotPage)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestTaskHandler_ListTasks_InvalidPage(t *testing.T) {
	for _, query := range []string{"limit=abc", "limit=-1", "offset=1.5"} {
		t.Run(query, func(t *testing.T) {
			called := false
			svc := &mockTaskService{
				listRankedFn: func(ctx context.Context, userID string, page repository.Page) ([]model.RankedTask, error) {
					called = true
					return nil, nil
				},
			}

			req := withUser(newJSONRequest(http.MethodGet, "/api/tasks?"+query, ""), testUser())
			w := httptest.NewRecorder()
			NewTaskHandler(svc).ListTasks(w, req)

			assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeInvalidRequest)
			if called {
				t.Error("service should not be called")
			}
		})
	}
}

func TestTaskHandler_ListTasks_NoUser_ReturnsUnauthorized(t *testing.T) {
	w := httptest.NewRecorder()
	NewTaskHandler(&mockTaskService{}).ListTasks(w, newJSONRequest(http.MethodGet, "/api/tasks", ""))
	assertErrorCode(t, w, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}

// --- POST /api/tasks ---

func TestTaskHandler_CreateTask_Success(t *testing.T) {
	var gotInput task.Input
	svc := &mockTaskService{
		createFn: func(ctx context.Context, userID string, input task.Input) (string, error) {
			gotInput = input
			return "new-task", nil
		},
	}

	req := withUser(newJSONRequest(http.MethodPost, "/api/tasks", `{"name":"散歩","frequency":3,"tags":["a","b"]}`), testUser())
	w := httptest.NewRecorder()
	NewTaskHandler(svc).CreateTask(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	want := task.Input{Name: "散歩", Frequency: 3, Tags: []string{"a", "b"}}
	if !reflect.DeepEqual(gotInput, want) {
		t.Errorf("input = %+v, want %+v", gotInput, want)
	}

	var body insertResult
	decodeBody(t, w, &body)
	if body.InsertedID != "new-task" {
		t.Errorf("inserted_id = %q, want new-task", body.InsertedID)
	}
}

func TestTaskHandler_CreateTask_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"空ボディ", ""},
		{"壊れたJSON", `{"name":`},
		{"型違い", `{"name":"x","frequency":"seven"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withUser(newJSONRequest(http.MethodPost, "/api/tasks", tt.body), testUser())
			w := httptest.NewRecorder()
			NewTaskHandler(&mockTaskService{}).CreateTask(w, req)
			assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeInvalidRequest)
		})
	}
}

func TestTaskHandler_CreateTask_BodyTooLarge(t *testing.T) {
	large := `{"name":"` + strings.Repeat("a", maxRequestBodyBytes) + `"}`
	req := withUser(newJSONRequest(http.MethodPost, "/api/tasks", large), testUser())
	w := httptest.NewRecorder()
	NewTaskHandler(&mockTaskService{}).CreateTask(w, req)
	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeInvalidRequest)
}

// --- PATCH /api/tasks ---

func TestTaskHandler_UpdateTask(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"成功", nil, http.StatusOK, ""},
		{"存在しない", model.NewTaskNotFoundError("t1"), http.StatusNotFound, model.ErrCodeTaskNotFound},
		{"他人のタスク", model.NewForbiddenError(), http.StatusForbidden, model.ErrCodeForbidden},
		{"内部エラー", errors.New("connection refused"), http.StatusInternalServerError, model.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			svc := &mockTaskService{
				updateFn: func(ctx context.Context, userID, taskID string, input task.Input) (repository.UpdateResult, error) {
					gotID = taskID
					if tt.err != nil {
						return repository.UpdateResult{}, tt.err
					}
					return repository.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
				},
			}

			req := withUser(newJSONRequest(http.MethodPatch, "/api/tasks", `{"_id":"t1","name":"x","frequency":1}`), testUser())
			w := httptest.NewRecorder()
			NewTaskHandler(svc).UpdateTask(w, req)

			if gotID != "t1" {
				t.Errorf("taskID = %q, want t1", gotID)
			}
			if tt.wantCode != "" {
				assertErrorCode(t, w, tt.wantStatus, tt.wantCode)
				if strings.Contains(w.Body.String(), "connection refused") {
					t.Error("internal error detail must not leak")
				}
				return
			}
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			var body updateResult
			decodeBody(t, w, &body)
			if body.MatchedCount != 1 || body.ModifiedCount != 1 {
				t.Errorf("result = %+v", body)
			}
		})
	}
}

// --- DELETE /api/tasks ---

func TestTaskHandler_DeleteTasks_Success(t *testing.T) {
	var gotIDs []string
	svc := &mockTaskService{
		deleteFn: func(ctx context.Context, userID string, taskIDs []string) (int64, error) {
			gotIDs = taskIDs
			return int64(len(taskIDs)), nil
		},
	}

	req := withUser(newJSONRequest(http.MethodDelete, "/api/tasks", `["a","b"]`), testUser())
	w := httptest.NewRecorder()
	NewTaskHandler(svc).DeleteTasks(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !reflect.DeepEqual(gotIDs, []string{"a", "b"}) {
		t.Errorf("ids = %v", gotIDs)
	}
	var body deleteResult
	decodeBody(t, w, &body)
	if body.DeletedCount != 2 {
		t.Errorf("deleted_count = %d, want 2", body.DeletedCount)
	}
}

func TestTaskHandler_DeleteTasks_NotAnArray(t *testing.T) {
	req := withUser(newJSONRequest(http.MethodDelete, "/api/tasks", `{"ids":["a"]}`), testUser())
	w := httptest.NewRecorder()
	NewTaskHandler(&mockTaskService{}).DeleteTasks(w, req)
	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeInvalidRequest)
}

func TestTaskHandler_DeleteTasks_Forbidden(t *testing.T) {
	svc := &mockTaskService{
		deleteFn: func(ctx context.Context, userID string, taskIDs []string) (int64, error) {
			return 0, model.NewForbiddenError()
		},
	}

	req := withUser(newJSONRequest(http.MethodDelete, "/api/tasks", `["a"]`), testUser())
	w := httptest.NewRecorder()
	NewTaskHandler(svc).DeleteTasks(w, req)
	assertErrorCode(t, w, http.StatusForbidden, model.ErrCodeForbidden)
}
