package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

func newTestServer(t *testing.T) (http.Handler, *service.TaskStore) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := service.NewTaskStore(context.Background(), nil,
		service.WithIDGenerator(service.SequenceIDs("t")),
		service.WithLogger(log),
	)
	return New(store, model.DefaultCategories, log), store
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func doJSON(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexRendersFilteredList(t *testing.T) {
	h, store := newTestServer(t)
	ctx := context.Background()
	open, _ := store.Add(ctx, "Buy milk", "Shopping", model.PriorityHigh)
	done, _ := store.Add(ctx, "File taxes", "Personal", model.PriorityLow)
	store.Toggle(ctx, done.ID)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?filter=pending", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, open.Title) || strings.Contains(body, done.Title) {
		t.Fatalf("pending view should list only open tasks:\n%s", body)
	}
	if !strings.Contains(body, "/tasks/"+open.ID+"/toggle") {
		t.Fatalf("missing toggle action for %s", open.ID)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	body = rec.Body.String()
	if !strings.Contains(body, open.Title) || !strings.Contains(body, done.Title) {
		t.Fatalf("default view should list all tasks")
	}
	if !strings.Contains(body, `class="done"`) {
		t.Fatalf("completed task should be struck through")
	}
}

func TestSubmitTaskForm(t *testing.T) {
	h, store := newTestServer(t)

	rec := postForm(h, "/tasks", url.Values{"title": {" Buy milk "}, "category": {"Shopping"}, "priority": {"high"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	tasks := store.Filter(model.FilterAll)
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Priority != model.PriorityHigh {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	rec = postForm(h, "/tasks", url.Values{"title": {"buy milk"}, "category": {"Shopping"}, "priority": {"low"}})
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "already exists in this category") {
		t.Fatalf("expected duplicate alert, got %d", rec.Code)
	}

	rec = postForm(h, "/tasks", url.Values{"title": {"Walk"}, "category": {""}, "priority": {"low"}})
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Please fill all fields") {
		t.Fatalf("expected missing field alert, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `value="Walk"`) {
		t.Fatalf("rejected form should keep the typed title")
	}
	if got := len(store.Filter(model.FilterAll)); got != 1 {
		t.Fatalf("rejected submissions changed the list: %d tasks", got)
	}
}

func TestSubmitTaskFormStoreFailure(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := service.NewTaskStore(context.Background(), nil,
		service.WithIDGenerator(func() string { return "" }),
		service.WithLogger(log),
	)
	h := New(store, model.DefaultCategories, log)

	rec := postForm(h, "/tasks", url.Values{
		"title":    {"Renew passport"},
		"category": {"Personal"},
		"priority": {"high"},
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, alertAddFailed) {
		t.Fatalf("missing failure alert:\n%s", body)
	}
	if strings.Contains(body, alertMissingFields) {
		t.Fatalf("store failure reported as missing fields")
	}
}

func TestToggleAndDeleteForms(t *testing.T) {
	h, store := newTestServer(t)
	task, _ := store.Add(context.Background(), "Stretch", "Health", model.PriorityMedium)

	rec := postForm(h, "/tasks/"+task.ID+"/toggle", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("toggle: status %d", rec.Code)
	}
	if got, _ := store.Get(task.ID); !got.IsCompleted {
		t.Fatalf("task should be completed")
	}

	rec = postForm(h, "/tasks/missing/toggle", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("toggle of absent id should still redirect, got %d", rec.Code)
	}

	rec = postForm(h, "/tasks/"+task.ID+"/delete", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if _, ok := store.Get(task.ID); ok {
		t.Fatalf("task should be gone")
	}
}

func TestAPICreateListToggleDelete(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(h, http.MethodPost, "/api/tasks", `{"title":"Buy milk","category":"shopping","priority":"High"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var created model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID != "t-1" || created.Category != "Shopping" || created.Priority != model.PriorityHigh || created.IsCompleted {
		t.Fatalf("unexpected created task %+v", created)
	}

	rec = doJSON(h, http.MethodPost, "/api/tasks", `{"title":"BUY MILK","category":"Shopping","priority":"low"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: status %d", rec.Code)
	}
	rec = doJSON(h, http.MethodPost, "/api/tasks", `{"title":"","category":"Shopping","priority":"low"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing title: status %d", rec.Code)
	}
	rec = doJSON(h, http.MethodPost, "/api/tasks", `{"title":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("broken body: status %d", rec.Code)
	}

	rec = doJSON(h, http.MethodPost, "/api/tasks/t-1/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status %d", rec.Code)
	}

	rec = doJSON(h, http.MethodGet, "/api/tasks?filter=completed", "")
	var list tasksResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Filter != model.FilterCompleted || len(list.Tasks) != 1 || !list.Tasks[0].IsCompleted {
		t.Fatalf("unexpected completed list %+v", list)
	}

	rec = doJSON(h, http.MethodGet, "/api/tasks?filter=pending", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Tasks) != 0 {
		t.Fatalf("pending list should be empty, got %d", len(list.Tasks))
	}

	if rec = doJSON(h, http.MethodDelete, "/api/tasks/t-1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rec = doJSON(h, http.MethodDelete, "/api/tasks/t-1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status %d", rec.Code)
	}
	if rec = doJSON(h, http.MethodPost, "/api/tasks/t-1/toggle", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("toggle of deleted task: status %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", rec.Code)
	}
}
