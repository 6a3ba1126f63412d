package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akislov/book-comb/app/book"
	"github.com/akislov/book-comb/app/state"
	"github.com/akislov/book-comb/app/storage"
	"github.com/akislov/book-comb/app/tasks"
)

type stubScheduler struct {
	enqueued []tasks.TaskInterface
	err      error
}

func (s *stubScheduler) Start() {}
func (s *stubScheduler) Stop()  {}
func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, task)
	return nil
}

func newTestServer(t *testing.T, apiKey string, scheduler *stubScheduler) (*gin.Engine, storage.Storage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage()
	libraryStore := state.NewLibraryStore(store)
	syncState := state.NewSyncStateStore(store)
	changeLog := state.NewChangeLog(store, libraryStore)

	handler := NewHandler(libraryStore, syncState, changeLog, store, scheduler, nil, 24)
	return NewServer(handler, apiKey), store
}

func seedLibrary(t *testing.T, store storage.Storage) {
	t.Helper()
	completed, _ := time.Parse("2006-01-02", "2024-03-01")
	library := book.Library{
		{
			RawBook: book.RawBook{Title: "Dune", Author: "Frank Herbert", Source: book.SourceGoodreads,
				Status: book.StatusRead, Rating: 5, CompletedDate: &completed},
			ID:      "dune-frank-herbert",
			Sources: []book.Source{book.SourceGoodreads},
		},
		{
			RawBook: book.RawBook{Title: "Hyperion", Author: "Dan Simmons", Source: book.SourceManual,
				Status: book.StatusWantToRead},
			ID:      "hyperion-dan-simmons",
			Sources: []book.Source{book.SourceManual},
		},
	}
	if err := state.NewLibraryStore(store).Save(library); err != nil {
		t.Fatalf("Failed to seed library: %v", err)
	}
}

func doRequest(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetHealth(t *testing.T) {
	r, store := newTestServer(t, "", &stubScheduler{})
	seedLibrary(t, store)

	w := doRequest(r, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if body["books"] != float64(2) {
		t.Errorf("Expected 2 books in health response, got %v", body["books"])
	}
}

func TestGetBooks(t *testing.T) {
	r, store := newTestServer(t, "", &stubScheduler{})
	seedLibrary(t, store)

	w := doRequest(r, "GET", "/books", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Count int                   `json:"count"`
		Books []book.NormalizedBook `json:"books"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if body.Count != 2 {
		t.Errorf("Expected 2 books, got %d", body.Count)
	}
}

func TestGetBooksFilters(t *testing.T) {
	r, store := newTestServer(t, "", &stubScheduler{})
	seedLibrary(t, store)

	w := doRequest(r, "GET", "/books?source=goodreads", nil)
	var bySource struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &bySource); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if bySource.Count != 1 {
		t.Errorf("Expected 1 goodreads book, got %d", bySource.Count)
	}

	w = doRequest(r, "GET", "/books?status=want-to-read", nil)
	var byStatus struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &byStatus); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if byStatus.Count != 1 {
		t.Errorf("Expected 1 want-to-read book, got %d", byStatus.Count)
	}
}

func TestGetStats(t *testing.T) {
	r, store := newTestServer(t, "", &stubScheduler{})
	seedLibrary(t, store)

	w := doRequest(r, "GET", "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if _, ok := body["overview"]; !ok {
		t.Error("Expected stats response to contain overview section")
	}
}

func TestGetChangesInvalidLimit(t *testing.T) {
	r, _ := newTestServer(t, "", &stubScheduler{})

	w := doRequest(r, "GET", "/changes?limit=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid limit, got %d", w.Code)
	}
}

func TestGetChanges(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStorage()
	libraryStore := state.NewLibraryStore(store)
	changeLog := state.NewChangeLog(store, libraryStore)

	library := book.Library{
		{RawBook: book.RawBook{Title: "Dune", Author: "Frank Herbert"}, ID: "dune-frank-herbert"},
	}
	changeLog.DetectNew(library)

	handler := NewHandler(libraryStore, state.NewSyncStateStore(store), changeLog, store, &stubScheduler{}, nil, 24)
	r := NewServer(handler, "")

	w := doRequest(r, "GET", "/changes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Count    int               `json:"count"`
		NewBooks []state.ChangeEntry `json:"new_books"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if body.Count != 1 || body.NewBooks[0].Title != "Dune" {
		t.Errorf("Expected one change entry for Dune, got %+v", body)
	}
}

func TestAuthMiddleware(t *testing.T) {
	r, _ := newTestServer(t, "secret", &stubScheduler{})

	w := doRequest(r, "GET", "/api/sync-state", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got %d", w.Code)
	}

	w = doRequest(r, "GET", "/api/sync-state", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got %d", w.Code)
	}

	w = doRequest(r, "GET", "/api/sync-state", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with valid key, got %d", w.Code)
	}

	w = doRequest(r, "GET", "/api/sync-state", map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with bearer token, got %d", w.Code)
	}
}

func TestAPIDisabledWithoutKey(t *testing.T) {
	r, _ := newTestServer(t, "", &stubScheduler{})

	w := doRequest(r, "GET", "/api/sync-state", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when API is disabled, got %d", w.Code)
	}
}

func TestAPISync(t *testing.T) {
	scheduler := &stubScheduler{}
	r, _ := newTestServer(t, "secret", scheduler)

	w := doRequest(r, "POST", "/api/sync", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if len(scheduler.enqueued) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(scheduler.enqueued))
	}
	if scheduler.enqueued[0].GetType() != tasks.TaskTypeSyncLibrary {
		t.Errorf("Expected sync library task, got %s", scheduler.enqueued[0].GetType())
	}
}

func TestAPISyncQueueFull(t *testing.T) {
	scheduler := &stubScheduler{err: errors.New("task queue is full")}
	r, _ := newTestServer(t, "secret", scheduler)

	w := doRequest(r, "POST", "/api/sync", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestAPIRegenerateInsights(t *testing.T) {
	scheduler := &stubScheduler{}
	r, _ := newTestServer(t, "secret", scheduler)

	w := doRequest(r, "POST", "/api/insights/regenerate", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if len(scheduler.enqueued) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(scheduler.enqueued))
	}
	if scheduler.enqueued[0].GetType() != tasks.TaskTypeGenerateInsights {
		t.Errorf("Expected generate insights task, got %s", scheduler.enqueued[0].GetType())
	}
}

func TestAPIRegenerateInsightsQueueFull(t *testing.T) {
	scheduler := &stubScheduler{err: errors.New("task queue is full")}
	r, _ := newTestServer(t, "secret", scheduler)

	w := doRequest(r, "POST", "/api/insights/regenerate", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestAPIGetInsights(t *testing.T) {
	r, store := newTestServer(t, "secret", &stubScheduler{})

	w := doRequest(r, "GET", "/api/insights", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 before any insights exist, got %d", w.Code)
	}

	doc := []byte(`{"personality": "An avid reader."}`)
	if err := store.Write(storage.DocInsights, doc); err != nil {
		t.Fatalf("Failed to seed insights: %v", err)
	}

	w = doRequest(r, "GET", "/api/insights", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != string(doc) {
		t.Errorf("Expected stored insights document, got %s", w.Body.String())
	}
}
