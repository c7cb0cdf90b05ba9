package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spiffcs/gitgazer/internal/cache"
	"github.com/spiffcs/gitgazer/internal/model"
	"github.com/spiffcs/gitgazer/internal/service"
)

type stubFetcher struct {
	calls atomic.Int32
}

func str(s string) *string { return &s }

func (f *stubFetcher) Fetch(_ context.Context, username string) model.Result {
	f.calls.Add(1)
	switch strings.TrimSpace(username) {
	case "":
		return model.EmptyInput()
	case "ghost":
		return model.ProfileUnavailable()
	}
	return &model.SuccessResult{
		Profile: model.Profile{Login: username, PublicRepos: 3},
		Repositories: []model.Repository{
			{Name: "a", Language: str("Go"), Stars: 5, CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Name: "b", Language: str("Go"), Stars: 20, CreatedAt: time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)},
			{Name: "c", Stars: 10, CreatedAt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *stubFetcher) {
	t.Helper()
	f := &stubFetcher{}
	analyzer := service.New(f, cache.NewMemoryStore(time.Hour, nil), service.Options{})
	return New(analyzer, Options{Version: "test"}), f
}

func get(t *testing.T, s *Server, path string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON body: %v\n%s", err, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body HealthResponse
	decode(t, rec, &body)
	if body.Status != "healthy" || body.Version != "test" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestProfile(t *testing.T) {
	s, f := newTestServer(t)

	rec := get(t, s, "/api/v1/profiles/octocat")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", rec.Header().Get("X-Cache"))
	}

	var body struct {
		Profile      model.Profile `json:"profile"`
		Repositories []struct {
			Name string `json:"name"`
		} `json:"repositories"`
	}
	decode(t, rec, &body)
	if body.Profile.Login != "octocat" || len(body.Repositories) != 3 || body.Repositories[0].Name != "b" {
		t.Errorf("unexpected body %+v", body)
	}

	rec = get(t, s, "/api/v1/profiles/OctoCat")
	if rec.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second request X-Cache = %q, want HIT", rec.Header().Get("X-Cache"))
	}
	if got := f.calls.Load(); got != 1 {
		t.Errorf("expected one fetch, got %d", got)
	}
}

func TestProfileNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/v1/profiles/ghost")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body struct {
		Error model.ErrorResult `json:"error"`
	}
	decode(t, rec, &body)
	if body.Error.Message != model.MessageProfileUnavailable {
		t.Errorf("unexpected error body %+v", body)
	}
}

func TestProfileBlankUsername(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/v1/profiles/%20")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestViews(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		path string
		key  string
		want int
	}{
		{"/api/v1/profiles/octocat/languages", "languages", 1},
		{"/api/v1/profiles/octocat/timeline", "timeline", 2},
		{"/api/v1/profiles/octocat/repositories", "repositories", 3},
		{"/api/v1/profiles/octocat/top", "topStarred", 3},
		{"/api/v1/profiles/octocat/top?n=2", "topStarred", 2},
		{"/api/v1/profiles/octocat/top?n=0", "topStarred", 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var body map[string]json.RawMessage
			decode(t, rec, &body)

			var items []json.RawMessage
			if err := json.Unmarshal(body[tt.key], &items); err != nil {
				t.Fatalf("field %q is not a list: %s", tt.key, body[tt.key])
			}
			if len(items) != tt.want {
				t.Errorf("%s has %d items, want %d", tt.key, len(items), tt.want)
			}
		})
	}
}

func TestTopInvalidN(t *testing.T) {
	s, f := newTestServer(t)
	for _, n := range []string{"abc", "-1"} {
		rec := get(t, s, "/api/v1/profiles/octocat/top?n="+n)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("n=%s: status = %d, want 400", n, rec.Code)
		}
	}
	if f.calls.Load() != 0 {
		t.Error("invalid parameters must not trigger a fetch")
	}
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/health")
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("expected generated UUID, got %q", rec.Header().Get(RequestIDHeader))
	}

	id := uuid.NewString()
	rec = get(t, s, "/health", RequestIDHeader, id)
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Errorf("request ID = %q, want %q", got, id)
	}

	rec = get(t, s, "/health", RequestIDHeader, "not-a-uuid")
	if got := rec.Header().Get(RequestIDHeader); got == "not-a-uuid" {
		t.Error("invalid request IDs must be replaced")
	}
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/health", "Origin", "https://example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
