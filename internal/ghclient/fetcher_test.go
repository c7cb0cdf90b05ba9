package ghclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spiffcs/gitgazer/internal/model"
)

// fakeGitHub serves a profile and a fixed number of repositories per page.
type fakeGitHub struct {
	profileStatus int
	pageSizes     []int // repositories returned on page i+1; pages beyond are empty
	failPage      int   // page number answered with 500, 0 for none

	profileHits atomic.Int32
	pageHits    atomic.Int32
	authHeaders chan string
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/users/{user}", func(w http.ResponseWriter, r *http.Request) {
		f.profileHits.Add(1)
		f.recordAuth(r)
		if f.profileStatus != 0 && f.profileStatus != http.StatusOK {
			w.WriteHeader(f.profileStatus)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		writeJSON(t, w, map[string]any{
			"login":        r.PathValue("user"),
			"name":         "Test User",
			"bio":          nil,
			"followers":    12,
			"following":    3,
			"public_repos": total(f.pageSizes),
			"avatar_url":   "https://avatars.example/u.png",
			"html_url":     "https://github.com/" + r.PathValue("user"),
		})
	})

	mux.HandleFunc("/users/{user}/repos", func(w http.ResponseWriter, r *http.Request) {
		f.pageHits.Add(1)
		f.recordAuth(r)
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("expected per_page=100, got %q", got)
		}
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			t.Errorf("invalid page parameter: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if page == f.failPage {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		repos := []map[string]any{}
		if page >= 1 && page <= len(f.pageSizes) {
			for i := 0; i < f.pageSizes[page-1]; i++ {
				repos = append(repos, map[string]any{
					"name":             fmt.Sprintf("repo-%d-%d", page, i),
					"language":         "Go",
					"stargazers_count": i,
					"forks_count":      1,
					"created_at":       "2021-03-04T05:06:07Z",
				})
			}
		}
		writeJSON(t, w, repos)
	})

	return mux
}

func (f *fakeGitHub) recordAuth(r *http.Request) {
	if f.authHeaders == nil {
		return
	}
	select {
	case f.authHeaders <- r.Header.Get("Authorization"):
	default:
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func total(sizes []int) int {
	n := 0
	for _, s := range sizes {
		n += s
	}
	return n
}

func testClient(t *testing.T, f *fakeGitHub, opts Options) *Client {
	t.Helper()
	server := httptest.NewServer(f.handler(t))
	t.Cleanup(server.Close)

	opts.BaseURL = server.URL
	c, err := NewClient(opts)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestFetchEmptyUsernameMakesNoRequests(t *testing.T) {
	f := &fakeGitHub{pageSizes: []int{1}}
	c := testClient(t, f, Options{})

	for _, input := range []string{"", "   ", "\t\n"} {
		result := c.Fetch(context.Background(), input)

		errResult, ok := result.(*model.ErrorResult)
		if !ok {
			t.Fatalf("Fetch(%q) returned %T, want *model.ErrorResult", input, result)
		}
		if errResult.Kind != model.ErrorEmptyInput {
			t.Errorf("Fetch(%q) kind = %q, want %q", input, errResult.Kind, model.ErrorEmptyInput)
		}
	}

	if hits := f.profileHits.Load() + f.pageHits.Load(); hits != 0 {
		t.Errorf("expected no HTTP requests, got %d", hits)
	}
}

func TestFetchProfileNotFound(t *testing.T) {
	f := &fakeGitHub{profileStatus: http.StatusNotFound}
	c := testClient(t, f, Options{})

	result := c.Fetch(context.Background(), "ghost")

	errResult, ok := result.(*model.ErrorResult)
	if !ok {
		t.Fatalf("Fetch() returned %T, want *model.ErrorResult", result)
	}
	if errResult.Message == "" {
		t.Error("expected a non-empty error message")
	}
	if errResult.Kind != model.ErrorProfileUnavailable {
		t.Errorf("kind = %q, want %q", errResult.Kind, model.ErrorProfileUnavailable)
	}
	if got := f.pageHits.Load(); got != 0 {
		t.Errorf("expected no repository requests, got %d", got)
	}
}

func TestFetchPaginatesUntilEmptyPage(t *testing.T) {
	f := &fakeGitHub{pageSizes: []int{100, 100}}
	c := testClient(t, f, Options{})

	result := c.Fetch(context.Background(), "user")

	success, ok := result.(*model.SuccessResult)
	if !ok {
		t.Fatalf("Fetch() returned %T, want *model.SuccessResult", result)
	}
	if got := len(success.Repositories); got != 200 {
		t.Errorf("expected 200 repositories, got %d", got)
	}
	if got := f.pageHits.Load(); got != 3 {
		t.Errorf("expected 3 page requests, got %d", got)
	}
	if success.Partial {
		t.Errorf("expected complete result, got partial: %s", success.PartialReason)
	}
}

func TestFetchMapsFields(t *testing.T) {
	f := &fakeGitHub{pageSizes: []int{2}}
	c := testClient(t, f, Options{})

	success, ok := c.Fetch(context.Background(), "octocat").(*model.SuccessResult)
	if !ok {
		t.Fatal("expected success result")
	}

	p := success.Profile
	if p.Login != "octocat" || p.DisplayName() != "Test User" {
		t.Errorf("unexpected profile identity %+v", p)
	}
	if p.Bio != nil {
		t.Errorf("expected nil bio, got %q", *p.Bio)
	}
	if p.Followers != 12 || p.Following != 3 || p.PublicRepos != 2 {
		t.Errorf("unexpected profile counts %+v", p)
	}
	if p.HTMLURL != "https://github.com/octocat" || p.AvatarURL == "" {
		t.Errorf("unexpected profile URLs %+v", p)
	}

	r := success.Repositories[1]
	if r.Name != "repo-1-1" || !r.HasLanguage() || *r.Language != "Go" || r.Stars != 1 || r.Forks != 1 {
		t.Errorf("unexpected repository %+v", r)
	}
	want := time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC)
	if !r.CreatedAt.Equal(want) || r.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want %v in UTC", r.CreatedAt, want)
	}
}

func TestFetchEmptyRepositoryList(t *testing.T) {
	f := &fakeGitHub{}
	c := testClient(t, f, Options{})

	success, ok := c.Fetch(context.Background(), "newbie").(*model.SuccessResult)
	if !ok {
		t.Fatal("expected success result")
	}
	if success.Repositories == nil || len(success.Repositories) != 0 {
		t.Errorf("expected empty non-nil repository slice, got %#v", success.Repositories)
	}
	if got := f.pageHits.Load(); got != 1 {
		t.Errorf("expected 1 page request, got %d", got)
	}
}

func TestFetchPageFailureReturnsPartialResult(t *testing.T) {
	f := &fakeGitHub{pageSizes: []int{100, 100, 100}, failPage: 2}
	c := testClient(t, f, Options{})

	success, ok := c.Fetch(context.Background(), "user").(*model.SuccessResult)
	if !ok {
		t.Fatal("expected success result despite failed page")
	}
	if got := len(success.Repositories); got != 100 {
		t.Errorf("expected 100 repositories from the first page, got %d", got)
	}
	if !success.Partial || success.PartialReason == "" {
		t.Errorf("expected partial result with reason, got %+v", success)
	}
	if got := f.pageHits.Load(); got != 2 {
		t.Errorf("expected pagination to stop after 2 requests, got %d", got)
	}
}

func TestFetchStopsAtMaxPages(t *testing.T) {
	f := &fakeGitHub{pageSizes: []int{100, 100, 100, 100}}
	c := testClient(t, f, Options{MaxPages: 2})

	success, ok := c.Fetch(context.Background(), "user").(*model.SuccessResult)
	if !ok {
		t.Fatal("expected success result")
	}
	if got := f.pageHits.Load(); got != 2 {
		t.Errorf("expected 2 page requests, got %d", got)
	}
	if got := len(success.Repositories); got != 200 {
		t.Errorf("expected 200 repositories, got %d", got)
	}
	if !success.Partial {
		t.Error("expected result to be marked partial at the page limit")
	}
}

func TestFetchAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"with token", "secret", "Bearer secret"},
		{"without token", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeGitHub{authHeaders: make(chan string, 10)}
			c := testClient(t, f, Options{Token: tt.token})

			if c.Authenticated() != (tt.token != "") {
				t.Errorf("Authenticated() = %v", c.Authenticated())
			}

			c.Fetch(context.Background(), "user")
			close(f.authHeaders)

			n := 0
			for got := range f.authHeaders {
				n++
				if got != tt.want {
					t.Errorf("Authorization header = %q, want %q", got, tt.want)
				}
			}
			if n != 2 {
				t.Errorf("expected 2 requests (profile + one page), got %d", n)
			}
		})
	}
}

func TestFetchReportsProgress(t *testing.T) {
	f := &fakeGitHub{pageSizes: []int{100, 50}}

	var updates []Progress
	c := testClient(t, f, Options{Progress: func(p Progress) {
		updates = append(updates, p)
	}})

	c.Fetch(context.Background(), "user")

	want := []Progress{
		{Stage: StageProfile, Expected: 150},
		{Stage: StageRepositories, Page: 1, Fetched: 100, Expected: 150},
		{Stage: StageRepositories, Page: 2, Fetched: 150, Expected: 150},
	}
	if len(updates) != len(want) {
		t.Fatalf("got %d progress updates, want %d: %+v", len(updates), len(want), updates)
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Errorf("update %d = %+v, want %+v", i, updates[i], want[i])
		}
	}
}

func TestNewClientInvalidBaseURL(t *testing.T) {
	if _, err := NewClient(Options{BaseURL: "://bad"}); err == nil {
		t.Error("expected error for invalid base URL")
	}
}
