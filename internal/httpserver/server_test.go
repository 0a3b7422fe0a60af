package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keepmark/internal/domain"
	"github.com/MrSnakeDoc/keepmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keepmark/internal/logger"
	"github.com/MrSnakeDoc/keepmark/internal/metadata"
	"github.com/MrSnakeDoc/keepmark/internal/sources/users"
	redisstore "github.com/MrSnakeDoc/keepmark/internal/store/redis"
)

const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
)

const testPage = `<!doctype html>
<html><head>
<title> The Go Programming Language </title>
<meta name="description" content="Build simple, secure, scalable systems with Go">
<link rel="icon" href="/favicon.ico">
</head><body><h1>Go</h1></body></html>`

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testEnv struct {
	handler http.Handler
	pages   *httptest.Server
	trigger chan struct{}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.New("error", false)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, testPage)
	}))
	t.Cleanup(pages.Close)

	dir, err := users.NewDirectory(users.UsersConfig{Users: []users.UserEntry{
		{ID: "alice", Tokens: []string{aliceToken}},
		{ID: "bob", Tokens: []string{bobToken}},
	}})
	if err != nil {
		t.Fatalf("NewDirectory() error = %v", err)
	}

	clock := &stepClock{now: time.Now().Add(-time.Hour)}
	trigger := make(chan struct{}, 1)

	d := deps.Deps{
		Logger:         log,
		StartTime:      time.Now(),
		Version:        "test",
		TimeNow:        clock.Now,
		CORSOrigins:    []string{"*"},
		RateBurst:      1000,
		RatePerMin:     1000,
		Store:          redisstore.NewStore(client),
		Extractor:      metadata.NewExtractor(metadata.Options{Timeout: 2 * time.Second}, log),
		Users:          dir,
		RefreshTrigger: trigger,
	}

	return &testEnv{
		handler: NewRouter(5*time.Second, d),
		pages:   pages,
		trigger: trigger,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	expectStatus(t, rec, status)
	got := decode[map[string]string](t, rec)
	if got["error"] != msg {
		t.Errorf("error = %q, want %q", got["error"], msg)
	}
}

func TestRootBanner(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "Personal Notes API is running..." {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestProbes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec); got["status"] != "ok" {
		t.Errorf("healthz status = %v", got["status"])
	}

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec); got["ready"] != true {
		t.Errorf("readyz ready = %v", got["ready"])
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/notes", "/api/bookmarks", "/api/stats", "/api/metadata?url=x"} {
		expectError(t, env.do(t, http.MethodGet, path, "", nil), http.StatusUnauthorized, "Unauthorized")
		expectError(t, env.do(t, http.MethodGet, path, "wrong", nil), http.StatusUnauthorized, "Unauthorized")
	}
}

func TestNotesLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/notes", aliceToken, map[string]any{
		"title":   "Groceries",
		"content": "milk, eggs",
		"tags":    []string{"home", "home", " todo "},
	})
	expectStatus(t, rec, http.StatusCreated)
	note := decode[domain.Note](t, rec)
	if note.ID == "" || note.User != "alice" || note.IsFavorite {
		t.Fatalf("created note = %+v", note)
	}
	if diff := cmp.Diff([]string{"home", "todo"}, note.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	expectError(t, env.do(t, http.MethodPost, "/api/notes", aliceToken, map[string]any{"content": "no title"}),
		http.StatusBadRequest, "title is required")

	path := "/api/notes/" + note.ID

	rec = env.do(t, http.MethodGet, path, aliceToken, nil)
	expectStatus(t, rec, http.StatusOK)

	expectError(t, env.do(t, http.MethodGet, path, bobToken, nil), http.StatusNotFound, "Not found")

	rec = env.do(t, http.MethodPut, path, aliceToken, map[string]any{"content": "milk, eggs, bread"})
	expectStatus(t, rec, http.StatusOK)
	updated := decode[domain.Note](t, rec)
	if updated.Title != "Groceries" || updated.Content != "milk, eggs, bread" {
		t.Errorf("updated note = %+v, untouched fields must be kept", updated)
	}
	if !updated.UpdatedAt.After(note.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want after %v", updated.UpdatedAt, note.UpdatedAt)
	}

	rec = env.do(t, http.MethodPatch, path+"/favorite", aliceToken, nil)
	expectStatus(t, rec, http.StatusOK)
	if !decode[domain.Note](t, rec).IsFavorite {
		t.Error("favorite toggle did not set the flag")
	}
	rec = env.do(t, http.MethodPatch, path+"/favorite", aliceToken, nil)
	if decode[domain.Note](t, rec).IsFavorite {
		t.Error("second favorite toggle did not clear the flag")
	}

	expectError(t, env.do(t, http.MethodPatch, "/api/notes/nope/favorite", aliceToken, nil), http.StatusNotFound, "Not found")
	expectError(t, env.do(t, http.MethodDelete, path, bobToken, nil), http.StatusNotFound, "Not found")

	rec = env.do(t, http.MethodDelete, path, aliceToken, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec); got["message"] != "Deleted successfully" {
		t.Errorf("delete message = %q", got["message"])
	}
	expectError(t, env.do(t, http.MethodGet, path, aliceToken, nil), http.StatusNotFound, "Not found")
}

func TestListNotesFilters(t *testing.T) {
	env := newTestEnv(t)

	create := func(title, content string, tags []string, favorite bool) {
		t.Helper()
		rec := env.do(t, http.MethodPost, "/api/notes", aliceToken, map[string]any{
			"title": title, "content": content, "tags": tags, "isFavorite": favorite,
		})
		expectStatus(t, rec, http.StatusCreated)
	}
	create("Go tips", "use gofmt", []string{"go"}, false)
	create("Shopping", "buy GO-KART", []string{"home"}, true)
	create("Reading", "a book about c++", []string{"books"}, false)
	env.do(t, http.MethodPost, "/api/notes", bobToken, map[string]any{"title": "Go for bob"})

	titles := func(path string) []string {
		t.Helper()
		rec := env.do(t, http.MethodGet, path, aliceToken, nil)
		expectStatus(t, rec, http.StatusOK)
		var out []string
		for _, n := range decode[[]domain.Note](t, rec) {
			out = append(out, n.Title)
		}
		return out
	}

	tests := []struct {
		path string
		want []string
	}{
		{path: "/api/notes", want: []string{"Reading", "Shopping", "Go tips"}},
		{path: "/api/notes?q=go", want: []string{"Shopping", "Go tips"}},
		{path: "/api/notes?q=%5Ego", want: []string{"Go tips"}},
		{path: "/api/notes?q=c%2B%2B", want: []string{"Reading"}},
		{path: "/api/notes?tags=home,books", want: []string{"Reading", "Shopping"}},
		{path: "/api/notes?favorites=true", want: []string{"Shopping"}},
		{path: "/api/notes?since=week", want: []string{"Reading", "Shopping", "Go tips"}},
		{path: "/api/notes?q=nothing-matches", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, titles(tt.path)); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
		})
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/notes?since=decade", aliceToken, nil), http.StatusBadRequest)
}

func TestCreateBookmarkEnrichment(t *testing.T) {
	env := newTestEnv(t)
	pageURL := env.pages.URL + "/page"

	t.Run("no title scrapes the page", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/bookmarks", aliceToken, map[string]any{"url": pageURL})
		expectStatus(t, rec, http.StatusCreated)
		b := decode[domain.Bookmark](t, rec)
		if b.Title != "The Go Programming Language" {
			t.Errorf("Title = %q", b.Title)
		}
		if b.Description != "Build simple, secure, scalable systems with Go" {
			t.Errorf("Description = %q", b.Description)
		}
		if b.Favicon != env.pages.URL+"/favicon.ico" {
			t.Errorf("Favicon = %q", b.Favicon)
		}
		if b.MetadataCheckedAt == nil {
			t.Error("MetadataCheckedAt not set")
		}
	})

	t.Run("caller description wins", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/bookmarks", aliceToken, map[string]any{
			"url": pageURL, "description": "mine",
		})
		expectStatus(t, rec, http.StatusCreated)
		b := decode[domain.Bookmark](t, rec)
		if b.Title != "The Go Programming Language" || b.Description != "mine" {
			t.Errorf("bookmark = {%q %q}", b.Title, b.Description)
		}
	})

	t.Run("caller title skips scraping", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/bookmarks", aliceToken, map[string]any{
			"url": pageURL, "title": "Custom",
		})
		expectStatus(t, rec, http.StatusCreated)
		b := decode[domain.Bookmark](t, rec)
		if b.Title != "Custom" || b.Description != "" || b.MetadataCheckedAt != nil {
			t.Errorf("bookmark = %+v, want caller values only", b)
		}
	})

	t.Run("unreachable page falls back to Untitled", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/bookmarks", aliceToken, map[string]any{
			"url": env.pages.URL + "/missing",
		})
		expectStatus(t, rec, http.StatusCreated)
		if b := decode[domain.Bookmark](t, rec); b.Title != "Untitled" {
			t.Errorf("Title = %q, want Untitled", b.Title)
		}
	})

	t.Run("invalid url", func(t *testing.T) {
		for _, u := range []string{"", "example.com", "ftp://example.com"} {
			expectError(t, env.do(t, http.MethodPost, "/api/bookmarks", aliceToken, map[string]any{"url": u}),
				http.StatusBadRequest, "Invalid URL")
		}
	})
}

func TestBookmarkUpdateAndFavorite(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/bookmarks", aliceToken, map[string]any{
		"url": "https://go.dev", "title": "Go", "tags": []string{"lang"},
	})
	expectStatus(t, rec, http.StatusCreated)
	b := decode[domain.Bookmark](t, rec)
	path := "/api/bookmarks/" + b.ID

	rec = env.do(t, http.MethodPut, path, aliceToken, map[string]any{"tags": []string{"lang", "google"}})
	expectStatus(t, rec, http.StatusOK)
	if diff := cmp.Diff([]string{"lang", "google"}, decode[domain.Bookmark](t, rec).Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	expectError(t, env.do(t, http.MethodPut, path, aliceToken, map[string]any{"url": "nope"}),
		http.StatusBadRequest, "Invalid URL")

	rec = env.do(t, http.MethodPatch, path+"/favorite", aliceToken, nil)
	expectStatus(t, rec, http.StatusOK)
	if !decode[domain.Bookmark](t, rec).IsFavorite {
		t.Error("favorite toggle did not set the flag")
	}

	rec = env.do(t, http.MethodGet, "/api/bookmarks?q=GO.DEV", aliceToken, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]domain.Bookmark](t, rec); len(got) != 1 {
		t.Errorf("search by url returned %d bookmarks, want 1", len(got))
	}

	expectError(t, env.do(t, http.MethodGet, path, bobToken, nil), http.StatusNotFound, "Not found")
	expectStatus(t, env.do(t, http.MethodDelete, path, aliceToken, nil), http.StatusOK)
}

func TestMetadataPreview(t *testing.T) {
	env := newTestEnv(t)

	expectError(t, env.do(t, http.MethodGet, "/api/metadata", aliceToken, nil), http.StatusBadRequest, "url is required")

	rec := env.do(t, http.MethodGet, "/api/metadata?url="+env.pages.URL+"/page", aliceToken, nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[metadata.Result](t, rec)
	want := metadata.Result{
		Title:       "The Go Programming Language",
		Description: "Build simple, secure, scalable systems with Go",
		Favicon:     env.pages.URL + "/favicon.ico",
		URL:         env.pages.URL + "/page",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/notes", aliceToken, map[string]any{"title": "a", "tags": []string{"go"}, "isFavorite": true})
	env.do(t, http.MethodPost, "/api/bookmarks", aliceToken, map[string]any{"url": "https://go.dev", "title": "Go", "tags": []string{"go", "web"}})
	env.do(t, http.MethodPost, "/api/notes", bobToken, map[string]any{"title": "bob's"})

	rec := env.do(t, http.MethodGet, "/api/stats", aliceToken, nil)
	expectStatus(t, rec, http.StatusOK)
	stats := decode[domain.Stats](t, rec)

	if stats.TotalNotes != 1 || stats.TotalBookmarks != 1 || stats.TotalItems != 2 {
		t.Errorf("totals = %d/%d/%d, want 1/1/2", stats.TotalNotes, stats.TotalBookmarks, stats.TotalItems)
	}
	if stats.Favorites != 1 || stats.FavoritePercentage != 50 {
		t.Errorf("favorites = %d (%d%%), want 1 (50%%)", stats.Favorites, stats.FavoritePercentage)
	}
	if len(stats.MostUsedTags) == 0 || stats.MostUsedTags[0] != (domain.TagCount{Tag: "go", Count: 2}) {
		t.Errorf("MostUsedTags = %+v", stats.MostUsedTags)
	}
	if len(stats.RecentActivity) != 2 || stats.RecentActivity[0].Type != "bookmark" {
		t.Errorf("RecentActivity = %+v", stats.RecentActivity)
	}
}

func TestRefreshTrigger(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(t, http.MethodPost, "/api/bookmarks/refresh", aliceToken, nil), http.StatusAccepted)
	rec := env.do(t, http.MethodPost, "/api/bookmarks/refresh", aliceToken, nil)
	expectStatus(t, rec, http.StatusTooManyRequests)
	if !strings.Contains(rec.Body.String(), "already in progress") {
		t.Errorf("body = %s", rec.Body.String())
	}

	<-env.trigger
	expectStatus(t, env.do(t, http.MethodPost, "/api/bookmarks/refresh", aliceToken, nil), http.StatusAccepted)
}

func TestInvalidJSONBody(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+aliceToken)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	expectError(t, rec, http.StatusBadRequest, "Invalid request body")
}
