package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/odshub/internal/apperr"
	"github.com/starford/odshub/internal/landing"
	"github.com/starford/odshub/internal/models"
	"github.com/starford/odshub/internal/pageservice"
	"github.com/starford/odshub/internal/render"
	"github.com/starford/odshub/internal/search"
	"github.com/starford/odshub/internal/sse"
	"github.com/starford/odshub/internal/storage"
	"github.com/starford/odshub/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(store storage.Store) *pageservice.Service {
	logger := quietLogger()
	return pageservice.NewService(store, render.New(), landing.NewLoader(store, "", logger), pageservice.Config{}, logger)
}

// testEnv sets up a temp content tree, service, session registry and router.
func testEnv(t *testing.T) http.Handler {
	t.Helper()
	files := map[string]string{"assets/logo.svg": "<svg></svg>"}
	for k, v := range testutil.SampleContent {
		files[k] = v
	}
	_, store := testutil.ContentTree(t, files)
	return testEnvWithStore(t, store)
}

func testEnvWithStore(t *testing.T, store storage.Store) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := newService(store)
	return NewRouter(svc, Routes{
		Sessions: svc.NewRegistry(ctx, time.Minute),
		Assets:   NewAssetHandler(store, ""),
	})
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v (body %q)", err, w.Body.String())
	}
	return v
}

// statusStore fails every call with a store status.
type statusStore struct{ status int }

func (s statusStore) Read(_ context.Context, p string) ([]byte, error) {
	return nil, apperr.FromStatus(s.status, p)
}

func (s statusStore) List(_ context.Context, p string) ([]models.Entry, error) {
	return nil, apperr.FromStatus(s.status, p)
}

func TestGetPage(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/pages/examples/genomic-data")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	page := decode[Page](t, w)
	if page.Title != "Genomic Data" {
		t.Errorf("title = %q", page.Title)
	}
	if !strings.Contains(page.HTML, `id="overview"`) {
		t.Errorf("html missing heading id: %s", page.HTML)
	}
	if !strings.Contains(page.HTML, "chroma") {
		t.Errorf("html missing highlighted code: %s", page.HTML)
	}
	if len(page.Headings) != 1 || page.Headings[0].ID != "overview" {
		t.Errorf("headings = %+v", page.Headings)
	}
}

func TestGetPage_EncodedSlash(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/pages/about%2Fteam")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestGetPage_NotModified(t *testing.T) {
	router := testEnv(t)

	first := get(t, router, "/pages/about/team")
	etag := first.Header().Get("ETag")

	req := httptest.NewRequest(http.MethodGet, "/pages/about/team", nil)
	req.Header.Set("If-None-Match", etag)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("304 should have no body, got %q", w.Body.String())
	}
}

func TestGetPage_NotFound(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/pages/about/missing")
	if w.Code != http.StatusNotFound {
		t.Errorf("get missing = %d, want 404", w.Code)
	}
}

func TestGetPage_BadSlug(t *testing.T) {
	router := testEnv(t)

	for _, target := range []string{"/pages/", "/pages/about", "/pages/about/..%2F..%2Fsecret"} {
		w := get(t, router, target)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", target, w.Code)
		}
	}
}

func TestGetPage_UpstreamFailure(t *testing.T) {
	router := testEnvWithStore(t, statusStore{status: 500})

	w := get(t, router, "/pages/about/team")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	body := decode[errResponse](t, w)
	if body.Error != "failed to fetch content (500)" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestListCollections(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/collections")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[CollectionsResponse](t, w)
	if len(resp.Collections) != 2 || resp.Collections[1].Title != "Examples" {
		t.Errorf("collections = %+v", resp.Collections)
	}
}

func TestListCollections_UpstreamFailureIsEmpty(t *testing.T) {
	router := testEnvWithStore(t, statusStore{status: 503})

	w := get(t, router, "/collections")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"collections":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestListCollection(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/collections/examples")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[CollectionResponse](t, w)
	if resp.Title != "Examples" || len(resp.Posts) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Posts[0].Slug != "examples/genomic-data" || resp.Posts[0].Title != "Genomic Data" {
		t.Errorf("first post = %+v", resp.Posts[0])
	}
}

func TestLanding(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/landing")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[LandingResponse](t, w)
	if resp.Source != landing.SourceStore || resp.Config.Hero.Title != "Data Sharing Hub" {
		t.Errorf("landing = %+v", resp)
	}
}

func TestLanding_FallsBackToDefault(t *testing.T) {
	router := testEnvWithStore(t, statusStore{status: 404})

	resp := decode[LandingResponse](t, get(t, router, "/landing"))
	if resp.Source != landing.SourceDefault {
		t.Errorf("source = %q, want default", resp.Source)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/search?q=genomic")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[SearchResponse](t, w)
	if len(resp.Results) == 0 {
		t.Fatal("expected results")
	}
	top := resp.Results[0]
	if top.Name != "genomic-data.md" || top.DisplayTitle != "Genomic Data" || top.Link != "/post/examples/genomic-data" {
		t.Errorf("top result = %+v", top)
	}
	if len(resp.Groups) == 0 || resp.Groups[0].Title != "Examples" {
		t.Errorf("groups = %+v", resp.Groups)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/search")
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestSearchBlankQuery(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/search?q=")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[SearchResponse](t, w)
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("results = %#v, want empty", resp.Results)
	}
}

func TestSearch_UpstreamFailure(t *testing.T) {
	router := testEnvWithStore(t, statusStore{status: 500})

	w := get(t, router, "/search?q=x")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decode[SearchResponse](t, w)
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("results = %#v, want empty list", resp.Results)
	}
	if resp.Groups == nil || len(resp.Groups) != 0 {
		t.Errorf("groups = %#v, want empty list", resp.Groups)
	}
}

func TestSessionLifecycle(t *testing.T) {
	router := testEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/search/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("start status = %d", w.Code)
	}
	started := decode[SessionResponse](t, w)
	if started.ID == "" {
		t.Fatal("missing session id")
	}

	// Poll until the corpus is ready.
	var resp SessionResponse
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp = decode[SessionResponse](t, get(t, router, "/search/sessions/"+started.ID+"?q=imaging"))
		if resp.State != search.StateLoading || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if resp.State != search.StateReady {
		t.Fatalf("state = %q, want ready", resp.State)
	}
	if resp.Records != 3 || len(resp.Results) == 0 || resp.Results[0].Name != "imaging.md" {
		t.Errorf("resp = %+v", resp)
	}

	req = httptest.NewRequest(http.MethodDelete, "/search/sessions/"+started.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("close status = %d", w.Code)
	}

	if w := get(t, router, "/search/sessions/"+started.ID); w.Code != http.StatusNotFound {
		t.Errorf("query closed session = %d, want 404", w.Code)
	}
}

func TestSession_ErrorState(t *testing.T) {
	router := testEnvWithStore(t, statusStore{status: 500})

	req := httptest.NewRequest(http.MethodPost, "/search/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	id := decode[SessionResponse](t, w).ID

	var resp SessionResponse
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp = decode[SessionResponse](t, get(t, router, "/search/sessions/"+id+"?q=x"))
		if resp.State != search.StateLoading || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if resp.State != search.StateError || !resp.Empty || len(resp.Results) != 0 {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(resp.Error, "failed to fetch content (500)") {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestSession_Unknown(t *testing.T) {
	router := testEnv(t)

	if w := get(t, router, "/search/sessions/nope"); w.Code != http.StatusNotFound {
		t.Errorf("get unknown = %d, want 404", w.Code)
	}
	req := httptest.NewRequest(http.MethodDelete, "/search/sessions/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete unknown = %d, want 404", w.Code)
	}
}

func TestSessionsDisabled(t *testing.T) {
	_, store := testutil.ContentTree(t, testutil.SampleContent)
	router := NewRouter(newService(store), Routes{})

	req := httptest.NewRequest(http.MethodPost, "/search/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound && w.Code != http.StatusMethodNotAllowed {
		t.Errorf("sessions without registry = %d", w.Code)
	}
}

// Asset tests.

func TestServeAsset(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/assets/logo.svg")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	if w.Body.String() != "<svg></svg>" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestServeAsset_Rejected(t *testing.T) {
	router := testEnv(t)

	tests := []struct {
		target string
		want   int
	}{
		{"/assets/missing.png", http.StatusNotFound},
		{"/assets/..%2Fconfig%2Fhome.json", http.StatusBadRequest},
		{"/assets/script.js", http.StatusBadRequest},
		{"/assets/.hidden.png", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := get(t, router, tt.target); w.Code != tt.want {
			t.Errorf("%s = %d, want %d", tt.target, w.Code, tt.want)
		}
	}
}

func TestHighlightCSS(t *testing.T) {
	router := testEnv(t)

	w := get(t, router, "/assets/highlight.css?style=monokai")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), ".chroma") {
		t.Errorf("css missing .chroma rules")
	}
}

// SSE tests.

func TestSSEEvents_MountedWhenConfigured(t *testing.T) {
	_, store := testutil.ContentTree(t, testutil.SampleContent)
	broker := sse.NewBroker(10 * time.Millisecond)
	defer broker.Close()
	router := NewRouter(newService(store), Routes{Events: broker})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for broker.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	broker.PublishContentChange(sse.ContentChange{Kind: "updated", Path: "pages/about/team.md", Link: "/post/about/team"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(w.Body.String(), "event: content.updated") {
		t.Errorf("stream = %q", w.Body.String())
	}
}

func TestSSEEvents_NotMountedByDefault(t *testing.T) {
	router := testEnv(t)

	if w := get(t, router, "/events"); w.Code != http.StatusNotFound {
		t.Errorf("events without broker = %d, want 404", w.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/landing", nil))

	out := buf.String()
	if !strings.Contains(out, `"status":418`) || !strings.Contains(out, `"path":"/landing"`) {
		t.Errorf("log line = %s", out)
	}
}
