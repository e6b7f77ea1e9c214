package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/matzehuels/cratetree/pkg/cache"
	"github.com/matzehuels/cratetree/pkg/config"
	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/observability"
	"github.com/matzehuels/cratetree/pkg/pipeline"
	"github.com/matzehuels/cratetree/pkg/session"
)

const testCrate = `{
  "@context": "https://w3id.org/ro/crate/1.1/context",
  "@graph": [
    {"@id": "ro-crate-metadata.json", "@type": "CreativeWork", "about": {"@id": "./"}},
    {"@id": "./", "@type": "Dataset", "name": "Dataset", "author": {"@id": "#alice"},
     "hasPart": [{"@id": "data.csv"}]},
    {"@id": "#alice", "@type": "Person", "name": "Alice"},
    {"@id": "data.csv", "@type": "File", "encodingFormat": "text/csv"}
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(fc, nil, logger)
	srv := New(runner, session.NewMemoryStore(time.Minute), config.Config{}, logger)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createSession(t *testing.T, ts *httptest.Server) sessionInfo {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/api/sessions", testCrate)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var info sessionInfo
	decode(t, resp, &info)
	return info
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestStats(t *testing.T) {
	t.Cleanup(observability.Reset)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := New(pipeline.NewRunner(fc, nil, logger), session.NewMemoryStore(time.Minute), config.Config{}, logger)
	srv.Stats = observability.NewRecorder(nil)
	srv.Stats.Install()
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	info := createSession(t, ts)
	do(t, http.MethodGet, ts.URL+"/api/sessions/"+info.ID+"/svg", "")
	do(t, http.MethodGet, ts.URL+"/api/sessions/"+info.ID+"/svg", "")

	var stats observability.Stats
	decode(t, do(t, http.MethodGet, ts.URL+"/api/stats", ""), &stats)
	if stats.Builds != 1 {
		t.Errorf("Builds = %d, want 1", stats.Builds)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 1 {
		t.Errorf("artifact cache hits/misses = %d/%d, want 1/1", stats.CacheHits, stats.CacheMisses)
	}
}

func TestCreateSession(t *testing.T) {
	ts := newTestServer(t)
	info := createSession(t, ts)

	if info.ID == "" {
		t.Fatal("session id is empty")
	}
	if info.Root != "./" {
		t.Errorf("Root = %q, want ./", info.Root)
	}
	if info.Records != 4 {
		t.Errorf("Records = %d, want 4", info.Records)
	}
	if len(info.Expanded) != 1 || info.Expanded[0] != "0" {
		t.Errorf("Expanded = %v, want [0]", info.Expanded)
	}

	resp := do(t, http.MethodGet, ts.URL+"/api/sessions/"+info.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	var got sessionInfo
	decode(t, resp, &got)
	if got.ID != info.ID || got.Hash != info.Hash {
		t.Errorf("get = %s/%s, want %s/%s", got.ID, got.Hash, info.ID, info.Hash)
	}
}

func TestCreateSessionWithOverrides(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/sessions?root=%23alice&expand=0.0", testCrate)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var info sessionInfo
	decode(t, resp, &info)
	if info.Root != "#alice" {
		t.Errorf("Root = %q, want #alice", info.Root)
	}
	if info.Config.Root != "#alice" {
		t.Errorf("Config.Root = %q, want #alice", info.Config.Root)
	}
}

func TestCreateSessionErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		query    string
		body     string
		wantCode errors.Code
		status   int
	}{
		{"empty body", "", "", errors.ErrCodeInvalidInput, http.StatusBadRequest},
		{"malformed JSON", "", "{", errors.ErrCodeInvalidInput, http.StatusBadRequest},
		{"missing root", "?root=nope", testCrate, errors.ErrCodeRootNotFound, http.StatusUnprocessableEntity},
		{"bad depth", "?max_depth=x", testCrate, errors.ErrCodeInvalidInput, http.StatusBadRequest},
		{"negative depth", "?expand_depth=-1", testCrate, errors.ErrCodeInvalidConfig, http.StatusBadRequest},
		{"unknown expand key", "?expand=9.9", testCrate, errors.ErrCodeNotFound, http.StatusNotFound},
		{"non-http url", "?url=file:///etc/passwd", "", errors.ErrCodeInvalidInput, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/api/sessions"+tt.query, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body errorResponse
			decode(t, resp, &body)
			if body.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Code, tt.wantCode)
			}
		})
	}
}

func TestCreateSessionFromURL(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testCrate)
	}))
	defer origin.Close()
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/sessions?url="+origin.URL+"/ro-crate-metadata.json", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var info sessionInfo
	decode(t, resp, &info)
	if info.Root != "./" {
		t.Errorf("Root = %q, want ./", info.Root)
	}
}

func TestToggle(t *testing.T) {
	ts := newTestServer(t)
	info := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + info.ID

	resp := do(t, http.MethodPost, base+"/toggle/0.2", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var toggled struct {
		Key    string `json:"key"`
		Frames []struct {
			Source  string `json:"source"`
			Changes struct {
				Nodes struct {
					Enter []struct {
						Key string `json:"key"`
					} `json:"enter"`
					Update []struct {
						Key string `json:"key"`
					} `json:"update"`
				} `json:"nodes"`
			} `json:"changes"`
		} `json:"frames"`
		State struct {
			Expanded []string `json:"expanded"`
		} `json:"state"`
	}
	decode(t, resp, &toggled)

	if len(toggled.Frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(toggled.Frames))
	}
	f := toggled.Frames[0]
	if f.Source != "0.2" {
		t.Errorf("Source = %q, want 0.2", f.Source)
	}
	if len(f.Changes.Nodes.Enter) != 1 || f.Changes.Nodes.Enter[0].Key != "0.2.0" {
		t.Errorf("entering = %+v, want [0.2.0]", f.Changes.Nodes.Enter)
	}
	if got := len(f.Changes.Nodes.Update); got != 5 {
		t.Errorf("updating = %d nodes, want the 5 shown at creation", got)
	}
	if got := strings.Join(toggled.State.Expanded, ","); got != "0,0.2" {
		t.Errorf("Expanded = %s, want 0,0.2", got)
	}

	// Leaves produce no frames.
	resp = do(t, http.MethodPost, base+"/toggle/0.0", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaf status = %d, want 200", resp.StatusCode)
	}
	decode(t, resp, &toggled)
	if len(toggled.Frames) != 0 {
		t.Errorf("leaf frames = %d, want 0", len(toggled.Frames))
	}

	resp = do(t, http.MethodPost, base+"/toggle/9.9", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown key status = %d, want 404", resp.StatusCode)
	}
}

func TestExpandCollapseAll(t *testing.T) {
	ts := newTestServer(t)
	info := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + info.ID

	var out struct {
		Expanded []string `json:"expanded"`
		Nodes    []struct {
			Key string `json:"key"`
		} `json:"nodes"`
	}

	resp := do(t, http.MethodPost, base+"/expand-all", "")
	decode(t, resp, &out)
	expanded := len(out.Nodes)
	if expanded <= 5 {
		t.Errorf("expand-all shows %d nodes, want more than the initial 5", expanded)
	}

	resp = do(t, http.MethodPost, base+"/collapse-all", "")
	out.Expanded, out.Nodes = nil, nil
	decode(t, resp, &out)
	if len(out.Nodes) != 1 || len(out.Expanded) != 0 {
		t.Errorf("collapse-all = %d nodes, %v expanded; want root only", len(out.Nodes), out.Expanded)
	}
}

func TestRenderCached(t *testing.T) {
	ts := newTestServer(t)
	info := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + info.ID

	resp := do(t, http.MethodGet, base+"/svg", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if xc := resp.Header.Get("X-Cache"); xc != "miss" {
		t.Errorf("first X-Cache = %q, want miss", xc)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<svg") {
		t.Error("body is not an SVG document")
	}

	resp = do(t, http.MethodGet, base+"/svg", "")
	if xc := resp.Header.Get("X-Cache"); xc != "hit" {
		t.Errorf("second X-Cache = %q, want hit", xc)
	}

	// A different view is a different artifact.
	do(t, http.MethodPost, base+"/toggle/0.2", "")
	resp = do(t, http.MethodGet, base+"/svg", "")
	if xc := resp.Header.Get("X-Cache"); xc != "miss" {
		t.Errorf("X-Cache after toggle = %q, want miss", xc)
	}
}

func TestRenderFormats(t *testing.T) {
	ts := newTestServer(t)
	info := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + info.ID

	tests := []struct {
		format      string
		status      int
		contentType string
		contains    string
	}{
		{"dot", http.StatusOK, "text/vnd.graphviz", "digraph"},
		{"json", http.StatusOK, "application/json", `"nodes"`},
		{"bogus", http.StatusBadRequest, "application/json", "INVALID_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := do(t, http.MethodGet, base+"/render/"+tt.format, "")
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}

func TestFrame(t *testing.T) {
	ts := newTestServer(t)
	info := createSession(t, ts)

	resp := do(t, http.MethodGet, ts.URL+"/api/sessions/"+info.ID+"/frame", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Expanded   []string        `json:"expanded"`
		Transition json.RawMessage `json:"transition"`
		Nodes      []struct {
			Key string `json:"key"`
		} `json:"nodes"`
	}
	decode(t, resp, &out)
	if len(out.Nodes) != 5 {
		t.Errorf("nodes = %d, want root and 4 fields", len(out.Nodes))
	}
	if len(out.Transition) == 0 {
		t.Error("frame should carry its transition")
	}
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t)
	info := createSession(t, ts)
	url := ts.URL + "/api/sessions/" + info.ID

	if resp := do(t, http.MethodDelete, url, ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp := do(t, http.MethodGet, url, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", resp.StatusCode)
	}
	var body errorResponse
	decode(t, resp, &body)
	if body.Code != errors.ErrCodeSessionNotFound {
		t.Errorf("code = %s, want %s", body.Code, errors.ErrCodeSessionNotFound)
	}
}
