// Package server exposes collapsible tree sessions over HTTP.
//
// A client uploads a JSON-LD document, receives a session id, and then
// drives the session's layout controller: every toggle answers with the
// frames the interaction produced, and the current view can be fetched in
// any export format. Rendered artifacts go through the pipeline runner's
// cache, so identical views of identical documents are rendered once.
//
// # Routes
//
//	GET    /healthz
//	GET    /api/stats
//	POST   /api/sessions                      body: JSON-LD, or ?url=
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/svg
//	GET    /api/sessions/{id}/render/{format}
//	GET    /api/sessions/{id}/frame
//	POST   /api/sessions/{id}/toggle/{key}
//	POST   /api/sessions/{id}/expand-all
//	POST   /api/sessions/{id}/collapse-all
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/config"
	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/httputil"
	"github.com/matzehuels/cratetree/pkg/observability"
	"github.com/matzehuels/cratetree/pkg/pipeline"
	"github.com/matzehuels/cratetree/pkg/render/frame"
	"github.com/matzehuels/cratetree/pkg/session"
	"github.com/matzehuels/cratetree/pkg/tree"
)

// contentTypes maps export formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:      "image/svg+xml",
	pipeline.FormatGraphviz: "image/svg+xml",
	pipeline.FormatDOT:      "text/vnd.graphviz",
	pipeline.FormatJSON:     "application/json",
	pipeline.FormatPNG:      "image/png",
	pipeline.FormatPDF:      "application/pdf",
}

// Server handles the HTTP API.
type Server struct {
	Runner   *pipeline.Runner
	Sessions *session.MemoryStore
	Config   config.Config
	Logger   *log.Logger

	// Stats, when set, backs GET /api/stats.
	Stats *observability.Recorder
}

// New creates a server. cfg is the base configuration of new sessions;
// requests may override root and depth settings per session.
func New(runner *pipeline.Runner, sessions *session.MemoryStore, cfg config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{Runner: runner, Sessions: sessions, Config: cfg.WithDefaults(), Logger: logger}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/stats", s.handleStats)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/svg", s.handleSVG)
			r.Get("/render/{format}", s.handleRender)
			r.Get("/frame", s.handleFrame)
			r.Post("/toggle/{key}", s.handleToggle)
			r.Post("/expand-all", s.handleExpandAll)
			r.Post("/collapse-all", s.handleCollapseAll)
		})
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// =============================================================================
// Responses
// =============================================================================

// sessionInfo describes a session.
type sessionInfo struct {
	ID        string        `json:"id"`
	Root      string        `json:"root"`
	Hash      string        `json:"hash"`
	Records   int           `json:"records"`
	Nodes     int           `json:"nodes"`
	Expanded  []string      `json:"expanded"`
	Config    config.Config `json:"config"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// toggleResponse lists the frames one toggle produced.
type toggleResponse struct {
	Key    string            `json:"key"`
	Frames []json.RawMessage `json:"frames"`
	State  collapse.State    `json:"state"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.Logger.Debug("request rejected", "path", r.URL.Path, "code", code)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Sessions.Len()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var stats observability.Stats
	if s.Stats != nil {
		stats = s.Stats.Stats()
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.sessionConfig(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.Options{Source: r.URL.Query().Get("url"), Logger: s.Logger}
	if opts.Source == "" {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, httputil.MaxDocumentSize))
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
			return
		}
		opts.Document = body
	} else if !httputil.IsURL(opts.Source) {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "url must be http or https: %q", opts.Source))
		return
	}

	data, _, err := s.Runner.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.Runner.Build(r.Context(), data, cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Config = cfg
	opts.Expand = splitKeys(r.URL.Query().Get("expand"))
	c, err := pipeline.NewController(doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.Sessions.Create(doc, c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.Logger.Info("session created", "id", sess.ID, "root", doc.RootID(), "nodes", tree.Size(doc.Tree))
	writeJSON(w, http.StatusCreated, s.info(sess))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.info(sess))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.session(w, r); !ok {
		return
	}
	s.Sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, pipeline.FormatSVG)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, chi.URLParam(r, "format"))
}

// render writes the session's current view in format.
func (s *Server) render(w http.ResponseWriter, r *http.Request, format string) {
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var data []byte
	var hit bool
	err := sess.Do(func(c *collapse.Controller) error {
		f := c.Render(tree.RootKey)
		artifacts, cached, err := s.Runner.Render(r.Context(), c, f, sess.Document.Hash, []string{format})
		data, hit = artifacts[format], cached
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("X-Cache", cacheStatus(hit))
	writeRaw(w, contentTypes[format], data)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var data []byte
	err := sess.Do(func(c *collapse.Controller) error {
		var err error
		data, err = frame.RenderJSON(c.Render(tree.RootKey), frame.WithJSONState(c.State()), frame.WithJSONTransitions())
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeRaw(w, contentTypes[pipeline.FormatJSON], data)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	resp := toggleResponse{Key: key, Frames: []json.RawMessage{}}
	err := sess.Do(func(c *collapse.Controller) error {
		frames, err := c.Toggle(key)
		if err != nil {
			return err
		}
		for _, f := range frames {
			data, err := frame.RenderJSON(f, frame.WithJSONTransitions())
			if err != nil {
				return err
			}
			resp.Frames = append(resp.Frames, data)
		}
		resp.State = c.State()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExpandAll(w http.ResponseWriter, r *http.Request) {
	s.applyAll(w, r, (*collapse.Controller).ExpandAll)
}

func (s *Server) handleCollapseAll(w http.ResponseWriter, r *http.Request) {
	s.applyAll(w, r, (*collapse.Controller).CollapseAll)
}

// applyAll runs a bulk mutation and answers with its single frame.
func (s *Server) applyAll(w http.ResponseWriter, r *http.Request, fn func(*collapse.Controller) collapse.Frame) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var data []byte
	err := sess.Do(func(c *collapse.Controller) error {
		var err error
		data, err = frame.RenderJSON(fn(c), frame.WithJSONState(c.State()), frame.WithJSONTransitions())
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeRaw(w, contentTypes[pipeline.FormatJSON], data)
}

// =============================================================================
// Helpers
// =============================================================================

// session looks up the session named in the path, writing the error
// response when it does not exist.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) info(sess *session.Session) sessionInfo {
	info := sessionInfo{
		ID:        sess.ID,
		Root:      sess.Document.RootID(),
		Hash:      sess.Document.Hash,
		Records:   sess.Document.Graph.Len(),
		Nodes:     tree.Size(sess.Document.Tree),
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt(),
	}
	_ = sess.Do(func(c *collapse.Controller) error {
		info.Expanded = c.State().Expanded
		info.Config = c.Config()
		return nil
	})
	return info
}

// sessionConfig applies the per-session query overrides to the base config.
func (s *Server) sessionConfig(r *http.Request) (config.Config, error) {
	cfg := s.Config
	q := r.URL.Query()
	if v := q.Get("root"); v != "" {
		cfg.Root = v
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"max_depth", &cfg.MaxDepth},
		{"expand_depth", &cfg.ExpandDepth},
	}
	for _, p := range ints {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return config.Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "query parameter %s", p.name)
		}
		*p.dst = n
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// splitKeys splits a comma-separated key list, dropping blanks.
func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
