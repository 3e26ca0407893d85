package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetglass/fleetglass/pkg/cache"
	"github.com/fleetglass/fleetglass/pkg/config"
	"github.com/fleetglass/fleetglass/pkg/hook"
	"github.com/fleetglass/fleetglass/pkg/log"
	"github.com/fleetglass/fleetglass/pkg/metrics"
	"github.com/fleetglass/fleetglass/pkg/session"
	"github.com/fleetglass/fleetglass/pkg/types"
)

// server exposes cache state, control endpoints and metrics over HTTP.
// Dashboard views are its clients: they watch a family over SSE and
// flip modes through the control endpoints.
type server struct {
	engine *hook.Engine
	sess   *session.Manager
	http   *http.Server
	logger zerolog.Logger
}

func newServer(cfg *config.Config, engine *hook.Engine, sess *session.Manager) *server {
	s := &server{
		engine: engine,
		sess:   sess,
		logger: log.WithComponent("http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /statusz", s.handleStatusz)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/state/{family}", s.handleState)
	mux.HandleFunc("GET /api/v1/watch/{family}", s.handleWatch)
	mux.HandleFunc("POST /api/v1/refetch", s.handleRefetch)
	mux.HandleFunc("POST /api/v1/demo", s.handleDemo)
	mux.HandleFunc("POST /api/v1/background", s.handleBackground)
	mux.HandleFunc("POST /api/v1/session", s.handleLogin)
	mux.HandleFunc("DELETE /api/v1/session", s.handleLogout)

	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func scopeFromQuery(r *http.Request) types.Scope {
	return types.Scope{
		Cluster:   r.URL.Query().Get("cluster"),
		Namespace: r.URL.Query().Get("namespace"),
	}.Normalize()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"agent":  s.engine.AgentAlive(),
		"demo":   s.engine.DemoActive(),
	})
}

func (s *server) handleStatusz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version": Version,
		"demo":    s.engine.DemoActive(),
		"agent":   s.engine.AgentAlive(),
		"cells":   s.engine.Snapshot(),
	})
}

// stateWaitTimeout bounds how long a /state request waits for a cold
// key's first fetch before answering with whatever state it has.
const stateWaitTimeout = 10 * time.Second

// handleState mounts the key, waits out the initial blocking load if
// there is one, and answers with the snapshot. Closing the hook after
// the fetch completed keeps the data cached for the next request.
func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	h, err := s.engine.Acquire(r.PathValue("family"), scopeFromQuery(r))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	defer h.Close()

	writeJSON(w, http.StatusOK, s.waitLoaded(r.Context(), h))
}

// waitLoaded blocks until the hook leaves its loading state, the
// request dies, or the wait budget runs out. Warm keys return
// immediately: the subscription fires with the current state first.
func (s *server) waitLoaded(ctx context.Context, h *hook.Hook) cache.State {
	ctx, cancel := context.WithTimeout(ctx, stateWaitTimeout)
	defer cancel()

	loaded := make(chan cache.State, 1)
	unsub := h.Subscribe(func(st cache.State) {
		if st.IsLoading {
			return
		}
		select {
		case loaded <- st:
		default:
		}
	})
	defer unsub()

	select {
	case st := <-loaded:
		return st
	case <-ctx.Done():
		return h.Snapshot()
	}
}

// handleWatch holds a hook open and streams every state change over
// SSE until the client disconnects. This is the dashboard's live view.
func (s *server) handleWatch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	h, err := s.engine.Acquire(r.PathValue("family"), scopeFromQuery(r))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	defer h.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	states := make(chan cache.State, 16)
	unsub := h.Subscribe(func(st cache.State) {
		select {
		case states <- st:
		default:
			// Slow consumer: drop intermediate states, the next one
			// carries the full snapshot anyway.
		}
	})
	defer unsub()

	for {
		select {
		case st := <-states:
			data, err := json.Marshal(st)
			if err != nil {
				return
			}
			fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *server) handleRefetch(w http.ResponseWriter, r *http.Request) {
	s.engine.RefetchAll(r.URL.Query().Get("target"))
	w.WriteHeader(http.StatusAccepted)
}

func (s *server) handleDemo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.engine.SetDemoMode(req.Enabled)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleBackground(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Backgrounded bool `json:"backgrounded"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.engine.SetBackgrounded(req.Backgrounded)
	w.WriteHeader(http.StatusNoContent)
}

// handleLogin stores a bearer token. The demo sentinel token switches
// the engine into demo mode; any other token switches it out.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("token must not be empty"))
		return
	}
	if err := s.sess.SetToken(req.Token); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.engine.SetDemoMode(s.sess.IsDemo())
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.engine.SetDemoMode(false)
	w.WriteHeader(http.StatusNoContent)
}
