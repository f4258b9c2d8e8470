// internal/httpserver/server.go
//
// HTTP server wiring for the Wordle practice backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Session endpoints under /session: key input, submit, mode and row changes.
//   - WebSocket event stream at /session/ws.
//   - One game.Session per device, created lazily from the record store and
//     dropped again after IdleTimeout without input or open event streams.
//
// Notes:
//   - CORS is origin‑aware and credentials‑enabled (so cookies work).
//   - Input for one device is serialized; the game session itself is not
//     safe for concurrent use.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/unlimited-server/internal/config"
	"github.com/robalobadob/wordle/apps/unlimited-server/internal/game"
	"github.com/robalobadob/wordle/apps/unlimited-server/internal/store"
	"github.com/robalobadob/wordle/apps/unlimited-server/internal/words"
)

// Server bundles router, word source, record store and live sessions.
type Server struct {
	r      *chi.Mux
	cfg    *config.Config
	words  *words.Source
	store  store.Store
	tokens *deviceTokens
	clock  func() time.Time
	idle   time.Duration

	mu       sync.RWMutex              // guards sessions
	sessions map[string]*deviceSession // keyed by device id
}

// IdleTimeout is how long a device session stays live without input.
const IdleTimeout = 30 * time.Minute

// deviceSession serializes input for one device.
type deviceSession struct {
	mu sync.Mutex
	s  *game.Session

	lastUsed atomic.Int64 // unix nanos of the last lookup or input
	streams  atomic.Int32 // open websocket connections
}

// Option customizes a Server.
type Option func(*Server)

// WithClock overrides the clock handed to new sessions.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.clock = now }
}

// WithIdleTimeout overrides IdleTimeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idle = d }
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg *config.Config, src *words.Source, st store.Store, opts ...Option) (*Server, error) {
	tokens, err := newDeviceTokens(cfg.Device.Secret, cfg.Device.CookieName, cfg.Device.Expires, cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		words:    src,
		store:    st,
		tokens:   tokens,
		clock:    time.Now,
		idle:     IdleTimeout,
		sessions: make(map[string]*deviceSession),
	}
	for _, o := range opts {
		o(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(accessLog)
	s.r.Use(chimw.Recoverer)  // recover from panics
	s.r.Use(jsonContentType)  // default JSON responses
	s.r.Use(s.corsFromConfig) // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordle-unlimited","endpoints":["/health","GET /session","POST /session/{key,delete,submit,event,mode,rows}","GET /session/ws"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		a, g := s.words.Stats()
		_ = json.NewEncoder(w).Encode(map[string]int{"answers": a, "allowed": g})
	})

	s.mountSession(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})

	return s, nil
}

// Start serves HTTP on addr until ctx is cancelled, then drains open
// requests for up to five seconds.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	go s.sweepLoop(ctx)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.r }

// session returns the live session for deviceID, creating it from the
// stored record on first use.
func (s *Server) session(ctx context.Context, deviceID string) (*deviceSession, error) {
	s.mu.RLock()
	ds, ok := s.sessions[deviceID]
	if ok {
		s.touch(ds)
	}
	s.mu.RUnlock()
	if ok {
		return ds, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ds, ok := s.sessions[deviceID]; ok {
		s.touch(ds)
		return ds, nil
	}
	logger := log.With().Str("device", deviceID).Logger()
	gs, err := game.NewSession(ctx, s.words, store.Bind(s.store, deviceID), game.Options{
		Rows:    s.cfg.Game.Rows,
		MinRows: s.cfg.Game.MinRows,
		MaxRows: s.cfg.Game.MaxRows,
		Scoring: s.cfg.Game.Scoring,
		Clock:   s.clock,
		Logger:  &logger,
	})
	if err != nil {
		return nil, err
	}
	ds = &deviceSession{s: gs}
	s.touch(ds)
	s.sessions[deviceID] = ds
	logger.Info().Bool("firstRun", gs.FirstRun()).Str("mode", string(gs.Mode())).Msg("session started")
	return ds, nil
}

// touch marks ds as used now.
func (s *Server) touch(ds *deviceSession) {
	ds.lastUsed.Store(s.clock().UnixNano())
}

// sweepIdle drops sessions idle for longer than the idle timeout and
// returns how many were dropped. Sessions with an open event stream are
// kept; dropped ones are rebuilt from the record store on the next request.
func (s *Server) sweepIdle() int {
	cutoff := s.clock().Add(-s.idle).UnixNano()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, ds := range s.sessions {
		if ds.streams.Load() > 0 || ds.lastUsed.Load() > cutoff {
			continue
		}
		delete(s.sessions, id)
		n++
	}
	return n
}

// sweepLoop runs sweepIdle until ctx is cancelled.
func (s *Server) sweepLoop(ctx context.Context) {
	t := time.NewTicker(max(s.idle/2, time.Second))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.sweepIdle(); n > 0 {
				log.Debug().Int("dropped", n).Int("live", s.liveSessions()).Msg("idle sessions swept")
			}
		}
	}
}

// liveSessions returns the number of sessions held in memory.
func (s *Server) liveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one zerolog line per request.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("reqId", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})

// corsFromConfig enables credentialed CORS for the configured client origin.
func (s *Server) corsFromConfig(next http.Handler) http.Handler {
	origin := s.cfg.Server.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", deviceTokenHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- errors ------------------------------------

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error body with status.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorRes{Error: code, Message: msg})
}

// logger returns the request-scoped logger.
func logger(r *http.Request) *zerolog.Logger { return hlog.FromRequest(r) }
