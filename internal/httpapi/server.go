package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/optionwheel/engine/internal/artifactstore"
)

// ServerConfig configures the listening address and timeouts: local-only
// bind, 10s read/write timeouts by default.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Cadence      time.Duration
	Cooldown     time.Duration
}

// DefaultServerConfig returns the read-only surface's local-only defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		Cadence:      15 * time.Minute,
		Cooldown:     60 * time.Second,
	}
}

// Server wraps the mux router and handlers with the middleware chain and
// lifecycle methods: request ID, structured logging, CORS, JSON content
// type.
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	log      zerolog.Logger
	config   ServerConfig
}

// NewServer builds a Server bound to store for every read route and runFn
// (may be nil) for the evaluate route.
func NewServer(config ServerConfig, store *artifactstore.Store, runFn RunFunc, log zerolog.Logger) *Server {
	router := mux.NewRouter()
	handlers := NewHandlers(store, runFn, config.Cadence, config.Cooldown)

	s := &Server{router: router, handlers: handlers, log: log, config: config}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.jsonAcceptMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/ui/decision/latest", s.handlers.DecisionLatest).Methods(http.MethodGet)
	api.HandleFunc("/ui/universe", s.handlers.Universe).Methods(http.MethodGet)
	api.HandleFunc("/ui/symbol-diagnostics", s.handlers.SymbolDiagnostics).Methods(http.MethodGet)
	api.HandleFunc("/market-status", s.handlers.MarketStatus).Methods(http.MethodGet)
	api.HandleFunc("/ops/status", s.handlers.OpsStatus).Methods(http.MethodGet)
	api.HandleFunc("/ops/evaluate", s.handlers.Evaluate).Methods(http.MethodPost)
	api.HandleFunc("/ops/evaluate/{id}", s.handlers.EvaluateStatus).Methods(http.MethodGet)
	api.HandleFunc("/eval/latest-run", s.handlers.EvalLatestRun).Methods(http.MethodGet)
	api.HandleFunc("/eval/symbol/{symbol}", s.handlers.EvalSymbol).Methods(http.MethodGet)
	api.HandleFunc("/system/health", s.handlers.Health).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRequestID, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonAcceptMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting read-only http server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the server's bind address.
func (s *Server) Addr() string {
	return s.server.Addr
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
