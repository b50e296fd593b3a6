// Package server exposes an engine over HTTP. Every host operation is a
// JSON endpoint; calls on one document are serialized.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/runner"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server routes HTTP requests to an engine.
type Server struct {
	engine  *engine.Engine
	logger  *log.Logger
	prelude string

	// resolver loads requested resources from disk when set.
	resolver *runner.Runner
	rounds   int

	locks  *handleLocks
	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithEngine sets the engine documents are opened in.
func WithEngine(e *engine.Engine) Option {
	return func(s *Server) {
		s.engine = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPrelude sets the caller prelude used when a compile request names
// none.
func WithPrelude(prelude string) Option {
	return func(s *Server) {
		s.prelude = prelude
	}
}

// WithResolver makes compiles load requested sources and files from disk
// through r, compiling again at most rounds times.
func WithResolver(r *runner.Runner, rounds int) Option {
	return func(s *Server) {
		s.resolver = r
		s.rounds = rounds
	}
}

// New creates a server.
func New(opts ...Option) *Server {
	s := &Server{locks: newHandleLocks()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	if s.engine == nil {
		s.engine = engine.New(engine.WithLogger(s.logger))
	}
	s.router = s.routes()
	return s
}

// Engine returns the engine behind the server.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Post("/documents", s.handleOpen)
	r.Route("/documents/{id}", func(r chi.Router) {
		r.Use(s.serialize)

		r.Delete("/", s.handleClose)
		r.Put("/config", s.handleConfig)
		r.Post("/compile", s.handleCompile)
		r.Post("/check", s.handleCheck)
		r.Post("/hit-test", s.handleHitTest)
		r.Post("/autocomplete", s.handleAutocomplete)
		r.Post("/hover", s.handleHover)
		r.Post("/resize", s.handleResize)
		r.Post("/highlight", s.handleHighlight)
		r.Get("/pdf", s.handlePDF)
	})

	r.Put("/files/*", s.handlePutFile)
	r.Delete("/files/*", s.handleDeleteFile)

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("serving", logging.FieldAddr, ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("server stopped", logging.FieldDocuments, s.engine.Documents())
		return nil
	})
	return group.Wait()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With(logging.FieldRequestID, middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), logger)))
		logger.Debug("request",
			logging.FieldMethod, r.Method,
			logging.FieldPath, r.URL.Path,
			logging.FieldStatus, ww.Status(),
			logging.FieldDuration, time.Since(start),
		)
	})
}

// serialize holds the document's lock for the duration of the request.
// Unknown documents are rejected before a lock is created for them.
func (s *Server) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := handleParam(r)
		if _, err := s.engine.Document(h); err != nil {
			writeError(w, err)
			return
		}
		mu := s.locks.get(h)
		mu.Lock()
		defer mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func handleParam(r *http.Request) engine.Handle {
	return engine.Handle(chi.URLParam(r, "id"))
}

type handleLocks struct {
	mu    sync.Mutex
	locks map[engine.Handle]*sync.Mutex
}

func newHandleLocks() *handleLocks {
	return &handleLocks{locks: make(map[engine.Handle]*sync.Mutex)}
}

func (l *handleLocks) get(h engine.Handle) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	mu, ok := l.locks[h]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[h] = mu
	}
	return mu
}

func (l *handleLocks) drop(h engine.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, h)
}
