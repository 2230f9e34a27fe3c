package sandbox

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/linksquared/linksquared-go/pkg/api/apitest"
	"github.com/linksquared/linksquared-go/pkg/logger"
)

// Server exposes a Backend over HTTP.
type Server struct {
	cfg     *config
	backend *apitest.Backend

	mu    sync.Mutex
	srv   *http.Server
	addr  string
	ready chan struct{}
}

// New returns a server for backend. It does not listen until Run.
func New(backend *apitest.Backend, opts ...Option) *Server {
	cfg := &config{
		addr:            "127.0.0.1:8787",
		basePath:        "/api/v1/sdk",
		shutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Discard()
	}
	return &Server{cfg: cfg, backend: backend, ready: make(chan struct{})}
}

// Backend returns the served backend.
func (s *Server) Backend() *apitest.Backend { return s.backend }

// Handler routes the health probe and the backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Mount(s.cfg.basePath, s.backend.Handler())
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ALIVE"))
}

// Ready is closed once the server accepts connections.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound address, or "" before Ready.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the API base URL clients should use, or "" before Ready.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr + s.cfg.basePath + "/"
}

// Run listens and serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return ErrRunning
	}
	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.writeTimeout,
	}
	s.srv = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	close(s.ready)

	log := s.cfg.logger
	log.InfoContext(ctx, "sandbox listening", slog.String("url", s.URL()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(ErrStart, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Join(ErrShutdown, err)
		}
		log.InfoContext(shutdownCtx, "sandbox stopped")
		return nil
	})
	return g.Wait()
}
