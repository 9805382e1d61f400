package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Server owns one net/http server plus its drain behavior. Configure it
// through options at construction; once Run is called the listener
// settings are fixed.
type Server struct {
	http            http.Server
	shutdownTimeout time.Duration
	log             *slog.Logger
	onStart         []func(*slog.Logger)
	onStop          []func(*slog.Logger)

	drainOnce sync.Once
}

// New builds a Server listening on :8080 with a 5s drain window unless
// options say otherwise.
func New(opts ...Option) *Server {
	s := &Server{
		http:            http.Server{Addr: ":8080"},
		shutdownTimeout: 5 * time.Second,
		log:             slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves handler until ctx is cancelled, SIGINT/SIGTERM arrives, or
// the listener dies. On cancellation or signal it drains in-flight
// requests before returning. A nil handler answers 404 to everything.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	s.http.Handler = handler

	ctx, unregister := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer unregister()

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.http.ListenAndServe() }()

	for _, hook := range s.onStart {
		hook(s.log)
	}

	select {
	case <-ctx.Done():
		if err := s.Shutdown(context.Background()); err != nil {
			return err
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(ErrStart, err)
		}
		return nil
	}
}

// Shutdown stops accepting connections and waits for in-flight requests
// up to the configured drain window. Repeat calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.drainOnce.Do(func() {
		drainCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
		err = s.http.Shutdown(drainCtx)
		for _, hook := range s.onStop {
			hook(s.log)
		}
	})

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
