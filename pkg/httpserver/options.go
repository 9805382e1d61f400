package httpserver

import (
	"log/slog"
	"time"
)

// Option mutates a Server during New.
type Option func(*Server)

// WithAddr sets the listen address, e.g. ":8080" or "127.0.0.1:0".
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.http.Addr = addr
		}
	}
}

// WithReadTimeout bounds reading a full request, headers included.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.http.ReadTimeout = d }
}

// WithWriteTimeout bounds writing a response.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) { s.http.WriteTimeout = d }
}

// WithIdleTimeout bounds how long a keep-alive connection may sit idle.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.http.IdleTimeout = d }
}

// WithShutdownTimeout sets the drain window for graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithLogger sets the logger handed to start and stop hooks. Without it
// hooks get a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStartHook runs h once the listener goroutine is launched.
func WithStartHook(h func(*slog.Logger)) Option {
	return func(s *Server) {
		if h != nil {
			s.onStart = append(s.onStart, h)
		}
	}
}

// WithStopHook runs h after the server has drained.
func WithStopHook(h func(*slog.Logger)) Option {
	return func(s *Server) {
		if h != nil {
			s.onStop = append(s.onStop, h)
		}
	}
}
