package httpserver

import "time"

// Config carries the listener settings read from the environment.
type Config struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// NewFromConfig builds a Server from cfg. Zero-valued fields keep the
// package defaults; opts apply afterwards and win over cfg.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	s := New()
	if cfg.Addr != "" {
		s.http.Addr = cfg.Addr
	}
	if cfg.ReadTimeout > 0 {
		s.http.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		s.http.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.IdleTimeout > 0 {
		s.http.IdleTimeout = cfg.IdleTimeout
	}
	if cfg.ShutdownTimeout > 0 {
		s.shutdownTimeout = cfg.ShutdownTimeout
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
