package entitlement

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithLogger sets the structured logger. The service logs nothing when no
// logger is provided.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the wall-clock source. Derived status and trial
// windows are pure functions of this clock, which keeps time-dependent
// behavior testable with fixed times.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}
