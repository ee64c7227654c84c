package ledger

import (
	"log/slog"
	"time"

	"github.com/aretw0/arbitra/pkg/integrity"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock replaces time.Now. Tests use it to pin transaction times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithOrigin sets the "from" field written into outgoing message headers.
func WithOrigin(origin string) Option {
	return func(s *Service) {
		s.origin = origin
	}
}

// WithClient sets the client used by Submit.
func WithClient(c *integrity.Client) Option {
	return func(s *Service) {
		s.client = c
	}
}
