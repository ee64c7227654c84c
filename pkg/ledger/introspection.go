package ledger

import (
	"time"

	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Origin       string     `json:"origin"`
	Submitted    uint64     `json:"submitted"`
	Received     uint64     `json:"received"`
	Rejected     uint64     `json:"rejected"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ServiceState{
		Origin:       s.origin,
		Submitted:    s.submitted,
		Received:     s.received,
		Rejected:     s.rejected,
		LastActivity: s.last,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "ledger"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
