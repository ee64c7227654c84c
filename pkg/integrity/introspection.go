package integrity

import (
	"time"

	"github.com/aretw0/introspection"
)

// ServerState exposes internal state for observability.
type ServerState struct {
	Endpoint    string     `json:"endpoint"`
	Addr        string     `json:"addr"`
	Listening   bool       `json:"listening"`
	Active      int        `json:"active_connections"`
	Accepted    uint64     `json:"accepted_connections"`
	Refused     uint64     `json:"refused_connections"`
	MaxConns    int        `json:"max_connections"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	MaxFrameLen int        `json:"max_frame_size,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Server) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ServerState{
		Endpoint:    s.kind,
		Addr:        s.config.Addr,
		Active:      s.limit.CurrentCount(),
		Accepted:    s.accepted,
		Refused:     s.refused,
		MaxConns:    s.config.MaxConnections,
		StartedAt:   s.started,
		MaxFrameLen: s.config.MaxFrameSize,
	}
	if s.listener != nil {
		st.Listening = s.serving
		st.Addr = s.listener.Addr().String()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Server) ComponentType() string {
	return "integrity-" + s.kind
}

var _ introspection.Introspectable = (*Server)(nil)
var _ introspection.Component = (*Server)(nil)
