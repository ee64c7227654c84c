package store

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string     `json:"path"`
	Namespace     string     `json:"namespace"`
	ReadOnly      bool       `json:"read_only"`
	LockedNames   int        `json:"locked_names"`
	Writes        uint64     `json:"writes"`
	WatcherActive bool       `json:"watcher_active"`
	Watchers      int        `json:"watchers"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:          s.Path,
		Namespace:     s.config.Namespace,
		ReadOnly:      s.config.ReadOnly,
		LockedNames:   s.locks.len(),
		Writes:        s.writes,
		WatcherActive: s.watchers > 0,
		Watchers:      s.watchers,
		LastWrite:     s.lastWrite,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

// trackWatcher counts running watchers; delta is +1 on start, -1 on exit.
func (s *Store) trackWatcher(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers += delta
}
