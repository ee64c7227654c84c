// Package lifecycle exposes store change feeds as lifecycle sources.
package lifecycle

import (
	"context"
	"errors"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/arbitra/pkg/core"
)

// Watcher is the subset of *store.Store a document source needs.
type Watcher interface {
	Watch(ctx context.Context, pattern string) (<-chan core.Event, error)
}

type documentSource struct {
	watcher Watcher
	pattern string
	out     chan lifecycle.Event
}

// NewDocumentSource creates a lifecycle.Source that emits a core.Event for
// every change to a document whose name matches pattern. The feed starts on
// Start and ends when its context is done.
func NewDocumentSource(w Watcher, pattern string) lifecycle.Source {
	return &documentSource{
		watcher: w,
		pattern: pattern,
		out:     make(chan lifecycle.Event),
	}
}

func (s *documentSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *documentSource) Start(ctx context.Context) error {
	if s.watcher == nil {
		return errors.New("document source has no watcher")
	}
	events, err := s.watcher.Watch(ctx, s.pattern)
	if err != nil {
		return err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
