// Package typed provides type-safe views over store documents.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbitra/pkg/store"
)

// Appender is the subset of a list document a typed list needs.
// *store.ListDocument satisfies it.
type Appender interface {
	Append(ctx context.Context, record any) error
	Records(ctx context.Context) ([]json.RawMessage, error)
}

var _ Appender = (*store.ListDocument)(nil)

// List wraps a list document so that records go in and come out as T.
type List[T any] struct {
	doc Appender
}

// NewList creates a typed wrapper around an existing list document.
func NewList[T any](doc Appender) *List[T] {
	return &List[T]{doc: doc}
}

// OpenList resolves name in s as a list document of T.
func OpenList[T any](s *store.Store, name string) (*List[T], error) {
	doc, err := s.List(name)
	if err != nil {
		return nil, err
	}
	return NewList[T](doc), nil
}

// Append pushes record to the end of the list.
func (l *List[T]) Append(ctx context.Context, record T) error {
	return l.doc.Append(ctx, record)
}

// All returns every record in insertion order.
func (l *List[T]) All(ctx context.Context) ([]T, error) {
	raw, err := l.doc.Records(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("record %d: unmarshal to target type failed: %w", i, err)
		}
		result = append(result, v)
	}
	return result, nil
}

// Get reads key from the keyed document name and converts it to T. The zero
// value of T with ok=false is returned when the key is absent.
func Get[T any](ctx context.Context, s *store.Store, name, key string) (value T, ok bool, err error) {
	raw, err := s.Get(ctx, name, key, nil)
	if err != nil || raw == nil {
		return value, false, err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return value, false, fmt.Errorf("value marshal failed: %w", err)
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, fmt.Errorf("unmarshal to target type failed: %w", err)
	}
	return value, true, nil
}
