package arbitra

import (
	"context"

	"github.com/aretw0/arbitra/pkg/store"
	"github.com/aretw0/arbitra/pkg/typed"
)

// TypedList is a list document whose records are T.
type TypedList[T any] = typed.List[T]

// OpenTypedList resolves name in s as a list document of T.
func OpenTypedList[T any](s *store.Store, name string) (*TypedList[T], error) {
	return typed.OpenList[T](s, name)
}

// GetTyped reads key from the keyed document name as T.
func GetTyped[T any](ctx context.Context, s *store.Store, name, key string) (T, bool, error) {
	return typed.Get[T](ctx, s, name, key)
}
