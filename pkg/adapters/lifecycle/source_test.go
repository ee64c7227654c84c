package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbitra/pkg/adapters/lifecycle"
	"github.com/aretw0/arbitra/pkg/core"
	"github.com/aretw0/arbitra/pkg/store"
)

type fakeWatcher struct {
	events  chan core.Event
	pattern string
	err     error
}

func (f *fakeWatcher) Watch(_ context.Context, pattern string) (<-chan core.Event, error) {
	f.pattern = pattern
	return f.events, f.err
}

func TestDocumentSource_ForwardsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &fakeWatcher{events: make(chan core.Event, 1)}
	src := lifecycle.NewDocumentSource(w, "recent*")
	require.NoError(t, src.Start(ctx))
	assert.Equal(t, "recent*", w.pattern)

	w.events <- core.Event{Type: core.EventCreate, Name: "recenttx"}
	select {
	case e := <-src.Events():
		assert.Equal(t, "CREATE recenttx", e.String())
	case <-time.After(2 * time.Second):
		t.Fatal("event not forwarded")
	}

	close(w.events)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not close")
	}
}

func TestDocumentSource_StartErrors(t *testing.T) {
	src := lifecycle.NewDocumentSource(&fakeWatcher{err: errors.New("boom")}, "*")
	assert.Error(t, src.Start(context.Background()))

	assert.Error(t, lifecycle.NewDocumentSource(nil, "*").Start(context.Background()))
}

func TestDocumentSource_StoreFeed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st := store.New(store.Config{Root: t.TempDir()})
	require.NoError(t, st.Initialize(ctx))

	src := lifecycle.NewDocumentSource(st, "peers")
	require.NoError(t, src.Start(ctx))

	require.NoError(t, st.Put(ctx, "peers", "addresses", []string{"10.0.0.1:8081"}))

	select {
	case e := <-src.Events():
		ce, ok := e.(core.Event)
		require.True(t, ok)
		assert.Equal(t, "peers", ce.Name)
	case <-ctx.Done():
		t.Fatal("no event from store")
	}
}
