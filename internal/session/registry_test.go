package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyspark/internal/controller"
	"storyspark/internal/history"
	"storyspark/internal/story"
	"storyspark/internal/testutil"
)

func newRegistry(t *testing.T, max int, gw *testutil.BlockingGateway) *Registry {
	t.Helper()
	store := history.NewStore(history.NewMemoryBackend(), "", nil)
	r, err := NewRegistry(max, func() *controller.Controller {
		return controller.New(gw, store, story.DefaultCatalog(), nil)
	}, nil)
	require.NoError(t, err)
	return r
}

func TestAcquireCreatesAndReuses(t *testing.T) {
	r := newRegistry(t, 4, testutil.NewBlockingGateway())

	id, c := r.Acquire("")
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	id2, c2 := r.Acquire(id)
	assert.Equal(t, id, id2)
	assert.Same(t, c, c2)

	id3, c3 := r.Acquire("not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", id3)
	assert.NotSame(t, c, c3)

	known := uuid.NewString()
	id4, _ := r.Acquire(known)
	assert.Equal(t, known, id4, "well-formed ids from a client are honored")
	assert.Equal(t, 3, r.Len())
}

func TestLookupAndDrop(t *testing.T) {
	r := newRegistry(t, 4, testutil.NewBlockingGateway())
	id, c := r.Acquire("")

	got, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Same(t, c, got)

	assert.True(t, r.Drop(id))
	_, ok = r.Lookup(id)
	assert.False(t, ok)
	assert.False(t, r.Drop(id))
}

func TestEvictionCancelsInFlight(t *testing.T) {
	gw := testutil.NewBlockingGateway()
	r := newRegistry(t, 1, gw)
	_, c := r.Acquire("")

	done := make(chan error, 1)
	go func() { done <- c.Generate(context.Background(), testutil.Config(story.ModeAsk)) }()
	<-gw.Started

	r.Acquire("")
	assert.ErrorIs(t, <-done, controller.ErrDiscarded)
	assert.False(t, c.Snapshot().Loading)
	assert.Equal(t, 1, r.Len())
}

func TestCloseCancelsAll(t *testing.T) {
	gw := testutil.NewBlockingGateway()
	r := newRegistry(t, 4, gw)
	_, c := r.Acquire("")
	done := make(chan error, 1)
	go func() { done <- c.Generate(context.Background(), testutil.Config(story.ModeAgent)) }()
	<-gw.Started

	r.Close()
	assert.ErrorIs(t, <-done, controller.ErrDiscarded)
	assert.Zero(t, r.Len())
}
