package history

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("history: not found")

// Backend persists opaque named entries.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Close() error
}

// lazyInit runs a setup step until it succeeds once. A failed attempt is
// retried by the next caller.
type lazyInit struct {
	mu   sync.Mutex
	done bool
}

func (l *lazyInit) Do(ctx context.Context, fn func(context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return nil
	}
	if err := fn(ctx); err != nil {
		return err
	}
	l.done = true
	return nil
}
