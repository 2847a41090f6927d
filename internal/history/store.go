package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"storyspark/internal/logger"
	"storyspark/internal/metrics"
)

const DefaultKey = "storyspark_history"

var ErrInvalidItem = errors.New("history: invalid item")

// Store is the ordered, most-recent-first list of saved generations. Every
// mutation rewrites the whole list to the backend before returning. A failed
// write is logged and the in-memory list stays authoritative.
//
// Nothing is written until the persisted entry has been read once. While the
// backend cannot be read, mutations apply in memory only and are merged into
// the persisted list on the first successful read.
type Store struct {
	backend Backend
	key     string
	log     *zap.Logger

	mu     sync.Mutex
	items  []Item
	loaded bool

	// changes made before the first successful read
	dirty   bool
	cleared bool
	removed map[string]struct{}
}

func NewStore(backend Backend, key string, log *zap.Logger) *Store {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultKey
	}
	return &Store{backend: backend, key: key, log: logger.OrNop(log)}
}

// Load reads the persisted list. A missing entry yields an empty list; so does
// a malformed one, with a warning. When the backend cannot be read the store
// stays unloaded and the next call tries again.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) {
	items, err := s.read(ctx)
	if err != nil {
		metrics.HistoryPersistErrors.Inc()
		s.log.Warn("history read failed, will retry", zap.String("key", s.key), zap.Error(err))
		return
	}
	if s.dirty {
		s.items = s.mergeLocked(items)
	} else {
		s.items = items
	}
	s.loaded = true
	pending := s.dirty
	s.dirty, s.cleared, s.removed = false, false, nil
	if pending {
		s.persistLocked(ctx)
	}
	metrics.HistoryItems.Set(float64(len(s.items)))
}

// mergeLocked puts the in-memory items in front of the persisted ones and
// applies the removals and clears made while the backend was unreadable.
func (s *Store) mergeLocked(persisted []Item) []Item {
	out := append([]Item(nil), s.items...)
	if s.cleared {
		return out
	}
	seen := make(map[string]struct{}, len(out))
	for _, it := range out {
		seen[it.ID] = struct{}{}
	}
	for _, it := range persisted {
		if _, gone := s.removed[it.ID]; gone {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		out = append(out, it)
	}
	return out
}

// read returns the persisted items. Only backend failures are errors.
func (s *Store) read(ctx context.Context) ([]Item, error) {
	raw, err := s.backend.Read(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	items, dropped, err := decodeItems(raw)
	if err != nil {
		s.log.Warn("history entry is malformed, starting empty", zap.String("key", s.key), zap.Error(err))
		return nil, nil
	}
	if dropped > 0 {
		s.log.Warn("history items dropped on load", zap.Int("dropped", dropped))
	}
	return items, nil
}

// decodeItems parses the persisted array. Entries without an id, with an
// unknown kind or with an id seen earlier are skipped.
func decodeItems(raw []byte) ([]Item, int, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, 0, err
	}
	out := make([]Item, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	dropped := 0
	for _, row := range rows {
		var it Item
		if err := json.Unmarshal(row, &it); err != nil || it.ID == "" {
			dropped++
			continue
		}
		if _, dup := seen[it.ID]; dup {
			dropped++
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out, dropped, nil
}

func (s *Store) ensureLoadedLocked(ctx context.Context) {
	if !s.loaded {
		s.loadLocked(ctx)
	}
}

// Append puts it at the front of the list and persists.
func (s *Store) Append(ctx context.Context, it Item) error {
	if strings.TrimSpace(it.ID) == "" || !it.Kind.Valid() || it.Result.Kind != it.Kind {
		return fmt.Errorf("%w: id %q kind %q", ErrInvalidItem, it.ID, it.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)
	for _, cur := range s.items {
		if cur.ID == it.ID {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidItem, it.ID)
		}
	}
	next := make([]Item, 0, len(s.items)+1)
	next = append(next, it)
	next = append(next, s.items...)
	s.items = next
	delete(s.removed, it.ID)
	s.commitLocked(ctx)
	return nil
}

// Remove drops the item with id and persists. It reports whether anything was
// removed; removing an unknown id still rewrites the entry.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)
	next := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	removed := len(next) != len(s.items)
	s.items = next
	if !s.loaded {
		if s.removed == nil {
			s.removed = make(map[string]struct{})
		}
		s.removed[id] = struct{}{}
	}
	s.commitLocked(ctx)
	return removed
}

// Clear empties the list and persists.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)
	s.items = nil
	if !s.loaded {
		s.cleared = true
		s.removed = nil
	}
	s.commitLocked(ctx)
}

func (s *Store) List(ctx context.Context) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)
	return append([]Item(nil), s.items...)
}

func (s *Store) Get(ctx context.Context, id string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)
	for _, it := range s.items {
		if it.ID == id {
			it.Result = it.Result.Clone()
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %q", ErrNotFound, id)
}

func (s *Store) Close() error { return s.backend.Close() }

// commitLocked persists after a mutation, or records it for the merge when
// the persisted list has not been read yet.
func (s *Store) commitLocked(ctx context.Context) {
	if s.loaded {
		s.persistLocked(ctx)
		return
	}
	s.dirty = true
	metrics.HistoryItems.Set(float64(len(s.items)))
	s.log.Warn("history not persisted, backend unreadable", zap.String("key", s.key), zap.Int("items", len(s.items)))
}

func (s *Store) persistLocked(ctx context.Context) {
	metrics.HistoryItems.Set(float64(len(s.items)))
	rows := s.items
	if rows == nil {
		rows = []Item{}
	}
	b, err := json.Marshal(rows)
	if err == nil {
		err = s.backend.Write(ctx, s.key, b)
	}
	if err != nil {
		metrics.HistoryPersistErrors.Inc()
		s.log.Error("history write failed", zap.String("key", s.key), zap.Int("items", len(rows)), zap.Error(err))
	}
}
