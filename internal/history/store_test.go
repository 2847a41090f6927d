package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storyspark/internal/story"
)

func proposalItem(id, title string) Item {
	res := story.ProposalResult(story.Proposal{
		Title:       title,
		PlotOutline: story.PlotOutline{Beginning: "b", Middle: "m", Ending: "e"},
	})
	return Item{ID: id, Timestamp: 1, Config: story.Config{Prompt: "p", Mode: story.ModeAsk}, Kind: res.Kind, Result: res}
}

func bookItem(id, title string) Item {
	res := story.BookResult(story.Book{
		Title:    title,
		Chapters: []story.Chapter{{ChapterNumber: 1, Title: "One", Content: "c"}},
	})
	return Item{ID: id, Timestamp: 2, Config: story.Config{Prompt: "p", Mode: story.ModeAgent}, Kind: res.Kind, Result: res}
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

type failingBackend struct{ *MemoryBackend }

func (f *failingBackend) Write(context.Context, string, []byte) error {
	return errors.New("disk full")
}

// unreadableBackend fails the first readFailures reads, then behaves like its
// MemoryBackend.
type unreadableBackend struct {
	*MemoryBackend
	mu           sync.Mutex
	readFailures int
	writes       int
}

func (u *unreadableBackend) Read(ctx context.Context, key string) ([]byte, error) {
	u.mu.Lock()
	if u.readFailures > 0 {
		u.readFailures--
		u.mu.Unlock()
		return nil, errors.New("dial tcp: connection refused")
	}
	u.mu.Unlock()
	return u.MemoryBackend.Read(ctx, key)
}

func (u *unreadableBackend) Write(ctx context.Context, key string, value []byte) error {
	u.mu.Lock()
	u.writes++
	u.mu.Unlock()
	return u.MemoryBackend.Write(ctx, key, value)
}

// slowBackend delays every read.
type slowBackend struct {
	*MemoryBackend
	delay time.Duration
}

func (s *slowBackend) Read(ctx context.Context, key string) ([]byte, error) {
	time.Sleep(s.delay)
	return s.MemoryBackend.Read(ctx, key)
}

func seeded(t *testing.T, items ...Item) *MemoryBackend {
	t.Helper()
	be := NewMemoryBackend()
	s := NewStore(be, "", nil)
	for _, it := range items {
		require.NoError(t, s.Append(context.Background(), it))
	}
	return be
}

func persistedIDs(t *testing.T, be Backend) []string {
	t.Helper()
	s := NewStore(be, "", nil)
	s.Load(context.Background())
	return ids(s.List(context.Background()))
}

func TestStore_AppendPrependsAndPersists(t *testing.T) {
	ctx := context.Background()
	be := NewMemoryBackend()
	s := NewStore(be, "", nil)
	s.Load(ctx)
	assert.Empty(t, s.List(ctx))

	require.NoError(t, s.Append(ctx, proposalItem("a", "A")))
	require.NoError(t, s.Append(ctx, bookItem("b", "B")))
	assert.Equal(t, []string{"b", "a"}, ids(s.List(ctx)))

	reloaded := NewStore(be, DefaultKey, nil)
	reloaded.Load(ctx)
	got := reloaded.List(ctx)
	require.Equal(t, []string{"b", "a"}, ids(got))
	assert.Equal(t, story.KindBook, got[0].Kind)
	assert.Equal(t, "B", got[0].Result.Book.Title)
	assert.Equal(t, story.KindProposal, got[1].Kind)
	assert.Equal(t, "A", got[1].Result.Proposal.Title)
}

func TestStore_AppendRejectsInvalidItems(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend(), "", nil)
	require.NoError(t, s.Append(ctx, proposalItem("a", "A")))

	assert.ErrorIs(t, s.Append(ctx, proposalItem("a", "again")), ErrInvalidItem)
	assert.ErrorIs(t, s.Append(ctx, proposalItem("", "no id")), ErrInvalidItem)
	mismatched := proposalItem("x", "X")
	mismatched.Kind = story.KindBook
	assert.ErrorIs(t, s.Append(ctx, mismatched), ErrInvalidItem)
	assert.Len(t, s.List(ctx), 1)
}

func TestStore_RemoveKeepsOrder(t *testing.T) {
	ctx := context.Background()
	be := NewMemoryBackend()
	s := NewStore(be, "", nil)
	for _, id := range []string{"x", "y", "z"} {
		require.NoError(t, s.Append(ctx, proposalItem(id, id)))
	}
	assert.True(t, s.Remove(ctx, "y"))
	assert.Equal(t, []string{"z", "x"}, ids(s.List(ctx)))
	assert.False(t, s.Remove(ctx, "nope"))

	reloaded := NewStore(be, "", nil)
	reloaded.Load(ctx)
	assert.Equal(t, []string{"z", "x"}, ids(reloaded.List(ctx)))
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	be := NewMemoryBackend()
	s := NewStore(be, "", nil)
	require.NoError(t, s.Append(ctx, proposalItem("a", "A")))
	s.Clear(ctx)
	assert.Empty(t, s.List(ctx))

	raw, err := be.Read(ctx, DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend(), "", nil)
	require.NoError(t, s.Append(ctx, bookItem("b", "Original")))

	it, err := s.Get(ctx, "b")
	require.NoError(t, err)
	it.Result.Book.Title = "changed"
	it.Result.Book.Chapters[0].Title = "changed"

	again, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Result.Book.Title)
	assert.Equal(t, "One", again.Result.Book.Chapters[0].Title)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_MalformedEntryLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	be := NewMemoryBackend()
	require.NoError(t, be.Write(ctx, DefaultKey, []byte(`{not json`)))

	core, logs := observer.New(zap.WarnLevel)
	s := NewStore(be, "", zap.New(core))
	s.Load(ctx)
	assert.Empty(t, s.List(ctx))
	assert.Equal(t, 1, logs.Len())
}

func TestStore_LoadDropsBadAndDuplicateItems(t *testing.T) {
	ctx := context.Background()
	be := NewMemoryBackend()
	require.NoError(t, be.Write(ctx, DefaultKey, []byte(`[
		{"id":"1","timestamp":3,"config":{"prompt":"p"},"kind":"book","data":{"title":"B","summary":"","chapters":[]}},
		{"id":"1","timestamp":2,"config":{"prompt":"p"},"kind":"proposal","data":{"title":"dup"}},
		{"id":"","timestamp":1,"kind":"proposal","data":{"title":"no id"}},
		{"id":"3","timestamp":1,"kind":"poem","data":{}},
		{"id":"4","timestamp":0,"config":{"prompt":"p"},"kind":"proposal","data":{"title":"P"}}
	]`)))

	s := NewStore(be, "", nil)
	s.Load(ctx)
	got := s.List(ctx)
	require.Equal(t, []string{"1", "4"}, ids(got))
	assert.Equal(t, story.KindBook, got[0].Kind)
	assert.Equal(t, "P", got[1].Title())
}

func TestStore_WriteFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.ErrorLevel)
	s := NewStore(&failingBackend{MemoryBackend: NewMemoryBackend()}, "", zap.New(core))

	require.NoError(t, s.Append(ctx, proposalItem("a", "A")))
	assert.Equal(t, []string{"a"}, ids(s.List(ctx)))
	assert.True(t, s.Remove(ctx, "a"))
	assert.Equal(t, 2, logs.FilterMessage("history write failed").Len())
}

func TestStore_LazyLoadOnFirstUse(t *testing.T) {
	ctx := context.Background()
	be := NewMemoryBackend()
	seed := NewStore(be, "custom", nil)
	require.NoError(t, seed.Append(ctx, proposalItem("a", "A")))

	s := NewStore(be, "custom", nil)
	require.NoError(t, s.Append(ctx, proposalItem("b", "B")))
	assert.Equal(t, []string{"b", "a"}, ids(s.List(ctx)))
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	single, err := NewFileBackend(filepath.Join(dir, "nested", "history.json"))
	require.NoError(t, err)
	_, err = single.Read(ctx, DefaultKey)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, single.Write(ctx, DefaultKey, []byte(`[]`)))
	require.NoError(t, single.Write(ctx, DefaultKey, []byte(`[1]`)))
	b, err := single.Read(ctx, "other-key")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(b))

	perKey, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, perKey.Write(ctx, "k", []byte(`{}`)))
	assert.FileExists(t, filepath.Join(dir, "k.json"))

	_, err = NewFileBackend("  ")
	assert.Error(t, err)
}

func TestStore_FileBackendSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "story_history.json")
	be, err := NewFileBackend(path)
	require.NoError(t, err)

	s := NewStore(be, "", nil)
	require.NoError(t, s.Append(ctx, bookItem("b1", "Book")))

	be2, err := NewFileBackend(path)
	require.NoError(t, err)
	s2 := NewStore(be2, "", nil)
	s2.Load(ctx)
	got := s2.List(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "Book", got[0].Result.Book.Title)
}

func TestNewItem(t *testing.T) {
	res := story.ProposalResult(story.Proposal{Title: "T"})
	a := NewItem(story.Config{Prompt: "p", Mode: story.ModeAsk}, res)
	b := NewItem(story.Config{Prompt: "p"}, res)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, story.KindProposal, a.Kind)
	assert.Positive(t, a.Timestamp)
	assert.Equal(t, Summary{ID: a.ID, Timestamp: a.Timestamp, Title: "T", Kind: story.KindProposal, Mode: story.ModeAsk, Prompt: "p"}, a.Summary())
}

func TestStore_ReadFailureDoesNotOverwriteHistory(t *testing.T) {
	ctx := context.Background()
	mem := seeded(t, proposalItem("a", "A"), proposalItem("b", "B"), proposalItem("c", "C"))
	be := &unreadableBackend{MemoryBackend: mem, readFailures: 2}

	core, logs := observer.New(zap.WarnLevel)
	s := NewStore(be, "", zap.New(core))
	s.Load(ctx)
	assert.Equal(t, 1, logs.FilterMessage("history read failed, will retry").Len())

	require.NoError(t, s.Append(ctx, bookItem("new", "New")))
	assert.Zero(t, be.writes, "nothing is written before the entry has been read")
	assert.Equal(t, []string{"c", "b", "a"}, persistedIDs(t, mem))

	// The backend is readable again: the pending append is merged and saved.
	assert.Equal(t, []string{"new", "c", "b", "a"}, ids(s.List(ctx)))
	assert.Equal(t, 1, be.writes)
	assert.Equal(t, []string{"new", "c", "b", "a"}, persistedIDs(t, mem))
}

func TestStore_RemoveWhileUnreadableAppliesOnMerge(t *testing.T) {
	ctx := context.Background()
	mem := seeded(t, proposalItem("a", "A"), proposalItem("b", "B"))
	be := &unreadableBackend{MemoryBackend: mem, readFailures: 1}

	s := NewStore(be, "", nil)
	assert.False(t, s.Remove(ctx, "a"), "unknown until the entry is read")
	assert.Equal(t, []string{"b"}, ids(s.List(ctx)))
	assert.Equal(t, []string{"b"}, persistedIDs(t, mem))
}

func TestStore_ClearWhileUnreadableAppliesOnMerge(t *testing.T) {
	ctx := context.Background()
	mem := seeded(t, proposalItem("a", "A"), proposalItem("b", "B"))
	be := &unreadableBackend{MemoryBackend: mem, readFailures: 1}

	s := NewStore(be, "", nil)
	s.Clear(ctx)
	require.NoError(t, s.Append(ctx, proposalItem("c", "C")))
	assert.Equal(t, []string{"c"}, ids(s.List(ctx)))
	assert.Equal(t, []string{"c"}, persistedIDs(t, mem))
}

func TestStore_ConcurrentFirstUseKeepsEveryItem(t *testing.T) {
	ctx := context.Background()
	mem := seeded(t, proposalItem("seed", "Seed"))
	s := NewStore(&slowBackend{MemoryBackend: mem, delay: 20 * time.Millisecond}, "", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("item-%d", i)
			assert.NoError(t, s.Append(ctx, proposalItem(id, id)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.List(ctx), 9)
	assert.ElementsMatch(t, ids(s.List(ctx)), persistedIDs(t, mem))
}
