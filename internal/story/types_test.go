package story

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := DefaultConfig(DefaultCatalog())
	cfg.Prompt = "a fox learns to share"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	catalog := DefaultCatalog()
	require.NoError(t, validConfig().Validate(catalog))

	cfg := validConfig()
	cfg.Prompt = "   \n"
	assert.ErrorIs(t, cfg.Validate(catalog), ErrEmptyPrompt)

	cfg = validConfig()
	cfg.Tone = "Spooky"
	assert.ErrorIs(t, cfg.Validate(catalog), ErrInvalidField)

	cfg = validConfig()
	cfg.ModelName = "model-a"
	assert.ErrorIs(t, cfg.Validate(catalog), ErrInvalidField)
	assert.NoError(t, cfg.Validate(nil), "nil catalog skips the model check")
	assert.NoError(t, cfg.Validate(catalog.With(Model{ID: "model-a", Provider: ProviderFake})))
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode(" agent ")
	assert.True(t, ok)
	assert.Equal(t, ModeAgent, m)

	_, ok = ParseMode("draft")
	assert.False(t, ok)
}

func TestCatalogDefaultsAndDuplicates(t *testing.T) {
	c := NewCatalog(Model{ID: "a"}, Model{ID: "a", Name: "dup"}, Model{ID: " "}, Model{ID: "b", Name: "B"})
	require.Len(t, c.Models(), 2)
	assert.Equal(t, "a", c.Default().ID)
	m, ok := c.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", m.Name, "name falls back to id")
	assert.Equal(t, "gemini-3-flash-preview", DefaultCatalog().Default().ID)
}

func book(n int) *Book {
	b := &Book{Title: "The Generous Fox", Summary: "s"}
	for i := 1; i <= n; i++ {
		b.Chapters = append(b.Chapters, Chapter{ChapterNumber: i, Title: "c", Content: "x"})
	}
	return b
}

func TestBookValidate(t *testing.T) {
	assert.NoError(t, book(5).Validate(5))
	assert.ErrorIs(t, book(4).Validate(5), ErrInvalidField)
	assert.NoError(t, book(3).Validate(0))
	assert.ErrorIs(t, book(0).Validate(0), ErrInvalidField)

	b := book(5)
	b.Chapters[2].ChapterNumber = 2
	assert.ErrorIs(t, b.Validate(5), ErrInvalidField)

	b = book(5)
	b.Title = ""
	assert.ErrorIs(t, b.Validate(5), ErrInvalidField)
}

func TestProposalValidate(t *testing.T) {
	p := &Proposal{
		Title:       "The Generous Fox",
		Characters:  []Character{{Name: "Fern", Description: "a fox"}},
		PlotOutline: PlotOutline{Beginning: "b", Middle: "m", Ending: "e"},
	}
	assert.NoError(t, p.Validate())

	p.PlotOutline.Middle = ""
	assert.ErrorIs(t, p.Validate(), ErrInvalidField)
}

func TestResultCloneIsDeep(t *testing.T) {
	r := BookResult(*book(2))
	c := r.Clone()
	c.Book.Chapters[0].Title = "changed"
	assert.Equal(t, "c", r.Book.Chapters[0].Title)
	assert.Equal(t, "The Generous Fox", c.Title())
}

func TestDecodeResultUsesKindNotShape(t *testing.T) {
	// A proposal payload that happens to carry a chapters key stays a proposal.
	raw := json.RawMessage(`{"title":"T","chapters":[{"chapterNumber":1}],"plotOutline":{"beginning":"b","middle":"m","ending":"e"}}`)
	r, err := DecodeResult(KindProposal, raw)
	require.NoError(t, err)
	assert.Equal(t, KindProposal, r.Kind)
	assert.Nil(t, r.Book)
	assert.Equal(t, "T", r.Proposal.Title)

	_, err = DecodeResult("poem", raw)
	assert.ErrorIs(t, err, ErrInvalidField)
}
