package story

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPrompt  = errors.New("story: prompt is required")
	ErrInvalidField = errors.New("story: invalid field")
)

// Config is what the form submits. It is treated as immutable once a
// generation has started.
type Config struct {
	Prompt    string   `json:"prompt"`
	AgeGroup  AgeGroup `json:"ageGroup"`
	Tone      Tone     `json:"tone"`
	Language  Language `json:"language"`
	Mode      Mode     `json:"mode"`
	ModelName string   `json:"modelName"`
}

// DefaultConfig mirrors the initial state of the form.
func DefaultConfig(c *Catalog) Config {
	return Config{
		AgeGroup:  AgePreschool,
		Tone:      ToneMagical,
		Language:  LangEnglish,
		Mode:      ModeAsk,
		ModelName: c.Default().ID,
	}
}

// Validate checks a submitted config against the option sets and the model
// catalog. A nil catalog skips the model check.
func (c Config) Validate(catalog *Catalog) error {
	if strings.TrimSpace(c.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if !c.AgeGroup.Valid() {
		return fmt.Errorf("%w: ageGroup %q", ErrInvalidField, c.AgeGroup)
	}
	if !c.Tone.Valid() {
		return fmt.Errorf("%w: tone %q", ErrInvalidField, c.Tone)
	}
	if !c.Language.Valid() {
		return fmt.Errorf("%w: language %q", ErrInvalidField, c.Language)
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: mode %q", ErrInvalidField, c.Mode)
	}
	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: modelName is required", ErrInvalidField)
	}
	if catalog != nil {
		if _, ok := catalog.Lookup(c.ModelName); !ok {
			return fmt.Errorf("%w: unknown model %q", ErrInvalidField, c.ModelName)
		}
	}
	return nil
}

type Character struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PlotOutline struct {
	Beginning string `json:"beginning"`
	Middle    string `json:"middle"`
	Ending    string `json:"ending"`
}

// Proposal is the outline produced in ASK mode and shown for approval.
type Proposal struct {
	Title       string      `json:"title"`
	AgeGroup    string      `json:"ageGroup"`
	Characters  []Character `json:"characters"`
	Setting     string      `json:"setting"`
	Theme       string      `json:"theme"`
	PlotOutline PlotOutline `json:"plotOutline"`
	Moral       string      `json:"moral"`
}

type Chapter struct {
	ChapterNumber           int    `json:"chapterNumber"`
	Title                   string `json:"title"`
	Content                 string `json:"content"`
	IllustrationPlaceholder string `json:"illustrationPlaceholder,omitempty"`
}

// Book is the finished multi-chapter story.
type Book struct {
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Chapters []Chapter `json:"chapters"`
}

func (p *Proposal) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: proposal is empty", ErrInvalidField)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: proposal title is empty", ErrInvalidField)
	}
	o := p.PlotOutline
	if strings.TrimSpace(o.Beginning) == "" || strings.TrimSpace(o.Middle) == "" || strings.TrimSpace(o.Ending) == "" {
		return fmt.Errorf("%w: plot outline is incomplete", ErrInvalidField)
	}
	for i, c := range p.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: character %d has no name", ErrInvalidField, i)
		}
	}
	return nil
}

// Validate checks that the book has a title and exactly want chapters
// numbered 1..want in order. want <= 0 skips the count check but still
// requires strictly increasing numbering from 1.
func (b *Book) Validate(want int) error {
	if b == nil {
		return fmt.Errorf("%w: book is empty", ErrInvalidField)
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: book title is empty", ErrInvalidField)
	}
	if want > 0 && len(b.Chapters) != want {
		return fmt.Errorf("%w: expected %d chapters, got %d", ErrInvalidField, want, len(b.Chapters))
	}
	if len(b.Chapters) == 0 {
		return fmt.Errorf("%w: book has no chapters", ErrInvalidField)
	}
	for i, ch := range b.Chapters {
		if ch.ChapterNumber != i+1 {
			return fmt.Errorf("%w: chapter at position %d is numbered %d", ErrInvalidField, i+1, ch.ChapterNumber)
		}
	}
	return nil
}
