package story

import "strings"

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderFake   Provider = "fake"
)

// Model is one selectable entry of the model picker.
type Model struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Provider Provider `json:"provider"`
}

// Catalog is the ordered list of models offered to users. The first entry is
// the form default.
type Catalog struct {
	models []Model
	byID   map[string]Model
}

var geminiModels = []Model{
	{ID: "gemini-3-flash-preview", Name: "Gemini 3 Flash (Fast & Modern)", Provider: ProviderGemini},
	{ID: "gemini-3-pro-preview", Name: "Gemini 3 Pro (Deep Reasoning)", Provider: ProviderGemini},
	{ID: "gemini-flash-latest", Name: "Gemini Flash (Stable)", Provider: ProviderGemini},
	{ID: "gemini-flash-lite-latest", Name: "Gemini Flash Lite (Efficient)", Provider: ProviderGemini},
	{ID: "gemini-2.5-flash-preview-09-2025", Name: "Gemini 2.5 Flash (Latest)", Provider: ProviderGemini},
	{ID: "gemini-3-pro-image-preview", Name: "Gemini 3 Pro Image (Visual Focus)", Provider: ProviderGemini},
	{ID: "gemini-2.5-flash-native-audio-preview-12-2025", Name: "Gemini 2.5 Native Audio", Provider: ProviderGemini},
	{ID: "gemini-2.5-flash-preview-tts", Name: "Gemini TTS Optimized", Provider: ProviderGemini},
	{ID: "gemini-3-pro-preview-012025", Name: "Gemini 3 Pro v01.25", Provider: ProviderGemini},
	{ID: "gemini-3-flash-preview-experimental", Name: "Gemini 3 Flash (Experimental)", Provider: ProviderGemini},
}

// DefaultCatalog returns the Gemini line-up.
func DefaultCatalog() *Catalog {
	return NewCatalog(geminiModels...)
}

// NewCatalog builds a catalog; later duplicates of an id are ignored.
func NewCatalog(models ...Model) *Catalog {
	c := &Catalog{byID: make(map[string]Model, len(models))}
	for _, m := range models {
		c.add(m)
	}
	return c
}

// With returns a copy of c extended with extra models.
func (c *Catalog) With(models ...Model) *Catalog {
	out := NewCatalog(c.models...)
	for _, m := range models {
		out.add(m)
	}
	return out
}

func (c *Catalog) add(m Model) {
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return
	}
	if _, dup := c.byID[m.ID]; dup {
		return
	}
	if m.Name == "" {
		m.Name = m.ID
	}
	c.models = append(c.models, m)
	c.byID[m.ID] = m
}

func (c *Catalog) Lookup(id string) (Model, bool) {
	if c == nil {
		return Model{}, false
	}
	m, ok := c.byID[strings.TrimSpace(id)]
	return m, ok
}

func (c *Catalog) Models() []Model {
	if c == nil {
		return nil
	}
	return append([]Model(nil), c.models...)
}

func (c *Catalog) Default() Model {
	if c == nil || len(c.models) == 0 {
		return Model{}
	}
	return c.models[0]
}
