package history

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"storyspark/internal/story"
)

// Item is one saved generation. Items are never mutated after creation.
type Item struct {
	ID        string       `json:"id"`
	Timestamp int64        `json:"timestamp"`
	Config    story.Config `json:"config"`
	Kind      story.Kind   `json:"kind"`
	Result    story.Result `json:"-"`
}

// NewItem stamps a result with a fresh id and the current time.
func NewItem(cfg story.Config, res story.Result) Item {
	return Item{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Config:    cfg,
		Kind:      res.Kind,
		Result:    res.Clone(),
	}
}

func (it Item) Title() string { return it.Result.Title() }

// Summary is the history panel row.
type Summary struct {
	ID        string     `json:"id"`
	Timestamp int64      `json:"timestamp"`
	Title     string     `json:"title"`
	Kind      story.Kind `json:"kind"`
	Mode      story.Mode `json:"mode"`
	Prompt    string     `json:"prompt"`
}

func (it Item) Summary() Summary {
	return Summary{
		ID:        it.ID,
		Timestamp: it.Timestamp,
		Title:     it.Title(),
		Kind:      it.Kind,
		Mode:      it.Config.Mode,
		Prompt:    it.Config.Prompt,
	}
}

type wireItem struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Config    story.Config    `json:"config"`
	Kind      story.Kind      `json:"kind"`
	Data      json.RawMessage `json:"data"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(it.Result.Payload())
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireItem{
		ID:        it.ID,
		Timestamp: it.Timestamp,
		Config:    it.Config,
		Kind:      it.Kind,
		Data:      data,
	})
}

func (it *Item) UnmarshalJSON(b []byte) error {
	var w wireItem
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	res, err := story.DecodeResult(w.Kind, w.Data)
	if err != nil {
		return err
	}
	*it = Item{
		ID:        strings.TrimSpace(w.ID),
		Timestamp: w.Timestamp,
		Config:    w.Config,
		Kind:      w.Kind,
		Result:    res,
	}
	return nil
}
