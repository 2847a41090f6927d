package controller

import "storyspark/internal/story"

type View string

const (
	ViewIdle     View = "idle"
	ViewLoading  View = "loading"
	ViewProposal View = "proposal"
	ViewBook     View = "book"
)

// Snapshot is a point-in-time copy of a controller's state.
type Snapshot struct {
	Version     uint64          `json:"version"`
	View        View            `json:"view"`
	Loading     bool            `json:"loading"`
	Error       string          `json:"error,omitempty"`
	Config      *story.Config   `json:"config,omitempty"`
	Kind        story.Kind      `json:"kind,omitempty"`
	Proposal    *story.Proposal `json:"proposal,omitempty"`
	Book        *story.Book     `json:"book,omitempty"`
	HistoryOpen bool            `json:"historyOpen"`
}

// Result rebuilds the tagged result held by the snapshot.
func (s Snapshot) Result() story.Result {
	switch s.Kind {
	case story.KindProposal:
		return story.Result{Kind: s.Kind, Proposal: s.Proposal}
	case story.KindBook:
		return story.Result{Kind: s.Kind, Book: s.Book}
	}
	return story.Result{}
}

func viewOf(loading bool, current story.Result) View {
	switch {
	case loading:
		return ViewLoading
	case current.Kind == story.KindProposal:
		return ViewProposal
	case current.Kind == story.KindBook:
		return ViewBook
	}
	return ViewIdle
}
