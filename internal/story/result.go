package story

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates a Result. It is assigned when the result is created and
// never derived from the payload's shape.
type Kind string

const (
	KindProposal Kind = "proposal"
	KindBook     Kind = "book"
)

func (k Kind) Valid() bool { return k == KindProposal || k == KindBook }

// Result holds exactly one of Proposal or Book, selected by Kind.
type Result struct {
	Kind     Kind
	Proposal *Proposal
	Book     *Book
}

func ProposalResult(p Proposal) Result { return Result{Kind: KindProposal, Proposal: &p} }
func BookResult(b Book) Result         { return Result{Kind: KindBook, Book: &b} }

func (r Result) IsZero() bool { return r.Kind == "" }

// Payload returns the populated variant.
func (r Result) Payload() any {
	switch r.Kind {
	case KindProposal:
		return r.Proposal
	case KindBook:
		return r.Book
	}
	return nil
}

func (r Result) Title() string {
	switch {
	case r.Kind == KindProposal && r.Proposal != nil:
		return r.Proposal.Title
	case r.Kind == KindBook && r.Book != nil:
		return r.Book.Title
	}
	return ""
}

// Clone deep-copies the populated variant so callers can hand it out freely.
func (r Result) Clone() Result {
	switch r.Kind {
	case KindProposal:
		if r.Proposal == nil {
			return Result{Kind: r.Kind}
		}
		p := *r.Proposal
		p.Characters = append([]Character(nil), p.Characters...)
		return Result{Kind: r.Kind, Proposal: &p}
	case KindBook:
		if r.Book == nil {
			return Result{Kind: r.Kind}
		}
		b := *r.Book
		b.Chapters = append([]Chapter(nil), b.Chapters...)
		return Result{Kind: r.Kind, Book: &b}
	}
	return Result{}
}

// DecodeResult decodes raw into the variant named by kind.
func DecodeResult(kind Kind, raw json.RawMessage) (Result, error) {
	switch kind {
	case KindProposal:
		var p Proposal
		if err := json.Unmarshal(raw, &p); err != nil {
			return Result{}, err
		}
		return ProposalResult(p), nil
	case KindBook:
		var b Book
		if err := json.Unmarshal(raw, &b); err != nil {
			return Result{}, err
		}
		return BookResult(b), nil
	}
	return Result{}, fmt.Errorf("%w: kind %q", ErrInvalidField, kind)
}
