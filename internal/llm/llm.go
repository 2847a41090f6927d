package llm

import (
	"context"
	"encoding/json"
	"errors"

	genai "google.golang.org/genai"
)

var (
	ErrInvalidJSON = errors.New("llm: invalid JSON from model")
	ErrNoProvider  = errors.New("llm: no provider for model")
)

// Request is one structured-output call. Schema constrains the reply; nil
// lets the model answer with any JSON value.
type Request struct {
	Model          string
	System         string
	Prompt         string
	Schema         *genai.Schema
	ThinkingBudget int
}

type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error)
	Close() error
}

// PermanentError marks failures that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
