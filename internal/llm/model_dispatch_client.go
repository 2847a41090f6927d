package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storyspark/internal/story"
)

// Dispatch routes each request to the provider that serves its model in the
// catalog.
type Dispatch struct {
	catalog   *story.Catalog
	providers map[story.Provider]Client
}

func NewDispatch(catalog *story.Catalog, providers map[story.Provider]Client) *Dispatch {
	p := make(map[story.Provider]Client, len(providers))
	for k, v := range providers {
		if v != nil {
			p[k] = v
		}
	}
	return &Dispatch{catalog: catalog, providers: p}
}

func (d *Dispatch) Name() string { return "ModelDispatch" }

func (d *Dispatch) Close() error {
	var errs []error
	for _, c := range d.providers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatch) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	m, ok := d.catalog.Lookup(req.Model)
	if !ok {
		return nil, Permanent(fmt.Errorf("%w: unknown model %q", ErrNoProvider, req.Model))
	}
	c, ok := d.providers[m.Provider]
	if !ok {
		return nil, Permanent(fmt.Errorf("%w: provider %q not configured for %q", ErrNoProvider, m.Provider, m.ID))
	}
	return c.GenerateJSON(ctx, req)
}
