package providers

import (
	"context"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

// Ashby is a placeholder adapter.
// TODO: implement the Ashby GraphQL posting fetch.
type Ashby struct{}

func (p *Ashby) Name() string { return "ashby" }

func (p *Ashby) Fetch(_ context.Context, _ string, _ core.FetchHints) ([]model.RawPosting, error) {
	return nil, nil
}
