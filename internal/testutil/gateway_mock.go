package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyspark/internal/story"
)

// MockGateway is a testify mock of the generation gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) RequestProposal(ctx context.Context, cfg story.Config) (story.Proposal, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(story.Proposal), args.Error(1)
}

func (m *MockGateway) RequestBook(ctx context.Context, cfg story.Config) (story.Book, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(story.Book), args.Error(1)
}

// BlockingGateway parks every request until Release is closed or the request
// context ends. Started receives one value per request.
type BlockingGateway struct {
	Started  chan struct{}
	Release  chan struct{}
	Proposal story.Proposal
	Book     story.Book
}

func NewBlockingGateway() *BlockingGateway {
	return &BlockingGateway{
		Started:  make(chan struct{}, 8),
		Release:  make(chan struct{}),
		Proposal: Proposal("Blocked"),
		Book:     Book("Blocked", 5),
	}
}

func (b *BlockingGateway) wait(ctx context.Context) error {
	b.Started <- struct{}{}
	select {
	case <-b.Release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *BlockingGateway) RequestProposal(ctx context.Context, _ story.Config) (story.Proposal, error) {
	if err := b.wait(ctx); err != nil {
		return story.Proposal{}, err
	}
	return b.Proposal, nil
}

func (b *BlockingGateway) RequestBook(ctx context.Context, _ story.Config) (story.Book, error) {
	if err := b.wait(ctx); err != nil {
		return story.Book{}, err
	}
	return b.Book, nil
}
