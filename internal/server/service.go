package server

import (
	"context"
	"fmt"
	"strings"

	"connectrpc.com/connect"

	"storyspark/internal/controller"
	"storyspark/internal/history"
	"storyspark/internal/session"
	"storyspark/internal/story"
)

// StoryService implements the storyspark.v1.StoryService procedures. Each
// call names its session; an empty or unknown id starts a new one.
type StoryService struct {
	sessions *session.Registry
	history  *history.Store
	catalog  *story.Catalog
}

func NewStoryService(sessions *session.Registry, hist *history.Store, catalog *story.Catalog) *StoryService {
	return &StoryService{sessions: sessions, history: hist, catalog: catalog}
}

func (s *StoryService) state(id string, c *controller.Controller) *connect.Response[StateResponse] {
	return connect.NewResponse(&StateResponse{SessionID: id, State: c.Snapshot()})
}

func (s *StoryService) GetOptions(_ context.Context, _ *connect.Request[GetOptionsRequest]) (*connect.Response[GetOptionsResponse], error) {
	return connect.NewResponse(&GetOptionsResponse{
		AgeGroups: story.AgeGroups,
		Tones:     story.Tones,
		Languages: story.Languages,
		Modes:     story.Modes,
		Models:    s.catalog.Models(),
		Defaults:  story.DefaultConfig(s.catalog),
	}), nil
}

func (s *StoryService) GetState(_ context.Context, req *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	id, c := s.sessions.Acquire(req.Msg.SessionID)
	return s.state(id, c), nil
}

func (s *StoryService) Generate(ctx context.Context, req *connect.Request[GenerateRequest]) (*connect.Response[StateResponse], error) {
	id, c := s.sessions.Acquire(req.Msg.SessionID)
	if err := c.Generate(ctx, req.Msg.Config); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(id, c), nil
}

func (s *StoryService) ApproveProposal(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	id, c := s.sessions.Acquire(req.Msg.SessionID)
	if err := c.ApproveProposal(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(id, c), nil
}

func (s *StoryService) LoadFromHistory(ctx context.Context, req *connect.Request[HistoryItemRequest]) (*connect.Response[StateResponse], error) {
	itemID := strings.TrimSpace(req.Msg.ID)
	if itemID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("id is required"))
	}
	id, c := s.sessions.Acquire(req.Msg.SessionID)
	if err := c.LoadFromHistory(ctx, itemID); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(id, c), nil
}

func (s *StoryService) DeleteFromHistory(ctx context.Context, req *connect.Request[HistoryItemRequest]) (*connect.Response[DeleteHistoryResponse], error) {
	itemID := strings.TrimSpace(req.Msg.ID)
	if itemID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("id is required"))
	}
	id, c := s.sessions.Acquire(req.Msg.SessionID)
	removed := c.DeleteFromHistory(ctx, itemID)
	return connect.NewResponse(&DeleteHistoryResponse{SessionID: id, Removed: removed, State: c.Snapshot()}), nil
}

func (s *StoryService) ListHistory(ctx context.Context, _ *connect.Request[ListHistoryRequest]) (*connect.Response[ListHistoryResponse], error) {
	items := s.history.List(ctx)
	out := &ListHistoryResponse{Items: make([]history.Summary, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, it.Summary())
	}
	return connect.NewResponse(out), nil
}

func (s *StoryService) ClearHistory(ctx context.Context, _ *connect.Request[ClearHistoryRequest]) (*connect.Response[ClearHistoryResponse], error) {
	s.history.Clear(ctx)
	return connect.NewResponse(&ClearHistoryResponse{}), nil
}

func (s *StoryService) Reset(_ context.Context, req *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	id, c := s.sessions.Acquire(req.Msg.SessionID)
	c.Reset()
	return s.state(id, c), nil
}

func (s *StoryService) DismissError(_ context.Context, req *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	id, c := s.sessions.Acquire(req.Msg.SessionID)
	c.DismissError()
	return s.state(id, c), nil
}

func (s *StoryService) SetHistoryOpen(_ context.Context, req *connect.Request[SetHistoryOpenRequest]) (*connect.Response[StateResponse], error) {
	id, c := s.sessions.Acquire(req.Msg.SessionID)
	c.SetHistoryOpen(req.Msg.Open)
	return s.state(id, c), nil
}
