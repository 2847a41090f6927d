package server

import (
	"storyspark/internal/controller"
	"storyspark/internal/history"
	"storyspark/internal/story"
)

type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

type StateResponse struct {
	SessionID string              `json:"sessionId"`
	State     controller.Snapshot `json:"state"`
}

type GenerateRequest struct {
	SessionID string       `json:"sessionId"`
	Config    story.Config `json:"config"`
}

type HistoryItemRequest struct {
	SessionID string `json:"sessionId"`
	ID        string `json:"id"`
}

type DeleteHistoryResponse struct {
	SessionID string              `json:"sessionId"`
	Removed   bool                `json:"removed"`
	State     controller.Snapshot `json:"state"`
}

type SetHistoryOpenRequest struct {
	SessionID string `json:"sessionId"`
	Open      bool   `json:"open"`
}

type ListHistoryRequest struct{}

type ListHistoryResponse struct {
	Items []history.Summary `json:"items"`
}

type ClearHistoryRequest struct{}

type ClearHistoryResponse struct{}

type GetOptionsRequest struct{}

type GetOptionsResponse struct {
	AgeGroups []story.AgeGroup `json:"ageGroups"`
	Tones     []story.Tone     `json:"tones"`
	Languages []story.Language `json:"languages"`
	Modes     []story.Mode     `json:"modes"`
	Models    []story.Model    `json:"models"`
	Defaults  story.Config     `json:"defaults"`
}
