package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storyspark/internal/controller"
	"storyspark/internal/logger"
	"storyspark/internal/session"
)

const (
	stateWSWriteWait = 10 * time.Second
	stateWSPongWait  = 60 * time.Second
	stateWSPingEvery = (stateWSPongWait * 9) / 10
)

var stateWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type stateWSOutbound struct {
	Type      string               `json:"type"`
	SessionID string               `json:"sessionId,omitempty"`
	State     *controller.Snapshot `json:"state,omitempty"`
}

// WatchHandler streams a session's snapshots over a websocket.
type WatchHandler struct {
	sessions  *session.Registry
	log       *zap.Logger
	pingEvery time.Duration
}

func NewWatchHandler(sessions *session.Registry, log *zap.Logger) *WatchHandler {
	return &WatchHandler{sessions: sessions, log: logger.OrNop(log), pingEvery: stateWSPingEvery}
}

func (h *WatchHandler) HandleStateWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	c, ok := h.sessions.Lookup(sessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := stateWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(stateWSPongWait)); err != nil {
		h.log.Warn("state ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(stateWSPongWait))
	})

	// Reader: only control frames are expected; any error ends the watch.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingEvery)
	defer ticker.Stop()
	snaps := c.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(stateWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(stateWSOutbound{Type: "state", SessionID: sessionID, State: &snap}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(stateWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
