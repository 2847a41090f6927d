package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"storyspark/internal/export"
	"storyspark/internal/history"
	"storyspark/internal/logger"
	"storyspark/internal/session"
	"storyspark/internal/story"
)

// ExportHandler serves the printable page of a session's current result or
// of a saved history item.
type ExportHandler struct {
	sessions *session.Registry
	history  *history.Store
	log      *zap.Logger
}

func NewExportHandler(sessions *session.Registry, hist *history.Store, log *zap.Logger) *ExportHandler {
	return &ExportHandler{sessions: sessions, history: hist, log: logger.OrNop(log)}
}

func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	var res story.Result
	switch {
	case strings.TrimSpace(q.Get("history_id")) != "":
		it, err := h.history.Get(r.Context(), strings.TrimSpace(q.Get("history_id")))
		if err != nil {
			http.Error(w, "history item not found", http.StatusNotFound)
			return
		}
		res = it.Result
	case strings.TrimSpace(q.Get("session_id")) != "":
		c, ok := h.sessions.Lookup(q.Get("session_id"))
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		res = c.Snapshot().Result()
	default:
		http.Error(w, "session_id or history_id is required", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := export.Result(&buf, res); err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			http.Error(w, "nothing to export", http.StatusNotFound)
			return
		}
		h.log.Error("export failed", zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
