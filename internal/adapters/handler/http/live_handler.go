package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/polls/internal/adapters/live"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
)

// LiveHandler upgrades results pages to a websocket carrying vote updates.
type LiveHandler struct {
	questions ports.QuestionService
	hub       *live.Hub
	logger    *slog.Logger
}

func NewLiveHandler(questions ports.QuestionService, hub *live.Hub, logger *slog.Logger) *LiveHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveHandler{questions: questions, hub: hub, logger: logger}
}

func (h *LiveHandler) Results(w http.ResponseWriter, r *http.Request) {
	question, _, err := h.questions.GetQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load question for live results", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	h.hub.Serve(r.Context(), conn, question.ID)
}
