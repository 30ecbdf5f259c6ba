package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
	logger  *slog.Logger
}

func NewVoteHandler(service ports.VoteService, logger *slog.Logger) *VoteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteHandler{
		service: service,
		logger:  logger,
	}
}

type voteRequest struct {
	ChoiceID string `json:"choice_id"`
}

// CastVote godoc
// @Summary      Votes on a question
// @Description  Adds one vote to the chosen choice. Submitting again counts again.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "Question ID"
// @Param        vote  body      voteRequest  true  "Chosen choice"
// @Success      201   {object}  domain.VoteCast
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /questions/{id}/votes [post]
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.service.CastVote(r.Context(), ports.VoteInput{
		QuestionID: chi.URLParam(r, "id"),
		ChoiceID:   req.ChoiceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidChoice):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrQuestionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("failed to cast vote", "error", err)
			writeError(w, http.StatusInternalServerError, domain.ErrInternal.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, event)
}
