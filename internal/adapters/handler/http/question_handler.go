package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
)

type QuestionHandler struct {
	service ports.QuestionService
	logger  *slog.Logger
	now     func() time.Time
}

func NewQuestionHandler(service ports.QuestionService, logger *slog.Logger) *QuestionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

type questionResponse struct {
	ID                   uuid.UUID `json:"id"`
	Text                 string    `json:"text"`
	PublishedAt          time.Time `json:"published_at"`
	WasPublishedRecently bool      `json:"was_published_recently"`
}

type questionListResponse struct {
	Questions   []questionResponse `json:"questions"`
	Page        int                `json:"page"`
	TotalPages  int                `json:"total_pages"`
	TotalCount  int                `json:"total_count"`
	HasNext     bool               `json:"has_next"`
	HasPrevious bool               `json:"has_previous"`
}

type questionDetailResponse struct {
	Question questionResponse `json:"question"`
	Choices  []domain.Choice  `json:"choices"`
}

type choiceResult struct {
	domain.Choice
	Share float64 `json:"share"`
}

type resultsResponse struct {
	Question   questionResponse  `json:"question"`
	Choices    []choiceResult    `json:"choices"`
	TotalVotes int64             `json:"total_votes"`
	Previous   *questionResponse `json:"previous"`
	Next       *questionResponse `json:"next"`
}

func (h *QuestionHandler) toResponse(q *domain.Question) questionResponse {
	return questionResponse{
		ID:                   q.ID,
		Text:                 q.Text,
		PublishedAt:          q.PublishedAt,
		WasPublishedRecently: q.WasPublishedRecently(h.now()),
	}
}

func (h *QuestionHandler) optionalResponse(q *domain.Question) *questionResponse {
	if q == nil {
		return nil
	}
	resp := h.toResponse(q)
	return &resp
}

// ListQuestions godoc
// @Summary      Lists questions
// @Description  Returns a page of questions, newest first. Pages hold five questions.
// @Tags         questions
// @Produce      json
// @Param        page  query     int  false  "1-based page number"
// @Success      200   {object}  questionListResponse
// @Failure      404   {object}  errorResponse
// @Router       /questions [get]
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	result, err := h.service.ListQuestions(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := questionListResponse{
		Questions:   make([]questionResponse, 0, len(result.Questions)),
		Page:        result.Number,
		TotalPages:  result.TotalPages(),
		TotalCount:  result.TotalCount,
		HasNext:     result.HasNext(),
		HasPrevious: result.HasPrevious(),
	}
	for _, q := range result.Questions {
		resp.Questions = append(resp.Questions, h.toResponse(q))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetQuestion godoc
// @Summary      Shows a question
// @Description  Returns a question and its choices.
// @Tags         questions
// @Produce      json
// @Param        id   path      string  true  "Question ID"
// @Success      200  {object}  questionDetailResponse
// @Failure      404  {object}  errorResponse
// @Router       /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	question, choices, err := h.service.GetQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questionDetailResponse{
		Question: h.toResponse(question),
		Choices:  choices,
	})
}

// GetResults godoc
// @Summary      Shows the results of a question
// @Description  Returns vote counts per choice and the questions published just before and after.
// @Tags         questions
// @Produce      json
// @Param        id   path      string  true  "Question ID"
// @Success      200  {object}  resultsResponse
// @Failure      404  {object}  errorResponse
// @Router       /questions/{id}/results [get]
func (h *QuestionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := resultsResponse{
		Question:   h.toResponse(results.Question),
		Choices:    make([]choiceResult, 0, len(results.Choices)),
		TotalVotes: results.TotalVotes(),
		Previous:   h.optionalResponse(results.Previous),
		Next:       h.optionalResponse(results.Next),
	}
	for _, c := range results.Choices {
		resp.Choices = append(resp.Choices, choiceResult{Choice: c, Share: results.Share(c)})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *QuestionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrPageNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, domain.ErrInternal.Error())
	}
}
