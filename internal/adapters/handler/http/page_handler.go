package http

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
)

// PageHandler serves the HTML site.
type PageHandler struct {
	questions ports.QuestionService
	votes     ports.VoteService
	templates *template.Template
	logger    *slog.Logger
}

func NewPageHandler(questions ports.QuestionService, votes ports.VoteService, logger *slog.Logger) (*PageHandler, error) {
	return newPageHandler(questions, votes, logger, time.Now)
}

func newPageHandler(questions ports.QuestionService, votes ports.VoteService, logger *slog.Logger, now func() time.Time) (*PageHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := parseTemplates(now)
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		questions: questions,
		votes:     votes,
		templates: tmpl,
		logger:    logger,
	}, nil
}

type indexPage struct {
	Page *domain.QuestionPage
}

type detailPage struct {
	Question     *domain.Question
	Choices      []domain.Choice
	ErrorMessage string
}

type resultsPage struct {
	Results *domain.Results
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}

	questions, err := h.questions.ListQuestions(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "index.html", indexPage{Page: questions})
}

func (h *PageHandler) Detail(w http.ResponseWriter, r *http.Request) {
	h.renderDetail(w, r, "")
}

func (h *PageHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.questions.Results(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "results.html", resultsPage{Results: results})
}

// Vote handles the choice form. A GET lands here when someone opens the vote
// URL directly; treat it like an empty submission.
func (h *PageHandler) Vote(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "id")

	var choiceID string
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		choiceID = r.PostFormValue("choice")
	}

	event, err := h.votes.CastVote(r.Context(), ports.VoteInput{QuestionID: questionID, ChoiceID: choiceID})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidChoice) {
			h.renderDetail(w, r, domain.ErrInvalidChoice.Error())
			return
		}
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/questions/"+event.QuestionID.String()+"/results", http.StatusSeeOther)
}

func (h *PageHandler) renderDetail(w http.ResponseWriter, r *http.Request, errorMessage string) {
	question, choices, err := h.questions.GetQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "detail.html", detailPage{
		Question:     question,
		Choices:      choices,
		ErrorMessage: errorMessage,
	})
}

func (h *PageHandler) render(w http.ResponseWriter, status int, name string, data any) {
	// Render into a buffer so a template error still produces a clean 500.
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrQuestionNotFound):
		http.Error(w, "question not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrPageNotFound):
		http.Error(w, "page not found", http.StatusNotFound)
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
