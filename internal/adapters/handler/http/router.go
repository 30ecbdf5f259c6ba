package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/vncsmyrnk/polls/internal/adapters/handler/http/docs"
	"github.com/vncsmyrnk/polls/internal/adapters/metrics"
)

type Handlers struct {
	Pages     *PageHandler
	Questions *QuestionHandler
	Votes     *VoteHandler

	// Optional.
	Live    *LiveHandler
	Metrics *metrics.Metrics
	Health  func(ctx context.Context) error
	Logger  *slog.Logger
}

// @title        Polls API
// @version      1.0
// @description  Questions, choices and votes.
// @BasePath     /api
func NewHandler(h Handlers) http.Handler {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
		r.Handle("/metrics", h.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if h.Health != nil {
			if err := h.Health(r.Context()); err != nil {
				logger.Error("health check failed", "error", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Get("/", h.Pages.Index)
	r.Route("/questions/{id}", func(r chi.Router) {
		r.Get("/", h.Pages.Detail)
		r.Get("/results", h.Pages.Results)
		r.Get("/vote", h.Pages.Vote)
		r.Post("/vote", h.Pages.Vote)
		if h.Live != nil {
			r.Get("/results/live", h.Live.Results)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/questions", func(r chi.Router) {
			r.Get("/", h.Questions.ListQuestions)
			r.Get("/{id}", h.Questions.GetQuestion)
			r.Get("/{id}/results", h.Questions.GetResults)
			r.Post("/{id}/votes", h.Votes.CastVote)
		})
	})

	return r
}
