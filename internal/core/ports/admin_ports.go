package ports

import (
	"context"
	"time"

	"github.com/vncsmyrnk/polls/internal/core/domain"
)

type CreateQuestionInput struct {
	Text        string
	PublishedAt *time.Time
	Choices     []string
}

type AdminService interface {
	CreateQuestion(ctx context.Context, input CreateQuestionInput) (*domain.Question, []domain.Choice, error)
	AddChoice(ctx context.Context, questionID string, text string) (*domain.Choice, error)
	DeleteQuestion(ctx context.Context, questionID string) error
	Report(ctx context.Context) ([]*domain.Results, error)
}
