package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/polls/internal/core/domain"
)

type QuestionRepository interface {
	ListRecent(ctx context.Context, limit, offset int) ([]*domain.Question, error)
	ListAll(ctx context.Context) ([]*domain.Question, error)
	CountQuestions(ctx context.Context) (int, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (*domain.Question, error)
	ListChoices(ctx context.Context, questionID uuid.UUID) ([]domain.Choice, error)
	GetChoice(ctx context.Context, questionID, choiceID uuid.UUID) (*domain.Choice, error)
	PreviousQuestion(ctx context.Context, ref *domain.Question) (*domain.Question, error)
	NextQuestion(ctx context.Context, ref *domain.Question) (*domain.Question, error)
	IncrementVotes(ctx context.Context, questionID, choiceID uuid.UUID) (int64, error)

	SaveQuestion(ctx context.Context, question *domain.Question, choices []domain.Choice) error
	AddChoice(ctx context.Context, choice *domain.Choice) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
}

type QuestionService interface {
	ListQuestions(ctx context.Context, page int) (*domain.QuestionPage, error)
	GetQuestion(ctx context.Context, id string) (*domain.Question, []domain.Choice, error)
	Results(ctx context.Context, id string) (*domain.Results, error)
}
