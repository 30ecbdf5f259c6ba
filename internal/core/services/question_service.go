package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
)

type questionService struct {
	repo ports.QuestionRepository
}

func NewQuestionService(repo ports.QuestionRepository) ports.QuestionService {
	return &questionService{
		repo: repo,
	}
}

func (s *questionService) ListQuestions(ctx context.Context, page int) (*domain.QuestionPage, error) {
	if page < 1 {
		return nil, domain.ErrPageNotFound
	}

	total, err := s.repo.CountQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	offset := (page - 1) * domain.PageSize
	// The first page is always valid, even when there is nothing to show.
	if page > 1 && offset >= total {
		return nil, domain.ErrPageNotFound
	}

	questions, err := s.repo.ListRecent(ctx, domain.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	return &domain.QuestionPage{
		Questions:  questions,
		Number:     page,
		Size:       domain.PageSize,
		TotalCount: total,
	}, nil
}

func (s *questionService) GetQuestion(ctx context.Context, id string) (*domain.Question, []domain.Choice, error) {
	question, err := s.question(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	choices, err := s.repo.ListChoices(ctx, question.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list choices: %w", err)
	}

	return question, choices, nil
}

func (s *questionService) Results(ctx context.Context, id string) (*domain.Results, error) {
	question, err := s.question(ctx, id)
	if err != nil {
		return nil, err
	}
	return assembleResults(ctx, s.repo, question)
}

func (s *questionService) question(ctx context.Context, id string) (*domain.Question, error) {
	questionID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrQuestionNotFound
	}
	return s.repo.GetQuestion(ctx, questionID)
}

func assembleResults(ctx context.Context, repo ports.QuestionRepository, question *domain.Question) (*domain.Results, error) {
	choices, err := repo.ListChoices(ctx, question.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list choices: %w", err)
	}

	previous, err := repo.PreviousQuestion(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to find previous question: %w", err)
	}

	next, err := repo.NextQuestion(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to find next question: %w", err)
	}

	return &domain.Results{
		Question: question,
		Choices:  choices,
		Previous: previous,
		Next:     next,
	}, nil
}
