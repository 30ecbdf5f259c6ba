package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

const reportConcurrency = 8

type adminService struct {
	repo ports.QuestionRepository
	now  func() time.Time
}

func NewAdminService(repo ports.QuestionRepository) ports.AdminService {
	return &adminService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *adminService) CreateQuestion(ctx context.Context, input ports.CreateQuestionInput) (*domain.Question, []domain.Choice, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, nil, domain.ErrEmptyText
	}

	now := s.now().UTC()
	publishedAt := now
	if input.PublishedAt != nil {
		publishedAt = input.PublishedAt.UTC()
	}

	question := &domain.Question{
		ID:          uuid.New(),
		Text:        text,
		PublishedAt: publishedAt,
	}

	var choices []domain.Choice
	for i, choiceText := range input.Choices {
		choiceText = strings.TrimSpace(choiceText)
		if choiceText == "" {
			continue
		}
		choices = append(choices, domain.Choice{
			ID:         uuid.New(),
			QuestionID: question.ID,
			Text:       choiceText,
			// Keeps insertion order stable when listing choices.
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		})
	}

	if err := s.repo.SaveQuestion(ctx, question, choices); err != nil {
		return nil, nil, fmt.Errorf("failed to save question: %w", err)
	}

	return question, choices, nil
}

func (s *adminService) AddChoice(ctx context.Context, questionID string, text string) (*domain.Choice, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyText
	}

	id, err := uuid.Parse(questionID)
	if err != nil {
		return nil, domain.ErrQuestionNotFound
	}

	question, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}

	choice := &domain.Choice{
		ID:         uuid.New(),
		QuestionID: question.ID,
		Text:       text,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.AddChoice(ctx, choice); err != nil {
		return nil, fmt.Errorf("failed to add choice: %w", err)
	}

	return choice, nil
}

func (s *adminService) DeleteQuestion(ctx context.Context, questionID string) error {
	id, err := uuid.Parse(questionID)
	if err != nil {
		return domain.ErrQuestionNotFound
	}
	return s.repo.DeleteQuestion(ctx, id)
}

func (s *adminService) Report(ctx context.Context) ([]*domain.Results, error) {
	questions, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch all questions: %w", err)
	}

	reports := make([]*domain.Results, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for i, question := range questions {
		g.Go(func() error {
			results, err := assembleResults(gctx, s.repo, question)
			if err != nil {
				return fmt.Errorf("failed to assemble results for question %s: %w", question.ID, err)
			}
			reports[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}
