package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
)

type voteService struct {
	repo       ports.QuestionRepository
	recorder   ports.VoteRecorder
	publishers []ports.VotePublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewVoteService(repo ports.QuestionRepository, recorder ports.VoteRecorder, logger *slog.Logger, publishers ...ports.VotePublisher) ports.VoteService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &voteService{
		repo:       repo,
		recorder:   recorder,
		publishers: publishers,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *voteService) CastVote(ctx context.Context, input ports.VoteInput) (*domain.VoteCast, error) {
	questionID, err := uuid.Parse(input.QuestionID)
	if err != nil {
		s.recorder.VoteRejected("question_not_found")
		return nil, domain.ErrQuestionNotFound
	}

	question, err := s.repo.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			s.recorder.VoteRejected("question_not_found")
		}
		return nil, err
	}

	choiceID, err := uuid.Parse(strings.TrimSpace(input.ChoiceID))
	if err != nil {
		s.recorder.VoteRejected("invalid_choice")
		return nil, domain.ErrInvalidChoice
	}

	if _, err := s.repo.GetChoice(ctx, question.ID, choiceID); err != nil {
		if errors.Is(err, domain.ErrChoiceNotFound) {
			s.recorder.VoteRejected("invalid_choice")
			return nil, domain.ErrInvalidChoice
		}
		return nil, fmt.Errorf("failed to get choice: %w", err)
	}

	votes, err := s.repo.IncrementVotes(ctx, question.ID, choiceID)
	if err != nil {
		// The choice may have been deleted since it was looked up.
		if errors.Is(err, domain.ErrChoiceNotFound) {
			s.recorder.VoteRejected("invalid_choice")
			return nil, domain.ErrInvalidChoice
		}
		return nil, fmt.Errorf("failed to increment votes: %w", err)
	}

	event := domain.VoteCast{
		QuestionID: question.ID,
		ChoiceID:   choiceID,
		Votes:      votes,
		CastAt:     s.now().UTC(),
	}
	s.recorder.VoteAccepted()
	s.publish(ctx, event)

	return &event, nil
}

func (s *voteService) publish(ctx context.Context, event domain.VoteCast) {
	for _, p := range s.publishers {
		if err := p.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish vote",
				"question_id", event.QuestionID,
				"choice_id", event.ChoiceID,
				"error", err,
			)
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) VoteAccepted()       {}
func (nopRecorder) VoteRejected(string) {}
