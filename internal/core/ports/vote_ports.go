package ports

import (
	"context"

	"github.com/vncsmyrnk/polls/internal/core/domain"
)

type VoteInput struct {
	QuestionID string
	ChoiceID   string
}

type VoteService interface {
	CastVote(ctx context.Context, input VoteInput) (*domain.VoteCast, error)
}

// VotePublisher receives every accepted vote.
type VotePublisher interface {
	Publish(ctx context.Context, event domain.VoteCast) error
	Close() error
}

type VoteRecorder interface {
	VoteAccepted()
	VoteRejected(reason string)
}
