package domain

import (
	"time"

	"github.com/google/uuid"
)

// Results is the read-only view of a question's tally together with its
// neighbours by publish time.
type Results struct {
	Question *Question
	Choices  []Choice
	Previous *Question
	Next     *Question
}

func (r *Results) TotalVotes() int64 {
	var total int64
	for _, c := range r.Choices {
		total += c.Votes
	}
	return total
}

// Share returns the percentage of all votes held by c.
func (r *Results) Share(c Choice) float64 {
	total := r.TotalVotes()
	if total == 0 {
		return 0
	}
	return float64(c.Votes) / float64(total) * 100
}

// VoteCast is emitted after a vote has been persisted.
type VoteCast struct {
	QuestionID uuid.UUID `json:"question_id"`
	ChoiceID   uuid.UUID `json:"choice_id"`
	Votes      int64     `json:"votes"`
	CastAt     time.Time `json:"cast_at"`
}
