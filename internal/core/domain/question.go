package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecentWindow is how far back a question still counts as recently published.
const RecentWindow = 24 * time.Hour

type Question struct {
	ID          uuid.UUID `json:"id"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
}

// WasPublishedRecently reports whether q was published within the last day
// relative to now. Questions dated in the future are never recent.
func (q Question) WasPublishedRecently(now time.Time) bool {
	return !q.PublishedAt.Before(now.Add(-RecentWindow)) && !q.PublishedAt.After(now)
}

func (q Question) String() string {
	return q.Text
}

type Choice struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	Votes      int64     `json:"votes"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c Choice) String() string {
	return c.Text
}
