package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWasPublishedRecently(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		publishedAt time.Time
		want        bool
	}{
		{"future question", now.Add(30 * 24 * time.Hour), false},
		{"one second in the future", now.Add(time.Second), false},
		{"older than a day", now.Add(-24*time.Hour - time.Second), false},
		{"exactly one day old", now.Add(-24 * time.Hour), true},
		{"just under a day old", now.Add(-23*time.Hour - 59*time.Minute - 59*time.Second), true},
		{"published now", now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{Text: "What's up?", PublishedAt: tt.publishedAt}
			assert.Equal(t, tt.want, q.WasPublishedRecently(now))
		})
	}
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "What is your favorite color?", Question{Text: "What is your favorite color?"}.String())
	assert.Equal(t, "Blue", Choice{Text: "Blue"}.String())
}

func TestQuestionPage(t *testing.T) {
	empty := &QuestionPage{Number: 1, Size: PageSize}
	assert.Equal(t, 1, empty.TotalPages())
	assert.False(t, empty.HasNext())
	assert.False(t, empty.HasPrevious())

	first := &QuestionPage{Number: 1, Size: PageSize, TotalCount: 6}
	assert.Equal(t, 2, first.TotalPages())
	assert.True(t, first.HasNext())
	assert.Equal(t, 2, first.NextNumber())

	second := &QuestionPage{Number: 2, Size: PageSize, TotalCount: 6}
	assert.False(t, second.HasNext())
	assert.True(t, second.HasPrevious())
	assert.Equal(t, 1, second.PreviousNumber())
}

func TestResultsShare(t *testing.T) {
	r := &Results{Choices: []Choice{{Text: "a", Votes: 3}, {Text: "b", Votes: 1}}}
	assert.Equal(t, int64(4), r.TotalVotes())
	assert.InDelta(t, 75.0, r.Share(r.Choices[0]), 0.001)

	none := &Results{Choices: []Choice{{Text: "a"}}}
	assert.Zero(t, none.Share(none.Choices[0]))
}
