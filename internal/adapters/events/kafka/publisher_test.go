package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/polls/internal/core/domain"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisherKeysByQuestion(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	event := domain.VoteCast{
		QuestionID: uuid.New(),
		ChoiceID:   uuid.New(),
		Votes:      3,
		CastAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, event.QuestionID.String(), string(msg.Key))

	var decoded domain.VoteCast
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ChoiceID, decoded.ChoiceID)
	assert.Equal(t, int64(3), decoded.Votes)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisherWrapsWriteErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := &Publisher{writer: &fakeWriter{err: boom}}

	err := p.Publish(context.Background(), domain.VoteCast{QuestionID: uuid.New()})
	assert.ErrorIs(t, err, boom)
}
