// Package redis fans vote events out to every server instance over Redis
// Pub/Sub, so live results stay current behind a load balancer.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
)

func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	return c, nil
}

type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(client *redis.Client, channel string) ports.VotePublisher {
	return &Publisher{client: client, channel: channel}
}

func (p *Publisher) Publish(ctx context.Context, event domain.VoteCast) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal vote: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("error publishing vote to redis: %w", err)
	}
	return nil
}

// Close is a no-op: the client is shared with the subscriber and closed by
// its owner.
func (p *Publisher) Close() error {
	return nil
}

type Subscriber struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewSubscriber(client *redis.Client, channel string, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{client: client, channel: channel, logger: logger}
}

// Run forwards every vote received on the channel to sink until ctx is done.
func (s *Subscriber) Run(ctx context.Context, sink ports.VotePublisher) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("error subscribing to %s: %w", s.channel, err)
	}
	s.logger.Info("subscribed to vote events", "channel", s.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event domain.VoteCast
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Warn("dropping malformed vote event", "error", err)
				continue
			}
			if err := sink.Publish(ctx, event); err != nil {
				s.logger.Warn("failed to forward vote event", "question_id", event.QuestionID, "error", err)
			}
		}
	}
}
