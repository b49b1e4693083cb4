// Package events notifies downstream consumers (reputation, analytics) of
// content milestones. Emission is fire-and-forget: a failed publish never
// fails the originating request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type QuestionCreated struct {
	QuestionID string    `json:"question_id"`
	AuthorID   string    `json:"author_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

type Sink interface {
	QuestionCreated(ctx context.Context, event QuestionCreated) error
}

// RedisSink publishes events as JSON on a pub/sub channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) QuestionCreated(ctx context.Context, event QuestionCreated) error {
	payload, err := json.Marshal(map[string]any{
		"type":  "question.created",
		"event": event,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// LogSink is the fallback when no broker is configured.
type LogSink struct{}

func (LogSink) QuestionCreated(_ context.Context, event QuestionCreated) error {
	log.Printf("event question.created id=%s author=%s", event.QuestionID, event.AuthorID)
	return nil
}
