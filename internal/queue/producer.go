package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Producer publishes score events to the queue
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishScore publishes a leaderboard score event. Callers treat this as
// fire-and-forget: the game loop logs failures and moves on.
func (p *Producer) PublishScore(ctx context.Context, event *ScoreEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, ScoreQueueName, event); err != nil {
		return fmt.Errorf("failed to publish score event: %w", err)
	}

	slog.Info("published score event",
		"event_id", event.ID,
		"player_id", event.PlayerID,
		"level_id", event.LevelID,
		"score", event.Score,
	)

	return nil
}
