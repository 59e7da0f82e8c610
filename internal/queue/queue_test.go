package queue_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marketcraft/marketcraft/internal/queue"
)

func TestScoreEvent_Fields(t *testing.T) {
	event := queue.ScoreEvent{
		ID:         uuid.New(),
		PlayerID:   "player-1",
		PlayerName: "Casey",
		LevelID:    4,
		Score:      92,
		XP:         1200,
		Streak:     7,
		OccurredAt: time.Now(),
	}

	if event.ID == uuid.Nil {
		t.Error("event ID should not be nil")
	}
	if event.PlayerID == "" || event.PlayerName == "" {
		t.Error("player identity should be set")
	}
	if event.Score != 92 || event.LevelID != 4 {
		t.Errorf("event = %+v", event)
	}
}

func TestDefaultConsumerConfig(t *testing.T) {
	cfg := queue.DefaultConsumerConfig()

	if cfg.Workers != 2 {
		t.Errorf("Default Workers = %d; want 2", cfg.Workers)
	}
	if cfg.Prefetch != 1 {
		t.Errorf("Default Prefetch = %d; want 1", cfg.Prefetch)
	}
}

func TestConsumerConfig_ZeroValues(t *testing.T) {
	cfg := queue.ConsumerConfig{}

	if cfg.Workers != 0 || cfg.Prefetch != 0 {
		t.Errorf("zero config = %+v", cfg)
	}
}
