package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marketcraft/marketcraft/internal/queue"
)

// Worker drains score events from the queue into the Postgres standings.
// It runs inside the daemon when both the broker and database are
// configured; without them the leaderboard simply stays empty.
type Worker struct {
	store    *Store
	consumer *queue.Consumer
	logger   *slog.Logger
}

// NewWorker wires a consumer to the leaderboard store
func NewWorker(conn *queue.Connection, store *Store, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{store: store, logger: logger}
	w.consumer = queue.NewConsumer(conn, w.handle, queue.DefaultConsumerConfig())
	return w
}

// Start begins consuming score events.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure leaderboard schema: %w", err)
	}
	if err := w.consumer.Start(ctx); err != nil {
		return fmt.Errorf("start leaderboard consumer: %w", err)
	}
	w.logger.Info("leaderboard worker started")
	return nil
}

// Stop drains workers and stops consuming.
func (w *Worker) Stop() {
	w.consumer.Stop()
}

func (w *Worker) handle(ctx context.Context, event *queue.ScoreEvent) error {
	if err := w.store.Apply(ctx, event); err != nil {
		return err
	}
	w.logger.Debug("leaderboard updated",
		"player_id", event.PlayerID,
		"score", event.Score,
		"xp", event.XP)
	return nil
}
