//go:build integration

package leaderboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/marketcraft/marketcraft/internal/leaderboard"
	"github.com/marketcraft/marketcraft/internal/queue"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupPostgres(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("marketcraft"),
		postgres.WithUsername("marketcraft"),
		postgres.WithPassword("marketcraft"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get connection string: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return dsn, cleanup
}

func openStore(t *testing.T) (*leaderboard.Store, func()) {
	dsn, cleanup := setupPostgres(t)

	ctx := context.Background()
	store, err := leaderboard.NewStore(ctx, dsn)
	if err != nil {
		cleanup()
		t.Fatalf("failed to connect store: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		cleanup()
		t.Fatalf("failed to ensure schema: %v", err)
	}
	return store, func() {
		store.Close()
		cleanup()
	}
}

func TestIntegration_Store_ApplyAndTop(t *testing.T) {
	store, cleanup := openStore(t)
	defer cleanup()
	ctx := context.Background()

	events := []*queue.ScoreEvent{
		{PlayerID: "p1", PlayerName: "Casey", LevelID: 1, Score: 80, XP: 100, Streak: 1, LevelsPassed: 1},
		{PlayerID: "p1", PlayerName: "Casey", LevelID: 2, Score: 95, XP: 250, Streak: 2, LevelsPassed: 2},
		{PlayerID: "p2", PlayerName: "Riley", LevelID: 1, Score: 70, XP: 90, Streak: 1, LevelsPassed: 1},
	}
	for _, e := range events {
		e.OccurredAt = time.Now()
		if err := store.Apply(ctx, e); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}

	top, err := store.Top(ctx, 10)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Top() = %d entries, want 2", len(top))
	}
	if top[0].PlayerID != "p1" {
		t.Errorf("leader = %q, want p1", top[0].PlayerID)
	}
	if top[0].TotalXP != 250 || top[0].BestScore != 95 || top[0].LevelsPassed != 2 {
		t.Errorf("leader entry = %+v", top[0])
	}
}

func TestIntegration_Store_XPIsMonotonic(t *testing.T) {
	store, cleanup := openStore(t)
	defer cleanup()
	ctx := context.Background()

	// An out-of-order or duplicate event must never lower the standings.
	store.Apply(ctx, &queue.ScoreEvent{PlayerID: "p1", PlayerName: "Casey", XP: 500, Score: 90})
	store.Apply(ctx, &queue.ScoreEvent{PlayerID: "p1", PlayerName: "Casey", XP: 300, Score: 60})

	top, err := store.Top(ctx, 1)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if top[0].TotalXP != 500 || top[0].BestScore != 90 {
		t.Errorf("entry = %+v, want xp 500 best 90", top[0])
	}
}

func TestIntegration_Store_ReplayDoesNotInflateLevels(t *testing.T) {
	store, cleanup := openStore(t)
	defer cleanup()
	ctx := context.Background()

	// Replaying an already-completed level publishes the same running
	// count; the standings must not count the level twice.
	store.Apply(ctx, &queue.ScoreEvent{PlayerID: "p1", PlayerName: "Casey", LevelID: 1, XP: 100, Score: 80, LevelsPassed: 1})
	store.Apply(ctx, &queue.ScoreEvent{PlayerID: "p1", PlayerName: "Casey", LevelID: 1, XP: 100, Score: 88, LevelsPassed: 1})

	top, err := store.Top(ctx, 1)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if top[0].LevelsPassed != 1 {
		t.Errorf("LevelsPassed = %d, want 1 after replay", top[0].LevelsPassed)
	}
	if top[0].BestScore != 88 {
		t.Errorf("BestScore = %d, want 88", top[0].BestScore)
	}
}

func TestIntegration_Store_Rank(t *testing.T) {
	store, cleanup := openStore(t)
	defer cleanup()
	ctx := context.Background()

	store.Apply(ctx, &queue.ScoreEvent{PlayerID: "p1", PlayerName: "Casey", XP: 500, Score: 90})
	store.Apply(ctx, &queue.ScoreEvent{PlayerID: "p2", PlayerName: "Riley", XP: 700, Score: 85})

	rank, err := store.Rank(ctx, "p1")
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if rank != 2 {
		t.Errorf("Rank(p1) = %d, want 2", rank)
	}

	rank, err = store.Rank(ctx, "nobody")
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if rank != 0 {
		t.Errorf("Rank(nobody) = %d, want 0", rank)
	}
}
