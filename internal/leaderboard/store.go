package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marketcraft/marketcraft/internal/queue"
)

// Entry is one leaderboard row.
type Entry struct {
	PlayerID     string    `json:"player_id"`
	PlayerName   string    `json:"player_name"`
	TotalXP      int       `json:"total_xp"`
	BestScore    int       `json:"best_score"`
	LevelsPassed int       `json:"levels_passed"`
	BestStreak   int       `json:"best_streak"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store persists leaderboard standings in Postgres. The leaderboard is a
// shared, cross-save surface; it lives outside the per-player save files.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects a pgx pool to the leaderboard database
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema creates the leaderboard table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS leaderboard (
			player_id     TEXT PRIMARY KEY,
			player_name   TEXT NOT NULL,
			total_xp      BIGINT NOT NULL DEFAULT 0,
			best_score    INT NOT NULL DEFAULT 0,
			levels_passed INT NOT NULL DEFAULT 0,
			best_streak   INT NOT NULL DEFAULT 0,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create leaderboard table: %w", err)
	}
	return nil
}

// Apply folds one score event into the standings. Every field carries the
// player's running total, not a delta, so replays and redeliveries are
// idempotent: GREATEST folds make each column monotonic.
func (s *Store) Apply(ctx context.Context, event *queue.ScoreEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leaderboard (player_id, player_name, total_xp, best_score, levels_passed, best_streak, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (player_id) DO UPDATE SET
			player_name   = excluded.player_name,
			total_xp      = GREATEST(leaderboard.total_xp, excluded.total_xp),
			best_score    = GREATEST(leaderboard.best_score, excluded.best_score),
			levels_passed = GREATEST(leaderboard.levels_passed, excluded.levels_passed),
			best_streak   = GREATEST(leaderboard.best_streak, excluded.best_streak),
			updated_at    = now()`,
		event.PlayerID, event.PlayerName, event.XP, event.Score, event.LevelsPassed, event.Streak)
	if err != nil {
		return fmt.Errorf("apply score event: %w", err)
	}
	return nil
}

// Top returns the highest-XP entries.
func (s *Store) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, player_name, total_xp, best_score, levels_passed, best_streak, updated_at
		FROM leaderboard
		ORDER BY total_xp DESC, best_score DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PlayerID, &e.PlayerName, &e.TotalXP, &e.BestScore,
			&e.LevelsPassed, &e.BestStreak, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Rank returns a player's 1-based position, or zero when unranked.
func (s *Store) Rank(ctx context.Context, playerID string) (int, error) {
	var rank int
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE((
			SELECT pos FROM (
				SELECT player_id, ROW_NUMBER() OVER (ORDER BY total_xp DESC, best_score DESC) AS pos
				FROM leaderboard
			) ranked WHERE player_id = $1
		), 0)`, playerID).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("query rank: %w", err)
	}
	return rank, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
