package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketcraft/marketcraft/internal/domain"
)

// AttemptRecord is one graded submission as stored in the history ledger.
type AttemptRecord struct {
	ID         string                   `json:"id"`
	PlayerID   string                   `json:"player_id"`
	LevelID    int                      `json:"level_id"`
	Attempt    int                      `json:"attempt"`
	Submission string                   `json:"submission"`
	Result     *domain.EvaluationResult `json:"result"`
	CreatedAt  time.Time                `json:"created_at"`
}

// AttemptStore persists the evaluation attempt history in SQLite.
type AttemptStore struct {
	db *DB
}

// NewAttemptStore creates a SQLite-backed attempt store
func NewAttemptStore(db *DB) *AttemptStore {
	return &AttemptStore{db: db}
}

// Record appends one attempt to the ledger and returns its id.
func (s *AttemptStore) Record(playerID string, levelID, attempt int, submission string, result *domain.EvaluationResult) (string, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO attempts (id, player_id, level_id, attempt, strategy,
			provider, degraded, score, passed, submission, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, playerID, levelID, attempt, result.Strategy,
		result.Provider, boolToInt(result.Degraded), result.Score,
		boolToInt(result.Passed), submission, string(resultJSON), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}

// History returns a player's attempts for one level, oldest first.
func (s *AttemptStore) History(playerID string, levelID int) ([]AttemptRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, player_id, level_id, attempt, submission, result, created_at
		FROM attempts
		WHERE player_id = ? AND level_id = ?
		ORDER BY created_at ASC`, playerID, levelID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// Recent returns a player's most recent attempts across all levels.
func (s *AttemptStore) Recent(playerID string, limit int) ([]AttemptRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, player_id, level_id, attempt, submission, result, created_at
		FROM attempts
		WHERE player_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// CountForLevel returns how many attempts a player has made at a level.
// The attempt budget check uses this, not in-memory state, so restarts do
// not reset the count.
func (s *AttemptStore) CountForLevel(playerID string, levelID int) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM attempts WHERE player_id = ? AND level_id = ?`,
		playerID, levelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

// Stats aggregates a player's attempt history.
type AttemptStats struct {
	Total     int     `json:"total"`
	Passed    int     `json:"passed"`
	Degraded  int     `json:"degraded"`
	AvgScore  float64 `json:"avg_score"`
	BestScore int     `json:"best_score"`
}

// Stats returns aggregate numbers over a player's whole ledger.
func (s *AttemptStore) Stats(playerID string) (AttemptStats, error) {
	var st AttemptStats
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(passed), 0),
			COALESCE(SUM(degraded), 0),
			COALESCE(AVG(score), 0),
			COALESCE(MAX(score), 0)
		FROM attempts WHERE player_id = ?`, playerID).
		Scan(&st.Total, &st.Passed, &st.Degraded, &st.AvgScore, &st.BestScore)
	if err != nil {
		return AttemptStats{}, fmt.Errorf("attempt stats: %w", err)
	}
	return st, nil
}

// DeleteForPlayer removes a player's whole history (save wipe).
func (s *AttemptStore) DeleteForPlayer(playerID string) error {
	if _, err := s.db.Exec("DELETE FROM attempts WHERE player_id = ?", playerID); err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	return nil
}

func scanAttempts(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]AttemptRecord, error) {
	var records []AttemptRecord
	for rows.Next() {
		var rec AttemptRecord
		var resultJSON string
		if err := rows.Scan(&rec.ID, &rec.PlayerID, &rec.LevelID, &rec.Attempt,
			&rec.Submission, &resultJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
