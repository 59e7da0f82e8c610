package player

import (
	"context"

	"github.com/marketcraft/marketcraft/internal/domain"
	"github.com/marketcraft/marketcraft/internal/queue"
)

// Store persists player aggregates.
type Store interface {
	Save(p *domain.Player) error
	Load(id string) (*domain.Player, error)
	Delete(id string) error
	List() ([]string, error)
}

// Catalog is the read-only content surface the service needs.
type Catalog interface {
	GetLevel(id int) (*domain.Level, error)
	ListLevels() []*domain.Level
	Achievements() []domain.Achievement
	Challenges() []domain.DailyChallenge
}

// Evaluator grades one submission attempt.
type Evaluator interface {
	Evaluate(ctx context.Context, p *domain.Player, level *domain.Level, sub domain.Submission, attempt int) *domain.EvaluationResult
}

// AttemptLedger records and counts graded submissions.
type AttemptLedger interface {
	Record(playerID string, levelID, attempt int, submission string, result *domain.EvaluationResult) (string, error)
	CountForLevel(playerID string, levelID int) (int, error)
	DeleteForPlayer(playerID string) error
}

// ScorePublisher sends passing results toward the leaderboard.
type ScorePublisher interface {
	PublishScore(ctx context.Context, event *queue.ScoreEvent) error
}
