package daemon

import (
	"context"
	"errors"

	"github.com/marketcraft/marketcraft/internal/domain"
	"github.com/marketcraft/marketcraft/internal/leaderboard"
	"github.com/marketcraft/marketcraft/internal/player"
	"github.com/marketcraft/marketcraft/internal/storage/sqlite"
)

// mockGame is a scripted GameService for handler tests.
type mockGame struct {
	player        *domain.Player
	outcome       *player.SubmitOutcome
	levels        []player.LevelView
	streakChanged bool
	bonus         int
	challengeXP   int
	err           error

	lastSubmitLevel int
	lastChallenge   string
	resetID         string
}

func (m *mockGame) Create(name, role string) (*domain.Player, error) {
	if m.err != nil {
		return nil, m.err
	}
	p := domain.NewPlayer(name, role)
	m.player = p
	return p, nil
}

func (m *mockGame) Get(id string) (*domain.Player, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.player, nil
}

func (m *mockGame) Login(id string) (*domain.Player, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return m.player, m.streakChanged, nil
}

func (m *mockGame) ClaimStreakBonus(id string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.bonus, nil
}

func (m *mockGame) Reset(id string) error {
	m.resetID = id
	return m.err
}

func (m *mockGame) Submit(ctx context.Context, id string, levelID int, sub domain.Submission) (*player.SubmitOutcome, error) {
	m.lastSubmitLevel = levelID
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

func (m *mockGame) CompleteChallenge(id, challengeID string) (int, error) {
	m.lastChallenge = challengeID
	if m.err != nil {
		return 0, m.err
	}
	return m.challengeXP, nil
}

func (m *mockGame) AdvanceTime(id string, minutes int) (*domain.Player, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.player, nil
}

func (m *mockGame) SetClockedIn(id string, clockedIn bool) (*domain.Player, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.player, nil
}

func (m *mockGame) Levels(id string) ([]player.LevelView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.levels, nil
}

// mockAttempts is a canned AttemptReader.
type mockAttempts struct {
	records []sqlite.AttemptRecord
	stats   sqlite.AttemptStats
	err     error
}

func (m *mockAttempts) History(playerID string, levelID int) ([]sqlite.AttemptRecord, error) {
	return m.records, m.err
}

func (m *mockAttempts) Recent(playerID string, limit int) ([]sqlite.AttemptRecord, error) {
	return m.records, m.err
}

func (m *mockAttempts) Stats(playerID string) (sqlite.AttemptStats, error) {
	return m.stats, m.err
}

// mockBoard is a canned Scoreboard.
type mockBoard struct {
	entries []leaderboard.Entry
	rank    int
	err     error
}

func (m *mockBoard) Top(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.entries) {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

func (m *mockBoard) Rank(ctx context.Context, playerID string) (int, error) {
	return m.rank, m.err
}

// mockCatalog is a fixed CatalogView.
type mockCatalog struct {
	levels     []*domain.Level
	challenges []domain.DailyChallenge
}

func (m *mockCatalog) ListLevels() []*domain.Level         { return m.levels }
func (m *mockCatalog) Challenges() []domain.DailyChallenge { return m.challenges }

var errBoom = errors.New("boom")
