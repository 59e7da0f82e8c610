package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marketcraft/marketcraft/internal/domain"
	"github.com/marketcraft/marketcraft/internal/queue"
)

// Service owns all player state transitions. Every mutation runs under one
// mutex and is written through to the store before returning, so the save
// file is never behind the in-memory state.
type Service struct {
	mu sync.Mutex

	store        Store
	catalog      Catalog
	evaluator    Evaluator
	attempts     AttemptLedger
	publisher    ScorePublisher // nil when no broker is configured
	achievements *domain.AchievementEvaluator

	now    func() time.Time
	logger *slog.Logger
}

// Config wires the service dependencies.
type Config struct {
	Store     Store
	Catalog   Catalog
	Evaluator Evaluator
	Attempts  AttemptLedger
	Publisher ScorePublisher
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewService creates the player service
func NewService(cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var levels []domain.Level
	for _, lv := range cfg.Catalog.ListLevels() {
		levels = append(levels, *lv)
	}

	return &Service{
		store:        cfg.Store,
		catalog:      cfg.Catalog,
		evaluator:    cfg.Evaluator,
		attempts:     cfg.Attempts,
		publisher:    cfg.Publisher,
		achievements: domain.NewAchievementEvaluator(cfg.Catalog.Achievements(), levels),
		now:          cfg.Now,
		logger:       cfg.Logger,
	}
}

// Create onboards a new player and persists the fresh save.
func (s *Service) Create(name, role string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := domain.NewPlayer(name, role)
	if err := s.store.Save(p); err != nil {
		return nil, fmt.Errorf("save new player: %w", err)
	}
	s.logger.Info("player created", "player_id", p.ID, "name", name, "role", role)
	return p, nil
}

// Reset wipes a save: the player record and their whole attempt history.
func (s *Service) Reset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Load(id); err != nil {
		return err
	}
	if err := s.attempts.DeleteForPlayer(id); err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	if err := s.store.Delete(id); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	s.logger.Info("player reset", "player_id", id)
	return nil
}

// Get loads a player, applying lazy regeneration and the daily rollover
// before returning. The refreshed state is written back when it changed.
func (s *Service) Get(id string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(id)
}

// Login records a daily login, updating the streak, and returns the player
// plus whether the streak changed.
func (s *Service) Login(id string) (*domain.Player, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.refresh(id)
	if err != nil {
		return nil, false, err
	}

	changed := p.RecordLogin(domain.DateKey(s.now()))
	if changed {
		if err := s.store.Save(p); err != nil {
			return nil, false, fmt.Errorf("save player: %w", err)
		}
		s.logger.Info("login recorded",
			"player_id", p.ID,
			"streak", p.Streak.CurrentStreak)
	}
	return p, changed, nil
}

// ClaimStreakBonus grants the streak XP bonus, once per day.
func (s *Service) ClaimStreakBonus(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.refresh(id)
	if err != nil {
		return 0, err
	}

	bonus := p.ClaimStreakBonus(domain.DateKey(s.now()))
	if bonus == 0 {
		return 0, nil
	}
	if err := s.store.Save(p); err != nil {
		return 0, fmt.Errorf("save player: %w", err)
	}
	s.logger.Info("streak bonus claimed", "player_id", p.ID, "xp", bonus)
	return bonus, nil
}

// SubmitOutcome bundles everything one submission changed.
type SubmitOutcome struct {
	Result          *domain.EvaluationResult `json:"result"`
	Player          *domain.Player           `json:"player"`
	LevelCompleted  bool                     `json:"level_completed"`
	FirstCompletion bool                     `json:"first_completion"`
	XPAwarded       int                      `json:"xp_awarded"`
	TokensAwarded   int                      `json:"tokens_awarded"`
	Unlocked        []domain.Achievement     `json:"unlocked,omitempty"`
}

// Submit runs the full evaluation pipeline for one level attempt and
// applies every resulting state change in a single locked transition.
func (s *Service) Submit(ctx context.Context, id string, levelID int, sub domain.Submission) (*SubmitOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.refresh(id)
	if err != nil {
		return nil, err
	}

	level, err := s.catalog.GetLevel(levelID)
	if err != nil {
		return nil, err
	}

	if !p.IsLevelUnlocked(levelID) {
		return nil, fmt.Errorf("%w: level %d", domain.ErrLevelLocked, levelID)
	}
	if p.Lives <= 0 {
		return nil, domain.ErrNoLivesLeft
	}

	prior, err := s.attempts.CountForLevel(id, levelID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	maxAttempts := level.Rubric.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	// A completed level can always be replayed for the portfolio.
	if prior >= maxAttempts && !p.HasCompleted(levelID) {
		return nil, domain.ErrNoAttemptsLeft
	}
	attempt := prior + 1

	now := s.now()
	today := domain.DateKey(now)

	p.ConsumeStamina(level.StaminaCost)

	result := s.evaluator.Evaluate(ctx, p, level, sub, attempt)

	if _, err := s.attempts.Record(id, levelID, attempt, submissionSummary(sub), result); err != nil {
		s.logger.Warn("failed to record attempt", "player_id", id, "level_id", levelID, "error", err)
	}

	outcome := &SubmitOutcome{Result: result, Player: p}

	if result.Passed {
		first := !p.HasCompleted(levelID)
		outcome.LevelCompleted = true
		outcome.FirstCompletion = first

		p.CompleteLevel(domain.PortfolioItem{
			LevelID:     levelID,
			Title:       level.Title,
			Submission:  submissionSummary(sub),
			Score:       result.Score,
			CompletedAt: now,
		}, attempt == 1, today)

		if first {
			outcome.XPAwarded = level.XPReward
			outcome.TokensAwarded = level.TokenReward
			p.AddXP(level.XPReward, today)
			p.Tokens += level.TokenReward
		}
		p.ApplyKPIDeltas(result.KPI)

		batch := s.achievements.Evaluate(p, domain.UnlockContext{
			JustScored: result.Score,
			FirstTry:   attempt == 1,
		}, now)
		if len(batch.Unlocked) > 0 {
			outcome.Unlocked = batch.Unlocked
			outcome.XPAwarded += batch.TotalXP
			p.AddXP(batch.TotalXP, today)
		}

		s.publishScore(ctx, p, level, result)
	} else {
		p.LoseLife(now)
	}

	if err := s.store.Save(p); err != nil {
		return nil, fmt.Errorf("save player: %w", err)
	}

	s.logger.Info("submission evaluated",
		"player_id", p.ID,
		"level_id", levelID,
		"attempt", attempt,
		"strategy", result.Strategy,
		"score", result.Score,
		"passed", result.Passed)

	return outcome, nil
}

// CompleteChallenge marks a daily challenge done and grants its XP, once
// per challenge per day.
func (s *Service) CompleteChallenge(id, challengeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.refresh(id)
	if err != nil {
		return 0, err
	}

	var challenge *domain.DailyChallenge
	for _, c := range s.catalog.Challenges() {
		if c.ID == challengeID {
			ch := c
			challenge = &ch
			break
		}
	}
	if challenge == nil {
		return 0, fmt.Errorf("%w: challenge %s", domain.ErrNotFound, challengeID)
	}

	today := domain.DateKey(s.now())
	p.ResetDailyIfStale(today)
	for _, done := range p.Daily.CompletedChallenges {
		if done == challengeID {
			return 0, nil
		}
	}
	p.Daily.CompletedChallenges = append(p.Daily.CompletedChallenges, challengeID)
	p.AddXP(challenge.XPReward, today)

	if err := s.store.Save(p); err != nil {
		return 0, fmt.Errorf("save player: %w", err)
	}
	return challenge.XPReward, nil
}

// AdvanceTime moves a player's in-game clock.
func (s *Service) AdvanceTime(id string, minutes int) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.refresh(id)
	if err != nil {
		return nil, err
	}
	if days := p.AdvanceTime(minutes); days > 0 {
		s.logger.Info("day advanced", "player_id", p.ID, "day", p.CurrentDay)
	}
	if err := s.store.Save(p); err != nil {
		return nil, fmt.Errorf("save player: %w", err)
	}
	return p, nil
}

// SetClockedIn toggles the workday flag.
func (s *Service) SetClockedIn(id string, clockedIn bool) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.refresh(id)
	if err != nil {
		return nil, err
	}
	p.ClockedIn = clockedIn
	if err := s.store.Save(p); err != nil {
		return nil, fmt.Errorf("save player: %w", err)
	}
	return p, nil
}

// RegenerateAll applies elapsed-time regeneration to every saved player.
// The scheduler calls this on a fixed interval; the same math also runs
// lazily on access, so a missed tick costs nothing.
func (s *Service) RegenerateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.store.List()
	if err != nil {
		s.logger.Warn("failed to list players for regen", "error", err)
		return
	}

	now := s.now()
	for _, id := range ids {
		p, err := s.store.Load(id)
		if err != nil {
			s.logger.Warn("failed to load player for regen", "player_id", id, "error", err)
			continue
		}
		lives := p.RegenerateLives(now)
		stamina := p.RegenerateStamina(now)
		if lives == 0 && stamina == 0 {
			continue
		}
		if err := s.store.Save(p); err != nil {
			s.logger.Warn("failed to save regenerated player", "player_id", id, "error", err)
			continue
		}
		s.logger.Debug("regenerated",
			"player_id", id,
			"lives_granted", lives,
			"stamina_granted", stamina)
	}
}

// LevelView is a level as presented to a player, with lock state.
type LevelView struct {
	Level     *domain.Level `json:"level"`
	Unlocked  bool          `json:"unlocked"`
	Completed bool          `json:"completed"`
}

// Levels returns the catalog annotated with the player's progress.
func (s *Service) Levels(id string) ([]LevelView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.refresh(id)
	if err != nil {
		return nil, err
	}

	var views []LevelView
	for _, lv := range s.catalog.ListLevels() {
		views = append(views, LevelView{
			Level:     lv,
			Unlocked:  p.IsLevelUnlocked(lv.ID),
			Completed: p.HasCompleted(lv.ID),
		})
	}
	return views, nil
}

// refresh loads a player and applies time-based catch-up. Callers hold the
// service mutex.
func (s *Service) refresh(id string) (*domain.Player, error) {
	p, err := s.store.Load(id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	lives := p.RegenerateLives(now)
	stamina := p.RegenerateStamina(now)
	staleDaily := p.Daily.Date != "" && p.Daily.Date != domain.DateKey(now)
	p.ResetDailyIfStale(domain.DateKey(now))

	if lives > 0 || stamina > 0 || staleDaily {
		if err := s.store.Save(p); err != nil {
			return nil, fmt.Errorf("save refreshed player: %w", err)
		}
	}
	return p, nil
}

// publishScore emits the leaderboard event. Failures are logged and
// swallowed; the submission result never depends on the broker.
func (s *Service) publishScore(ctx context.Context, p *domain.Player, level *domain.Level, result *domain.EvaluationResult) {
	if s.publisher == nil {
		return
	}
	event := &queue.ScoreEvent{
		PlayerID:     p.ID.String(),
		PlayerName:   p.Name,
		LevelID:      level.ID,
		Score:        result.Score,
		XP:           p.XP,
		Streak:       p.Streak.CurrentStreak,
		LevelsPassed: len(p.CompletedLevels),
	}
	if err := s.publisher.PublishScore(ctx, event); err != nil {
		s.logger.Warn("failed to publish score event",
			"player_id", p.ID,
			"level_id", level.ID,
			"error", err)
	}
}

func submissionSummary(sub domain.Submission) string {
	switch {
	case sub.Text != "":
		return sub.Text
	case sub.Choice != "":
		return sub.Choice
	case len(sub.Blanks) > 0:
		return fmt.Sprintf("%v", sub.Blanks)
	case len(sub.Order) > 0:
		return fmt.Sprintf("%v", sub.Order)
	case len(sub.Pairs) > 0:
		return fmt.Sprintf("%d pairs", len(sub.Pairs))
	case len(sub.Classes) > 0:
		return fmt.Sprintf("%d classifications", len(sub.Classes))
	}
	return ""
}
