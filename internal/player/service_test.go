package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/marketcraft/marketcraft/internal/domain"
	"github.com/marketcraft/marketcraft/internal/queue"
)

type memStore struct {
	players map[string]*domain.Player
}

func newMemStore() *memStore {
	return &memStore{players: make(map[string]*domain.Player)}
}

func (m *memStore) Save(p *domain.Player) error {
	cp := *p
	m.players[p.ID.String()] = &cp
	return nil
}

func (m *memStore) Load(id string) (*domain.Player, error) {
	p, ok := m.players[id]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) Delete(id string) error {
	delete(m.players, id)
	return nil
}

func (m *memStore) List() ([]string, error) {
	var ids []string
	for id := range m.players {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeCatalog struct {
	levels       []*domain.Level
	achievements []domain.Achievement
	challenges   []domain.DailyChallenge
}

func (f *fakeCatalog) GetLevel(id int) (*domain.Level, error) {
	for _, lv := range f.levels {
		if lv.ID == id {
			return lv, nil
		}
	}
	return nil, domain.ErrLevelNotFound
}

func (f *fakeCatalog) ListLevels() []*domain.Level              { return f.levels }
func (f *fakeCatalog) Achievements() []domain.Achievement      { return f.achievements }
func (f *fakeCatalog) Challenges() []domain.DailyChallenge     { return f.challenges }

type fakeEvaluator struct {
	result *domain.EvaluationResult
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, p *domain.Player, level *domain.Level, sub domain.Submission, attempt int) *domain.EvaluationResult {
	r := *f.result
	return &r
}

type fakeLedger struct {
	counts  map[string]int
	records int
}

func ledgerKey(playerID string, levelID int) string {
	return fmt.Sprintf("%s/%d", playerID, levelID)
}

func (f *fakeLedger) Record(playerID string, levelID, attempt int, submission string, result *domain.EvaluationResult) (string, error) {
	f.records++
	f.counts[ledgerKey(playerID, levelID)]++
	return "rec", nil
}

func (f *fakeLedger) CountForLevel(playerID string, levelID int) (int, error) {
	return f.counts[ledgerKey(playerID, levelID)], nil
}

func (f *fakeLedger) DeleteForPlayer(playerID string) error {
	for key := range f.counts {
		if strings.HasPrefix(key, playerID+"/") {
			delete(f.counts, key)
		}
	}
	return nil
}

type fakePublisher struct {
	events []*queue.ScoreEvent
	err    error
}

func (f *fakePublisher) PublishScore(ctx context.Context, event *queue.ScoreEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fixture struct {
	svc       *Service
	store     *memStore
	evaluator *fakeEvaluator
	ledger    *fakeLedger
	publisher *fakePublisher
	now       *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)
	f := &fixture{
		store: newMemStore(),
		evaluator: &fakeEvaluator{result: &domain.EvaluationResult{
			Score: 85, Passed: true, Strategy: "ai",
			KPI: domain.KPIDeltas{Leads: 5},
		}},
		ledger:    &fakeLedger{counts: make(map[string]int)},
		publisher: &fakePublisher{},
		now:       &now,
	}

	cat := &fakeCatalog{
		levels: []*domain.Level{
			{ID: 1, RoomID: "lab", Title: "Headline", XPReward: 100, TokenReward: 10, StaminaCost: 10,
				Rubric: domain.Rubric{PassingScore: 70, MaxAttempts: 3}},
			{ID: 2, RoomID: "lab", Title: "Variant", XPReward: 120, TokenReward: 15,
				Rubric: domain.Rubric{PassingScore: 70, MaxAttempts: 2}},
		},
		achievements: []domain.Achievement{
			{ID: "first-steps", Requirement: domain.ReqLevelsCompleted, Threshold: 1, XPReward: 50},
			{ID: "lab-done", Requirement: domain.ReqRoomComplete, RoomID: "lab", XPReward: 150},
		},
		challenges: []domain.DailyChallenge{
			{ID: "quick-win", Tier: domain.TierEasy, XPReward: 20},
		},
	}

	f.svc = NewService(Config{
		Store:     f.store,
		Catalog:   cat,
		Evaluator: f.evaluator,
		Attempts:  f.ledger,
		Publisher: f.publisher,
		Now:       func() time.Time { return *f.now },
	})
	return f
}

func (f *fixture) createPlayer(t *testing.T) *domain.Player {
	t.Helper()
	p, err := f.svc.Create("Casey", "growth")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return p
}

func TestService_CreatePersists(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)

	loaded, err := f.svc.Get(p.ID.String())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.Name != "Casey" || loaded.Lives != domain.MaxLives {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestService_SubmitPass(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)

	outcome, err := f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "draft"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !outcome.LevelCompleted || !outcome.FirstCompletion {
		t.Errorf("outcome = %+v", outcome)
	}
	// Level XP plus the first-steps achievement.
	if outcome.XPAwarded != 150 {
		t.Errorf("XPAwarded = %d, want 150", outcome.XPAwarded)
	}
	if outcome.TokensAwarded != 10 {
		t.Errorf("TokensAwarded = %d, want 10", outcome.TokensAwarded)
	}
	if len(outcome.Unlocked) != 1 || outcome.Unlocked[0].ID != "first-steps" {
		t.Errorf("Unlocked = %+v", outcome.Unlocked)
	}

	saved, _ := f.store.Load(p.ID.String())
	if saved.XP != 150 || saved.Tokens != 10 {
		t.Errorf("saved XP/Tokens = %d/%d", saved.XP, saved.Tokens)
	}
	if !saved.HasCompleted(1) {
		t.Error("level 1 should be completed")
	}
	if saved.Stamina != domain.MaxStamina-10 {
		t.Errorf("Stamina = %d, want cost consumed", saved.Stamina)
	}
	if saved.KPI.Leads != 5 {
		t.Errorf("KPI.Leads = %d, want applied deltas", saved.KPI.Leads)
	}
	if len(saved.Portfolio) != 1 || saved.Portfolio[0].Score != 85 {
		t.Errorf("Portfolio = %+v", saved.Portfolio)
	}

	if f.ledger.records != 1 {
		t.Errorf("ledger records = %d, want 1", f.ledger.records)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Score != 85 {
		t.Errorf("published events = %+v", f.publisher.events)
	}
	if f.publisher.events[0].LevelsPassed != 1 {
		t.Errorf("LevelsPassed = %d, want running count 1", f.publisher.events[0].LevelsPassed)
	}
}

func TestService_ReplayPublishesSameLevelCount(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)

	f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "first"})
	f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "retake"})

	if len(f.publisher.events) != 2 {
		t.Fatalf("published events = %d, want 2", len(f.publisher.events))
	}
	// A replay passes again but completes nothing new, so the running
	// count must not move.
	if f.publisher.events[0].LevelsPassed != 1 || f.publisher.events[1].LevelsPassed != 1 {
		t.Errorf("LevelsPassed = %d then %d, want 1 and 1",
			f.publisher.events[0].LevelsPassed, f.publisher.events[1].LevelsPassed)
	}
}

func TestService_SubmitFailLosesLife(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)
	f.evaluator.result = &domain.EvaluationResult{Score: 30, Passed: false, Strategy: "ai"}

	outcome, err := f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "weak"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if outcome.LevelCompleted {
		t.Error("failed submission should not complete the level")
	}

	saved, _ := f.store.Load(p.ID.String())
	if saved.Lives != domain.MaxLives-1 {
		t.Errorf("Lives = %d, want one lost", saved.Lives)
	}
	if saved.XP != 0 {
		t.Errorf("XP = %d, want 0", saved.XP)
	}
	if len(f.publisher.events) != 0 {
		t.Error("failed submission should not publish a score event")
	}
}

func TestService_SubmitLockedLevel(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)

	_, err := f.svc.Submit(context.Background(), p.ID.String(), 2, domain.Submission{Text: "x"})
	if !errors.Is(err, domain.ErrLevelLocked) {
		t.Errorf("error = %v, want ErrLevelLocked", err)
	}
}

func TestService_SubmitNoLives(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)

	stored, _ := f.store.Load(p.ID.String())
	stored.Lives = 0
	f.store.Save(stored)

	_, err := f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "x"})
	if !errors.Is(err, domain.ErrNoLivesLeft) {
		t.Errorf("error = %v, want ErrNoLivesLeft", err)
	}
}

func TestService_SubmitAttemptBudget(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)
	f.evaluator.result = &domain.EvaluationResult{Score: 30, Passed: false, Strategy: "ai"}

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "x"}); err != nil {
			t.Fatalf("attempt %d error = %v", i+1, err)
		}
	}

	_, err := f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "x"})
	if !errors.Is(err, domain.ErrNoAttemptsLeft) {
		t.Errorf("error = %v, want ErrNoAttemptsLeft", err)
	}
}

func TestService_CompletedLevelReplayable(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)

	// Pass once, then burn through the remaining budget; replays must
	// still be allowed on a completed level.
	for i := 0; i < 4; i++ {
		if _, err := f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "x"}); err != nil {
			t.Fatalf("replay %d error = %v", i+1, err)
		}
	}
}

func TestService_XPAwardedOnlyOnce(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)

	f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "first"})
	outcome, err := f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "retake"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if outcome.FirstCompletion {
		t.Error("retake should not be a first completion")
	}
	if outcome.XPAwarded != 0 || outcome.TokensAwarded != 0 {
		t.Errorf("retake awarded XP=%d tokens=%d, want 0/0", outcome.XPAwarded, outcome.TokensAwarded)
	}

	saved, _ := f.store.Load(p.ID.String())
	if len(saved.Portfolio) != 1 || saved.Portfolio[0].Submission != "retake" {
		t.Errorf("Portfolio = %+v, want replaced slot", saved.Portfolio)
	}
}

func TestService_PublisherFailureIgnored(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)
	f.publisher.err = errors.New("broker down")

	outcome, err := f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "x"})
	if err != nil {
		t.Fatalf("Submit() error = %v, publish failures must not fail the submission", err)
	}
	if !outcome.LevelCompleted {
		t.Error("submission should still complete")
	}
}

func TestService_RoomCompleteAchievement(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)

	f.svc.Submit(context.Background(), p.ID.String(), 1, domain.Submission{Text: "x"})
	outcome, err := f.svc.Submit(context.Background(), p.ID.String(), 2, domain.Submission{Text: "y"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	found := false
	for _, a := range outcome.Unlocked {
		if a.ID == "lab-done" {
			found = true
		}
	}
	if !found {
		t.Errorf("Unlocked = %+v, want lab-done", outcome.Unlocked)
	}
}

func TestService_LoginStreak(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)
	id := p.ID.String()

	_, changed, err := f.svc.Login(id)
	if err != nil || !changed {
		t.Fatalf("Login() = changed %v, err %v", changed, err)
	}

	// Same day again is a no-op.
	_, changed, _ = f.svc.Login(id)
	if changed {
		t.Error("same-day login should not change the streak")
	}

	// Next day extends.
	*f.now = f.now.Add(24 * time.Hour)
	loaded, changed, _ := f.svc.Login(id)
	if !changed || loaded.Streak.CurrentStreak != 2 {
		t.Errorf("streak = %d, want 2", loaded.Streak.CurrentStreak)
	}

	// A gap resets.
	*f.now = f.now.Add(72 * time.Hour)
	loaded, _, _ = f.svc.Login(id)
	if loaded.Streak.CurrentStreak != 1 {
		t.Errorf("streak = %d after gap, want 1", loaded.Streak.CurrentStreak)
	}
	if loaded.Streak.LongestStreak != 2 {
		t.Errorf("longest = %d, want 2", loaded.Streak.LongestStreak)
	}
}

func TestService_ClaimStreakBonus(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)
	id := p.ID.String()

	for i := 0; i < 3; i++ {
		f.svc.Login(id)
		*f.now = f.now.Add(24 * time.Hour)
	}
	*f.now = f.now.Add(-24 * time.Hour)

	bonus, err := f.svc.ClaimStreakBonus(id)
	if err != nil {
		t.Fatalf("ClaimStreakBonus() error = %v", err)
	}
	if bonus != 25 {
		t.Errorf("bonus = %d, want 25 for a 3-day streak", bonus)
	}

	// Second claim the same day yields nothing.
	bonus, _ = f.svc.ClaimStreakBonus(id)
	if bonus != 0 {
		t.Errorf("second claim = %d, want 0", bonus)
	}
}

func TestService_CompleteChallenge(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)
	id := p.ID.String()

	xp, err := f.svc.CompleteChallenge(id, "quick-win")
	if err != nil {
		t.Fatalf("CompleteChallenge() error = %v", err)
	}
	if xp != 20 {
		t.Errorf("xp = %d, want 20", xp)
	}

	// Repeat the same day is a no-op.
	xp, _ = f.svc.CompleteChallenge(id, "quick-win")
	if xp != 0 {
		t.Errorf("repeat xp = %d, want 0", xp)
	}

	// Unknown challenge.
	if _, err := f.svc.CompleteChallenge(id, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	// Next day it can be completed again.
	*f.now = f.now.Add(24 * time.Hour)
	xp, _ = f.svc.CompleteChallenge(id, "quick-win")
	if xp != 20 {
		t.Errorf("next-day xp = %d, want 20", xp)
	}
}

func TestService_RegenerateAll(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)
	id := p.ID.String()

	stored, _ := f.store.Load(id)
	stored.Lives = 2
	lost := f.now.Add(-25 * time.Minute)
	stored.LastLifeLostAt = &lost
	stored.Stamina = 50
	stored.LastStaminaRegenAt = f.now.Add(-10 * time.Minute)
	f.store.Save(stored)

	f.svc.RegenerateAll()

	saved, _ := f.store.Load(id)
	if saved.Lives != 4 {
		t.Errorf("Lives = %d, want 4 (two 10-minute intervals)", saved.Lives)
	}
	if saved.Stamina != 65 {
		t.Errorf("Stamina = %d, want 65 (three 3-minute intervals)", saved.Stamina)
	}
}

func TestService_LevelsViews(t *testing.T) {
	f := newFixture(t)
	p := f.createPlayer(t)
	id := p.ID.String()

	views, err := f.svc.Levels(id)
	if err != nil {
		t.Fatalf("Levels() error = %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d views", len(views))
	}
	if !views[0].Unlocked || views[1].Unlocked {
		t.Errorf("lock states wrong: %+v", views)
	}

	f.svc.Submit(context.Background(), id, 1, domain.Submission{Text: "x"})

	views, _ = f.svc.Levels(id)
	if !views[0].Completed || !views[1].Unlocked {
		t.Errorf("after completion: %+v", views)
	}
}

func TestService_GetUnknownPlayer(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Get("missing"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("error = %v, want ErrPlayerNotFound", err)
	}
}

func TestService_Reset(t *testing.T) {
	f := newFixture(t)
	id := f.createPlayer(t).ID.String()

	f.svc.Submit(context.Background(), id, 1, domain.Submission{Text: "x"})
	if f.ledger.counts[ledgerKey(id, 1)] == 0 {
		t.Fatal("expected a recorded attempt before reset")
	}

	if err := f.svc.Reset(id); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if _, err := f.svc.Get(id); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("Get after reset = %v, want ErrPlayerNotFound", err)
	}
	if got := f.ledger.counts[ledgerKey(id, 1)]; got != 0 {
		t.Errorf("attempts after reset = %d, want 0", got)
	}
}

func TestService_ResetUnknownPlayer(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Reset("missing"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("error = %v, want ErrPlayerNotFound", err)
	}
}
