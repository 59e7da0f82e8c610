package domain

import (
	"time"

	"github.com/google/uuid"
)

// Resource pool limits and regeneration intervals.
const (
	MaxLives          = 5
	MaxStamina        = 100
	XPPerLevel        = 500
	LifeRegenInterval = 10 * time.Minute
	StaminaRegenStep  = 5 // percent granted per regen interval
	StaminaInterval   = 3 * time.Minute
)

// Player is the root aggregate for a single play-through. It is owned
// exclusively by the player service; all mutation goes through named
// transitions so ordering and invariants stay in one place.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"` // cohort/role chosen at character creation
	CreatedAt time.Time `json:"created_at"`

	// Progression
	XP              int             `json:"xp"`
	CompletedLevels []int           `json:"completed_levels"`
	Portfolio       []PortfolioItem `json:"portfolio"`

	// Resource pools
	Lives              int        `json:"lives"`
	LastLifeLostAt     *time.Time `json:"last_life_lost_at,omitempty"`
	Stamina            int        `json:"stamina"` // 0..100
	LastStaminaRegenAt time.Time  `json:"last_stamina_regen_at"`
	Tokens             int        `json:"tokens"`

	// World / time
	CurrentDay     int            `json:"current_day"`
	TimeOfDayMin   int            `json:"time_of_day_min"` // minutes since 00:00, in-game
	ClockedIn      bool           `json:"clocked_in"`
	NarrativeFlags []string       `json:"narrative_flags"`
	NPCTrust       map[string]int `json:"npc_trust"`
	Skills         map[string]int `json:"skills"` // skill name -> 0..10

	// Performance KPIs, accumulated from passing evaluations.
	KPI KPIStats `json:"kpi"`

	// Meta
	Achievements []AchievementUnlock `json:"achievements"`
	Streak       StreakData          `json:"streak"`
	Daily        DailyData           `json:"daily"`
}

// PortfolioItem is the persisted artifact for a completed level. One slot
// per level id; a retake replaces the existing slot.
type PortfolioItem struct {
	LevelID     int       `json:"level_id"`
	Title       string    `json:"title"`
	Submission  string    `json:"submission"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// AchievementUnlock records a single unlocked achievement.
type AchievementUnlock struct {
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// StreakData tracks consecutive daily logins.
type StreakData struct {
	CurrentStreak   int    `json:"current_streak"`
	LongestStreak   int    `json:"longest_streak"`
	LastLoginDate   string `json:"last_login_date"` // YYYY-MM-DD
	StreakXPClaimed bool   `json:"streak_xp_claimed"`
}

// DailyData holds per-calendar-day counters. Counters are meaningless when
// Date differs from today; they are reset lazily, never eagerly cleared.
type DailyData struct {
	Date                 string `json:"date"` // YYYY-MM-DD
	CompletedChallenges  []string `json:"completed_challenges"`
	XPEarnedToday        int    `json:"xp_earned_today"`
	LevelsCompletedToday []int  `json:"levels_completed_today"`
	PerfectScoresToday   int    `json:"perfect_scores_today"`
	FirstTriesToday      int    `json:"first_tries_today"`
}

// KPIStats are the marketing performance numbers the internship tracks.
type KPIStats struct {
	ROAS           float64 `json:"roas"`
	CAC            float64 `json:"cac"`
	ConversionRate float64 `json:"conversion_rate"`
	Leads          int     `json:"leads"`
	Revenue        float64 `json:"revenue"`
	Stipend        int     `json:"stipend"`
}

// NewPlayer creates a freshly onboarded player with full pools.
func NewPlayer(name, role string) *Player {
	now := time.Now()
	return &Player{
		ID:                 uuid.New(),
		Name:               name,
		Role:               role,
		CreatedAt:          now,
		Lives:              MaxLives,
		Stamina:            MaxStamina,
		LastStaminaRegenAt: now,
		CurrentDay:         1,
		TimeOfDayMin:       9 * 60, // the internship starts at 09:00
		NPCTrust:           make(map[string]int),
		Skills:             make(map[string]int),
	}
}

// Level derives the current level from XP. Level is never stored.
func (p *Player) Level() int {
	return p.XP/XPPerLevel + 1
}

// AddXP increases XP and updates today's counter. dailyData is reset first
// when the stored date no longer matches today.
func (p *Player) AddXP(amount int, today string) {
	if amount <= 0 {
		return
	}
	p.ResetDailyIfStale(today)
	p.XP += amount
	p.Daily.XPEarnedToday += amount
}

// HasCompleted reports whether a level id is in the completed set.
func (p *Player) HasCompleted(levelID int) bool {
	for _, id := range p.CompletedLevels {
		if id == levelID {
			return true
		}
	}
	return false
}

// IsLevelUnlocked implements sequential gating: level 1 is always playable,
// level N>1 only once N-1 is completed.
func (p *Player) IsLevelUnlocked(levelID int) bool {
	if levelID <= 1 {
		return true
	}
	return p.HasCompleted(levelID - 1)
}

// CompleteLevel idempotently marks a level completed, upserts the portfolio
// slot and updates today's counters.
func (p *Player) CompleteLevel(item PortfolioItem, firstTry bool, today string) {
	p.ResetDailyIfStale(today)

	if !p.HasCompleted(item.LevelID) {
		p.CompletedLevels = append(p.CompletedLevels, item.LevelID)
	}

	replaced := false
	for i := range p.Portfolio {
		if p.Portfolio[i].LevelID == item.LevelID {
			p.Portfolio[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		p.Portfolio = append(p.Portfolio, item)
	}

	alreadyToday := false
	for _, id := range p.Daily.LevelsCompletedToday {
		if id == item.LevelID {
			alreadyToday = true
			break
		}
	}
	if !alreadyToday {
		p.Daily.LevelsCompletedToday = append(p.Daily.LevelsCompletedToday, item.LevelID)
	}
	if item.Score == 100 {
		p.Daily.PerfectScoresToday++
	}
	if firstTry {
		p.Daily.FirstTriesToday++
	}
}

// LoseLife decrements the pool, flooring at zero. The regen timestamp is
// recorded only when a life was actually lost.
func (p *Player) LoseLife(now time.Time) {
	if p.Lives <= 0 {
		return
	}
	p.Lives--
	t := now
	p.LastLifeLostAt = &t
}

// RegenerateLives grants one life per full interval elapsed since the last
// loss. Once the pool is full the pending timestamp is cleared so a full
// pool never carries stale regen state.
func (p *Player) RegenerateLives(now time.Time) int {
	if p.LastLifeLostAt == nil || p.Lives >= MaxLives {
		if p.Lives >= MaxLives {
			p.LastLifeLostAt = nil
		}
		return 0
	}

	granted := 0
	last := *p.LastLifeLostAt
	for p.Lives < MaxLives && now.Sub(last) >= LifeRegenInterval {
		p.Lives++
		granted++
		last = last.Add(LifeRegenInterval)
	}

	if p.Lives >= MaxLives {
		p.LastLifeLostAt = nil
	} else if granted > 0 {
		t := last
		p.LastLifeLostAt = &t
	}
	return granted
}

// ConsumeStamina spends stamina, flooring at zero.
func (p *Player) ConsumeStamina(amount int) {
	p.Stamina = clampInt(p.Stamina-amount, 0, MaxStamina)
}

// RegenerateStamina grants a fixed percentage per full interval elapsed,
// advancing the timestamp by whole intervals so nothing is lost or
// duplicated across suspended ticks.
func (p *Player) RegenerateStamina(now time.Time) int {
	if p.Stamina >= MaxStamina {
		p.LastStaminaRegenAt = now
		return 0
	}

	granted := 0
	for p.Stamina < MaxStamina && now.Sub(p.LastStaminaRegenAt) >= StaminaInterval {
		p.Stamina = clampInt(p.Stamina+StaminaRegenStep, 0, MaxStamina)
		granted += StaminaRegenStep
		p.LastStaminaRegenAt = p.LastStaminaRegenAt.Add(StaminaInterval)
	}
	if p.Stamina >= MaxStamina {
		p.LastStaminaRegenAt = now
	}
	return granted
}

// AdvanceTime moves the in-game clock forward and rolls the day at
// midnight. Returns the number of days advanced.
func (p *Player) AdvanceTime(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	total := p.TimeOfDayMin + minutes
	days := total / (24 * 60)
	p.TimeOfDayMin = total % (24 * 60)
	p.CurrentDay += days
	return days
}

// ResetDailyIfStale lazily resets the per-day counters when the calendar
// date rolled over.
func (p *Player) ResetDailyIfStale(today string) {
	if p.Daily.Date == today {
		return
	}
	p.Daily = DailyData{Date: today}
	p.Streak.StreakXPClaimed = false
}

// RecordLogin applies the streak rule for a login on the given date:
// same day is a no-op, a one-day gap extends the streak, anything larger
// resets it to 1. Reports whether the streak changed.
func (p *Player) RecordLogin(today string) bool {
	if p.Streak.LastLoginDate == today {
		return false
	}

	if isNextCalendarDay(p.Streak.LastLoginDate, today) {
		p.Streak.CurrentStreak++
	} else {
		p.Streak.CurrentStreak = 1
	}
	if p.Streak.CurrentStreak > p.Streak.LongestStreak {
		p.Streak.LongestStreak = p.Streak.CurrentStreak
	}
	p.Streak.LastLoginDate = today
	p.ResetDailyIfStale(today)
	return true
}

// StreakBonusXP returns the claimable bonus for the current streak length.
// Tiers: 3 days 25xp, 7 days 50xp, 14 days 100xp, 30 days 200xp.
func (p *Player) StreakBonusXP() int {
	switch {
	case p.Streak.CurrentStreak >= 30:
		return 200
	case p.Streak.CurrentStreak >= 14:
		return 100
	case p.Streak.CurrentStreak >= 7:
		return 50
	case p.Streak.CurrentStreak >= 3:
		return 25
	default:
		return 0
	}
}

// ClaimStreakBonus grants the streak bonus once per day. Returns the XP
// granted, zero when nothing is claimable.
func (p *Player) ClaimStreakBonus(today string) int {
	p.ResetDailyIfStale(today)
	if p.Streak.StreakXPClaimed {
		return 0
	}
	bonus := p.StreakBonusXP()
	if bonus == 0 {
		return 0
	}
	p.Streak.StreakXPClaimed = true
	p.AddXP(bonus, today)
	return bonus
}

// HasAchievement reports whether an achievement id is already unlocked.
func (p *Player) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.AchievementID == id {
			return true
		}
	}
	return false
}

// UnlockAchievement appends an unlock record, ignoring duplicates.
func (p *Player) UnlockAchievement(id string, at time.Time) bool {
	if p.HasAchievement(id) {
		return false
	}
	p.Achievements = append(p.Achievements, AchievementUnlock{AchievementID: id, UnlockedAt: at})
	return true
}

// ApplyKPIDeltas accumulates evaluation-derived performance numbers.
func (p *Player) ApplyKPIDeltas(d KPIDeltas) {
	p.KPI.ConversionRate += d.ConversionRate
	p.KPI.ROAS += d.ROAS
	p.KPI.Leads += d.Leads
	p.KPI.Revenue += d.Revenue
}

// SetNarrativeFlag records a story flag. Idempotent.
func (p *Player) SetNarrativeFlag(flag string) {
	if p.HasNarrativeFlag(flag) {
		return
	}
	p.NarrativeFlags = append(p.NarrativeFlags, flag)
}

// HasNarrativeFlag reports whether a story flag has been set.
func (p *Player) HasNarrativeFlag(flag string) bool {
	for _, f := range p.NarrativeFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// AdjustNPCTrust shifts an NPC's trust score.
func (p *Player) AdjustNPCTrust(npcID string, delta int) {
	p.NPCTrust[npcID] += delta
}

// RaiseSkill bumps a skill level, capped at 10.
func (p *Player) RaiseSkill(name string, delta int) {
	p.Skills[name] = clampInt(p.Skills[name]+delta, 0, 10)
}

// DateKey formats a timestamp as the calendar-date string used for streak
// and daily bookkeeping.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func isNextCalendarDay(prev, next string) bool {
	if prev == "" {
		return false
	}
	pt, err := time.Parse("2006-01-02", prev)
	if err != nil {
		return false
	}
	nt, err := time.Parse("2006-01-02", next)
	if err != nil {
		return false
	}
	return nt.Sub(pt) == 24*time.Hour
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
