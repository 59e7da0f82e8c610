package catalog

import (
	"testing"
	"time"

	"github.com/marketcraft/marketcraft/internal/domain"
)

func challengePool() []domain.DailyChallenge {
	return []domain.DailyChallenge{
		{ID: "e1", Tier: domain.TierEasy, XPReward: 20},
		{ID: "e2", Tier: domain.TierEasy, XPReward: 20},
		{ID: "e3", Tier: domain.TierEasy, XPReward: 20},
		{ID: "m1", Tier: domain.TierMedium, XPReward: 50},
		{ID: "m2", Tier: domain.TierMedium, XPReward: 50},
		{ID: "h1", Tier: domain.TierHard, XPReward: 100},
		{ID: "h2", Tier: domain.TierHard, XPReward: 100},
	}
}

func TestDailyChallenges_Deterministic(t *testing.T) {
	pool := challengePool()
	date := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	a := DailyChallenges(pool, date)
	b := DailyChallenges(pool, date)

	if len(a.Challenges) != 3 {
		t.Fatalf("got %d challenges, want one per tier", len(a.Challenges))
	}
	for i := range a.Challenges {
		if a.Challenges[i].ID != b.Challenges[i].ID {
			t.Errorf("same date gave different sets: %v vs %v", a.Challenges, b.Challenges)
		}
	}
}

func TestDailyChallenges_TimeOfDayIgnored(t *testing.T) {
	pool := challengePool()
	morning := DailyChallenges(pool, time.Date(2026, 3, 14, 0, 1, 0, 0, time.UTC))
	evening := DailyChallenges(pool, time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC))

	for i := range morning.Challenges {
		if morning.Challenges[i].ID != evening.Challenges[i].ID {
			t.Fatal("selection must depend only on the calendar date")
		}
	}
}

func TestDailyChallenges_OnePerTier(t *testing.T) {
	set := DailyChallenges(challengePool(), time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))

	tiers := map[domain.ChallengeTier]int{}
	for _, c := range set.Challenges {
		tiers[c.Tier]++
	}
	for _, tier := range []domain.ChallengeTier{domain.TierEasy, domain.TierMedium, domain.TierHard} {
		if tiers[tier] != 1 {
			t.Errorf("tier %s picked %d times, want exactly 1", tier, tiers[tier])
		}
	}
}

func TestDailyChallenges_EmptyTierSkipped(t *testing.T) {
	pool := []domain.DailyChallenge{{ID: "e1", Tier: domain.TierEasy}}
	set := DailyChallenges(pool, time.Now())

	if len(set.Challenges) != 1 || set.Challenges[0].ID != "e1" {
		t.Errorf("Challenges = %v, want just the easy one", set.Challenges)
	}
}

func TestDailyChallenges_SeedIsDatePartSum(t *testing.T) {
	pool := challengePool()

	// Two dates whose year+month+day sums match share one seed, so their
	// selections agree. Pins the seed derivation.
	a := DailyChallenges(pool, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	b := DailyChallenges(pool, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))

	for i := range a.Challenges {
		if a.Challenges[i].ID != b.Challenges[i].ID {
			t.Errorf("equal-sum dates diverged: %v vs %v", a.Challenges, b.Challenges)
		}
	}
}

func TestDailyChallenges_VariesAcrossDays(t *testing.T) {
	pool := challengePool()
	seen := map[string]bool{}
	for day := 1; day <= 20; day++ {
		set := DailyChallenges(pool, time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC))
		seen[set.Challenges[0].ID] = true
	}
	if len(seen) < 2 {
		t.Error("easy pick never varied across 20 days")
	}
}
