package catalog

import (
	"math/rand"
	"time"

	"github.com/marketcraft/marketcraft/internal/domain"
)

// DailySet is the challenge selection for one calendar day: one challenge
// per tier, stable for every call on the same date.
type DailySet struct {
	Date       string                  `json:"date"`
	Challenges []domain.DailyChallenge `json:"challenges"`
}

// DailyChallenges picks one challenge per tier from the pool using a PRNG
// seeded from the calendar date, so every process agrees on the day's set
// without coordination.
func DailyChallenges(pool []domain.DailyChallenge, date time.Time) DailySet {
	set := DailySet{Date: domain.DateKey(date)}
	rng := rand.New(rand.NewSource(dateSeed(date)))

	for _, tier := range []domain.ChallengeTier{domain.TierEasy, domain.TierMedium, domain.TierHard} {
		var candidates []domain.DailyChallenge
		for _, c := range pool {
			if c.Tier == tier {
				candidates = append(candidates, c)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		set.Challenges = append(set.Challenges, candidates[rng.Intn(len(candidates))])
	}
	return set
}

// dateSeed sums the date parts, then avalanches the sum so consecutive
// days do not produce near-identical PRNG streams.
func dateSeed(date time.Time) int64 {
	y, m, d := date.Date()
	seed := int64(y) + int64(m) + int64(d)

	// splitmix-style avalanche
	z := uint64(seed) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z = z ^ (z >> 31)
	return int64(z)
}
