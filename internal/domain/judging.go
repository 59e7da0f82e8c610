package domain

import "math"

// JudgingLabel buckets strictness for narrative feedback.
type JudgingLabel string

const (
	JudgingGentle   JudgingLabel = "gentle"
	JudgingStandard JudgingLabel = "standard"
	JudgingStrict   JudgingLabel = "strict"
)

// JudgingProfile is the computed strictness knob applied uniformly to
// whichever grading strategy runs. It is derived, never stored.
type JudgingProfile struct {
	Strictness float64      // 0.25..0.90
	PassAdjust int          // signed delta applied to the level's passing score
	ScoreBoost int          // non-negative delta added to the raw score pre-clamp
	Label      JudgingLabel
}

// JudgingTuning holds the product-tuning constants behind the profile
// formulas. They are deliberately injectable rather than hardcoded.
type JudgingTuning struct {
	DayRamp      float64 // days until the day factor saturates
	LevelRamp    float64 // level ids until the level factor saturates
	ProgressRamp float64 // completed levels until the progress factor saturates

	Base           float64
	LevelWeight    float64
	DayWeight      float64
	ProgressWeight float64
	MinStrictness  float64
	MaxStrictness  float64

	MinPassAdjust float64 // at minimum strictness
	PassAdjustSpan float64
	MaxScoreBoost  float64
}

// DefaultJudgingTuning returns the shipped constants.
func DefaultJudgingTuning() JudgingTuning {
	return JudgingTuning{
		DayRamp:        10,
		LevelRamp:      15,
		ProgressRamp:   20,
		Base:           0.25,
		LevelWeight:    0.45,
		DayWeight:      0.25,
		ProgressWeight: 0.15,
		MinStrictness:  0.25,
		MaxStrictness:  0.90,
		MinPassAdjust:  -10,
		PassAdjustSpan: 15,
		MaxScoreBoost:  8,
	}
}

// GetJudgingProfile computes the judging profile for a player attempting a
// level. Pure and total: all inputs are clamped internally.
func GetJudgingProfile(p *Player, levelID int, t JudgingTuning) JudgingProfile {
	day, completed := 1, 0
	if p != nil {
		day = p.CurrentDay
		completed = len(p.CompletedLevels)
	}

	dayFactor := clampFloat(float64(day-1)/t.DayRamp, 0, 1)
	levelFactor := clampFloat(float64(levelID-1)/t.LevelRamp, 0, 1)
	progressFactor := clampFloat(float64(completed)/t.ProgressRamp, 0, 1)

	strictness := clampFloat(
		t.Base+t.LevelWeight*levelFactor+t.DayWeight*dayFactor+t.ProgressWeight*progressFactor,
		t.MinStrictness, t.MaxStrictness,
	)

	// Normalized position inside the strictness band drives both knobs.
	pos := (strictness - t.MinStrictness) / (t.MaxStrictness - t.MinStrictness)

	profile := JudgingProfile{
		Strictness: strictness,
		PassAdjust: int(math.Round(t.MinPassAdjust + pos*t.PassAdjustSpan)),
		ScoreBoost: int(math.Round(clampFloat(t.MaxScoreBoost-pos*t.MaxScoreBoost, 0, t.MaxScoreBoost))),
	}

	switch {
	case strictness < 0.5:
		profile.Label = JudgingGentle
	case strictness < 0.75:
		profile.Label = JudgingStandard
	default:
		profile.Label = JudgingStrict
	}
	return profile
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
