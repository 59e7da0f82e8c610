package domain

import "time"

// AchievementEvaluator is a domain service that checks the static catalog
// against current player state and unlocks everything newly satisfied in
// one pass.
type AchievementEvaluator struct {
	catalog      []Achievement
	levelsByRoom map[string][]int
	totalLevels  int
}

// NewAchievementEvaluator builds an evaluator over the achievement catalog
// and the level catalog it references.
func NewAchievementEvaluator(achievements []Achievement, levels []Level) *AchievementEvaluator {
	byRoom := make(map[string][]int)
	for _, lvl := range levels {
		byRoom[lvl.RoomID] = append(byRoom[lvl.RoomID], lvl.ID)
	}
	return &AchievementEvaluator{
		catalog:      achievements,
		levelsByRoom: byRoom,
		totalLevels:  len(levels),
	}
}

// UnlockContext carries the just-submitted evaluation facts that some
// requirement predicates read in addition to persistent state.
type UnlockContext struct {
	JustScored int
	FirstTry   bool
}

// UnlockBatch is the outcome of one evaluation pass. XP rewards for all
// unlocks in the batch are summed so the caller can apply them in a single
// state update.
type UnlockBatch struct {
	Unlocked []Achievement
	TotalXP  int
}

// Evaluate checks every not-yet-owned achievement and returns the batch of
// newly satisfied ones. Running it again without new qualifying state
// unlocks nothing.
func (e *AchievementEvaluator) Evaluate(p *Player, ctx UnlockContext, now time.Time) UnlockBatch {
	var batch UnlockBatch
	if p == nil {
		return batch
	}

	for _, a := range e.catalog {
		if p.HasAchievement(a.ID) {
			continue
		}
		if !e.satisfied(a, p, ctx) {
			continue
		}
		if p.UnlockAchievement(a.ID, now) {
			batch.Unlocked = append(batch.Unlocked, a)
			batch.TotalXP += a.XPReward
		}
	}
	return batch
}

func (e *AchievementEvaluator) satisfied(a Achievement, p *Player, ctx UnlockContext) bool {
	switch a.Requirement {
	case ReqLevelsCompleted:
		return len(p.CompletedLevels) >= a.Threshold
	case ReqXPTotal:
		return p.XP >= a.Threshold
	case ReqPerfectScore:
		return ctx.JustScored == 100
	case ReqFirstTry:
		return ctx.FirstTry
	case ReqAllLevels:
		return e.totalLevels > 0 && len(p.CompletedLevels) >= e.totalLevels
	case ReqRoomComplete:
		ids := e.levelsByRoom[a.RoomID]
		if len(ids) == 0 {
			return false
		}
		for _, id := range ids {
			if !p.HasCompleted(id) {
				return false
			}
		}
		return true
	}
	return false
}
