package domain

// RubricCriterion is a weighted scoring axis given to the AI evaluator.
type RubricCriterion struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Weight      float64 `json:"weight" yaml:"weight"`
}

// Rubric carries the pass bar and attempt budget for a level.
type Rubric struct {
	PassingScore int               `json:"passing_score" yaml:"passing_score"`
	MaxAttempts  int               `json:"max_attempts" yaml:"max_attempts"`
	Criteria     []RubricCriterion `json:"criteria" yaml:"criteria"`
}

// Level is one internship assignment. Levels are static catalog data,
// consumed read-only by the engine.
type Level struct {
	ID          int        `json:"id" yaml:"id"`
	RoomID      string     `json:"room_id" yaml:"room_id"`
	Title       string     `json:"title" yaml:"title"`
	Brief       string     `json:"brief" yaml:"brief"`
	Task        TaskConfig `json:"task" yaml:"task"`
	Rubric      Rubric     `json:"rubric" yaml:"rubric"`
	XPReward    int        `json:"xp_reward" yaml:"xp_reward"`
	TokenReward int        `json:"token_reward" yaml:"token_reward"`
	StaminaCost int        `json:"stamina_cost" yaml:"stamina_cost"`
}

// Redacted returns a copy safe to serialize to clients: the answer key
// is stripped so a level payload never reveals its own solution.
func (l Level) Redacted() *Level {
	l.Task.Key = AnswerKey{}
	return &l
}

// RequirementType discriminates achievement unlock predicates.
type RequirementType string

const (
	ReqLevelsCompleted RequirementType = "levels_completed"
	ReqXPTotal         RequirementType = "xp_total"
	ReqPerfectScore    RequirementType = "perfect_score"
	ReqFirstTry        RequirementType = "first_try"
	ReqAllLevels       RequirementType = "all_levels"
	ReqRoomComplete    RequirementType = "room_complete"
)

// Achievement is a static catalog entry with a requirement predicate.
type Achievement struct {
	ID          string          `json:"id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description" yaml:"description"`
	Requirement RequirementType `json:"requirement" yaml:"requirement"`
	Threshold   int             `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	RoomID      string          `json:"room_id,omitempty" yaml:"room_id,omitempty"`
	XPReward    int             `json:"xp_reward" yaml:"xp_reward"`
}

// ChallengeTier orders daily challenges by difficulty.
type ChallengeTier string

const (
	TierEasy   ChallengeTier = "easy"
	TierMedium ChallengeTier = "medium"
	TierHard   ChallengeTier = "hard"
)

// DailyChallenge is a template selected per calendar day.
type DailyChallenge struct {
	ID          string        `json:"id" yaml:"id"`
	Tier        ChallengeTier `json:"tier" yaml:"tier"`
	Description string        `json:"description" yaml:"description"`
	XPReward    int           `json:"xp_reward" yaml:"xp_reward"`
}
