package domain

// TaskKind discriminates the task payload union. Objective kinds carry an
// answer key and are gradable without an AI round-trip.
type TaskKind string

const (
	TaskMultipleChoice TaskKind = "multiple_choice"
	TaskABTest         TaskKind = "ab_test"
	TaskFillBlanks     TaskKind = "fill_blanks"
	TaskMatching       TaskKind = "matching"
	TaskSwipe          TaskKind = "swipe"
	TaskMarkup         TaskKind = "markup"
	TaskRankOrder      TaskKind = "rank_order"
	TaskFreeText       TaskKind = "free_text"
	TaskCanvas         TaskKind = "canvas"
)

// EvalMode controls grading-strategy selection. Auto resolves to objective
// grading when the kind is objective and a key is present, otherwise AI.
type EvalMode string

const (
	EvalAuto      EvalMode = "auto"
	EvalObjective EvalMode = "objective"
	EvalAI        EvalMode = "ai"
)

// IsObjective reports whether the kind has a programmatically checkable
// correct answer.
func (k TaskKind) IsObjective() bool {
	switch k {
	case TaskMultipleChoice, TaskABTest, TaskFillBlanks, TaskMatching, TaskSwipe, TaskMarkup, TaskRankOrder:
		return true
	}
	return false
}

// MatchPair is one left/right association in a matching task key.
type MatchPair struct {
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

// SwipeItem is a single classify-me item with its true class.
type SwipeItem struct {
	ID    string `json:"id" yaml:"id"`
	Class string `json:"class" yaml:"class"`
}

// AnswerKey carries the per-kind answer data. Only the field matching the
// task kind is meaningful; the rest stay zero.
type AnswerKey struct {
	Choice  string      `json:"choice,omitempty" yaml:"choice,omitempty"`
	Blanks  []string    `json:"blanks,omitempty" yaml:"blanks,omitempty"`
	Pairs   []MatchPair `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	Items   []SwipeItem `json:"items,omitempty" yaml:"items,omitempty"`
	Phrases []string    `json:"phrases,omitempty" yaml:"phrases,omitempty"`
	Order   []string    `json:"order,omitempty" yaml:"order,omitempty"`
}

// IsEmpty reports whether the key holds no data for the given kind. An
// empty key means objective grading must be skipped, never guessed.
func (k AnswerKey) IsEmpty(kind TaskKind) bool {
	switch kind {
	case TaskMultipleChoice, TaskABTest:
		return k.Choice == ""
	case TaskFillBlanks:
		return len(k.Blanks) == 0
	case TaskMatching:
		return len(k.Pairs) == 0
	case TaskSwipe:
		return len(k.Items) == 0
	case TaskMarkup:
		return len(k.Phrases) == 0
	case TaskRankOrder:
		return len(k.Order) == 0
	}
	return true
}

// TaskConfig is the task definition attached to a level.
type TaskConfig struct {
	Kind      TaskKind  `json:"kind" yaml:"kind"`
	Mode      EvalMode  `json:"mode,omitempty" yaml:"mode,omitempty"`
	Key       AnswerKey `json:"key,omitempty" yaml:"key,omitempty"`
	Threshold int       `json:"threshold,omitempty" yaml:"threshold,omitempty"` // overrides the per-kind default
}

// ResolveMode applies the precedence rule: an explicit mode wins, auto
// resolves from the kind. Objective grading additionally requires a
// non-empty answer key; a task misconfigured as objective without one
// falls through to AI instead of zeroing the player's attempt.
func (t TaskConfig) ResolveMode() EvalMode {
	if t.Mode == EvalAI {
		return EvalAI
	}
	if t.Key.IsEmpty(t.Kind) {
		return EvalAI
	}
	if t.Mode == EvalObjective || t.Kind.IsObjective() {
		return EvalObjective
	}
	return EvalAI
}

// Submission is the player's raw answer. As with AnswerKey, only the
// fields matching the task kind are read by the grader.
type Submission struct {
	Choice  string            `json:"choice,omitempty"`
	Blanks  []string          `json:"blanks,omitempty"`
	Pairs   []MatchPair       `json:"pairs,omitempty"`
	Classes map[string]string `json:"classes,omitempty"` // item id -> chosen class
	Text    string            `json:"text,omitempty"`
	Order   []string          `json:"order,omitempty"`
}
