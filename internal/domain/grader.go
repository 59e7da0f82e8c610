package domain

import (
	"math"
	"strings"
)

// Default pass thresholds for the partial-credit kinds. All-or-nothing
// kinds pass at 100 by construction.
const (
	defaultMatchingThreshold  = 70
	defaultSwipeThreshold     = 80
	defaultMarkupThreshold    = 60
	defaultRankOrderThreshold = 70
)

// ObjectiveGrade is the outcome of deterministic grading.
type ObjectiveGrade struct {
	Score   int  // 0..100
	Correct bool // score met the kind's pass threshold
}

// GradeObjective scores a submission against the task's answer key. It is
// pure and never fails: malformed or mismatched input grades to zero. The
// caller must check AnswerKey.IsEmpty first and fall through to remote
// evaluation when no key exists.
func GradeObjective(cfg TaskConfig, sub Submission) ObjectiveGrade {
	switch cfg.Kind {
	case TaskMultipleChoice, TaskABTest:
		return gradeExactChoice(cfg, sub)
	case TaskFillBlanks:
		return gradeFillBlanks(cfg, sub)
	case TaskMatching:
		return gradeMatching(cfg, sub)
	case TaskSwipe:
		return gradeSwipe(cfg, sub)
	case TaskMarkup:
		return gradeMarkup(cfg, sub)
	case TaskRankOrder:
		return gradeRankOrder(cfg, sub)
	}
	return ObjectiveGrade{}
}

func gradeExactChoice(cfg TaskConfig, sub Submission) ObjectiveGrade {
	if cfg.Key.Choice != "" && sub.Choice == cfg.Key.Choice {
		return ObjectiveGrade{Score: 100, Correct: true}
	}
	return ObjectiveGrade{}
}

// gradeFillBlanks is all-or-nothing: every blank must match exactly, in
// order. A comma-joined string submission is accepted in place of a list.
func gradeFillBlanks(cfg TaskConfig, sub Submission) ObjectiveGrade {
	answers := sub.Blanks
	if len(answers) == 0 && sub.Text != "" {
		parts := strings.Split(sub.Text, ",")
		answers = make([]string, len(parts))
		for i, p := range parts {
			answers[i] = strings.TrimSpace(p)
		}
	}

	if len(cfg.Key.Blanks) == 0 || len(answers) != len(cfg.Key.Blanks) {
		return ObjectiveGrade{}
	}
	for i, want := range cfg.Key.Blanks {
		if answers[i] != want {
			return ObjectiveGrade{}
		}
	}
	return ObjectiveGrade{Score: 100, Correct: true}
}

func gradeMatching(cfg TaskConfig, sub Submission) ObjectiveGrade {
	if len(cfg.Key.Pairs) == 0 {
		return ObjectiveGrade{}
	}

	want := make(map[MatchPair]bool, len(cfg.Key.Pairs))
	for _, pair := range cfg.Key.Pairs {
		want[pair] = true
	}

	hits := 0
	for _, pair := range sub.Pairs {
		if want[pair] {
			hits++
			delete(want, pair) // a duplicated pair counts once
		}
	}

	score := roundPercent(hits, len(cfg.Key.Pairs))
	return ObjectiveGrade{Score: score, Correct: score >= threshold(cfg, defaultMatchingThreshold)}
}

func gradeSwipe(cfg TaskConfig, sub Submission) ObjectiveGrade {
	if len(cfg.Key.Items) == 0 {
		return ObjectiveGrade{}
	}

	hits := 0
	for _, item := range cfg.Key.Items {
		if sub.Classes[item.ID] == item.Class {
			hits++
		}
	}

	score := roundPercent(hits, len(cfg.Key.Items))
	return ObjectiveGrade{Score: score, Correct: score >= threshold(cfg, defaultSwipeThreshold)}
}

// gradeMarkup checks case-insensitive containment of each target phrase in
// the submitted text.
func gradeMarkup(cfg TaskConfig, sub Submission) ObjectiveGrade {
	if len(cfg.Key.Phrases) == 0 {
		return ObjectiveGrade{}
	}

	haystack := strings.ToLower(sub.Text)
	hits := 0
	for _, phrase := range cfg.Key.Phrases {
		if phrase != "" && strings.Contains(haystack, strings.ToLower(phrase)) {
			hits++
		}
	}

	score := roundPercent(hits, len(cfg.Key.Phrases))
	return ObjectiveGrade{Score: score, Correct: score >= threshold(cfg, defaultMarkupThreshold)}
}

// gradeRankOrder gives full credit for an exact sequence, otherwise
// positional partial credit.
func gradeRankOrder(cfg TaskConfig, sub Submission) ObjectiveGrade {
	if len(cfg.Key.Order) == 0 {
		return ObjectiveGrade{}
	}

	if len(sub.Order) == len(cfg.Key.Order) {
		exact := true
		for i, want := range cfg.Key.Order {
			if sub.Order[i] != want {
				exact = false
				break
			}
		}
		if exact {
			return ObjectiveGrade{Score: 100, Correct: true}
		}
	}

	hits := 0
	for i, want := range cfg.Key.Order {
		if i < len(sub.Order) && sub.Order[i] == want {
			hits++
		}
	}

	score := roundPercent(hits, len(cfg.Key.Order))
	return ObjectiveGrade{Score: score, Correct: score >= threshold(cfg, defaultRankOrderThreshold)}
}

func threshold(cfg TaskConfig, def int) int {
	if cfg.Threshold > 0 {
		return cfg.Threshold
	}
	return def
}

func roundPercent(hits, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(hits) / float64(total) * 100))
}
