package eval

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/marketcraft/marketcraft/internal/domain"
)

// Strategy names recorded on results for provenance.
const (
	StrategyObjective = "objective"
	StrategyAI        = "ai"
	StrategyHeuristic = "heuristic"
)

// Orchestrator runs the full evaluation pipeline for one submission:
// strategy selection, grading, judging-profile adjustment, and result
// normalization. It always returns a result, never an error; total remote
// failure degrades to the heuristic.
type Orchestrator struct {
	remote    RemoteEvaluator
	heuristic *Heuristic
	prompter  *Prompter
	tuning    domain.JudgingTuning
	logger    *slog.Logger
}

// NewOrchestrator wires the pipeline. remote may be nil, which forces the
// heuristic for all AI-mode evaluations (useful offline and in tests).
func NewOrchestrator(remote RemoteEvaluator, tuning domain.JudgingTuning, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		remote:    remote,
		heuristic: NewHeuristic(nil),
		prompter:  NewPrompter(),
		tuning:    tuning,
		logger:    logger,
	}
}

// Evaluate grades one attempt. attempt is 1-based; the attempt budget comes
// from the level's rubric.
func (o *Orchestrator) Evaluate(ctx context.Context, player *domain.Player, level *domain.Level, sub domain.Submission, attempt int) *domain.EvaluationResult {
	profile := domain.GetJudgingProfile(player, level.ID, o.tuning)

	var result *domain.EvaluationResult
	switch level.Task.ResolveMode() {
	case domain.EvalObjective:
		result = o.evaluateObjective(level, sub)
	default:
		result = o.evaluateAI(ctx, level, sub, profile)
	}

	o.finalize(result, level, profile, attempt)
	return result
}

func (o *Orchestrator) evaluateObjective(level *domain.Level, sub domain.Submission) *domain.EvaluationResult {
	grade := domain.GradeObjective(level.Task, sub)

	result := &domain.EvaluationResult{
		Score:    grade.Score,
		Strategy: StrategyObjective,
	}
	if grade.Correct {
		result.Feedback = "Correct. Your answer matches what the brief called for."
		result.Mood = "pleased"
	} else {
		result.Feedback = "Not quite. Re-read the brief and look at which parts of your answer missed."
		result.Mood = "neutral"
		result.Improvement = "Compare your answer against the brief's stated goal before submitting."
	}
	return result
}

func (o *Orchestrator) evaluateAI(ctx context.Context, level *domain.Level, sub domain.Submission, profile domain.JudgingProfile) *domain.EvaluationResult {
	if o.remote != nil {
		system := o.prompter.SystemPrompt(profile.Label)
		prompt := o.prompter.BuildPrompt(level, sub, profile)

		payload, providerName, err := o.remote.RequestEvaluation(ctx, system, prompt)
		if err == nil {
			result := resultFromPayload(payload)
			result.Strategy = StrategyAI
			result.Provider = providerName
			return result
		}
		o.logger.Warn("remote evaluation unavailable, degrading to heuristic",
			"level_id", level.ID,
			"error", err)
	}

	result := resultFromPayload(o.heuristic.Score(level, sub))
	result.Strategy = StrategyHeuristic
	result.Degraded = true
	return result
}

func resultFromPayload(p *Payload) *domain.EvaluationResult {
	result := &domain.EvaluationResult{
		Feedback: p.Feedback,
		Mood:     p.Mood,
		Message:  p.Message,
	}
	if p.Score != nil {
		result.Score = int(math.Round(*p.Score))
	}
	for _, cs := range p.CriteriaScores {
		result.Criteria = append(result.Criteria, domain.CriterionScore{
			Name:     cs.Name,
			Score:    int(math.Round(cs.Score)),
			Feedback: cs.Feedback,
		})
	}
	if len(p.Fixes) > 0 {
		result.Improvement = p.Fixes[0]
	}
	return result
}

// finalize applies the judging profile and derives every trust-sensitive
// field locally. A remote "passed" claim is discarded; pass/fail is always
// recomputed from the adjusted score and pass bar.
func (o *Orchestrator) finalize(result *domain.EvaluationResult, level *domain.Level, profile domain.JudgingProfile, attempt int) {
	result.Score = clampScore(result.Score + profile.ScoreBoost)

	passBar := level.Rubric.PassingScore + profile.PassAdjust
	result.Passed = result.Score >= passBar

	maxAttempts := level.Rubric.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	left := maxAttempts - attempt
	if left < 0 {
		left = 0
	}
	result.AttemptsLeft = left
	// Retry eligibility depends only on the budget; completed levels stay
	// replayable.
	result.CanRetry = left > 0

	if result.Passed {
		result.KPI = synthesizeKPI(result.Score)
	}

	if result.Mood == "" {
		if result.Passed {
			result.Mood = "pleased"
		} else {
			result.Mood = "neutral"
		}
	}
}

// synthesizeKPI derives in-fiction performance numbers from the score.
// The numbers exist for flavor and the KPI dashboard, not for balance.
func synthesizeKPI(score int) domain.KPIDeltas {
	quality := float64(score) / 100

	return domain.KPIDeltas{
		ConversionRate: round2(0.2 + 1.3*quality),
		ROAS:           round2(0.5 + 3.0*quality),
		Leads:          int(math.Round(3 + 17*quality)),
		Revenue:        round2(150 + 1850*quality),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// DescribeStrategy is used by transport layers for log lines.
func DescribeStrategy(r *domain.EvaluationResult) string {
	if r.Degraded {
		return fmt.Sprintf("%s (degraded)", r.Strategy)
	}
	if r.Provider != "" {
		return fmt.Sprintf("%s via %s", r.Strategy, r.Provider)
	}
	return r.Strategy
}
