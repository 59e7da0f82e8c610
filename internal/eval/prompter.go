package eval

import (
	"fmt"
	"strings"

	"github.com/marketcraft/marketcraft/internal/domain"
)

// Prompter builds evaluation prompts for the provider chain
type Prompter struct{}

// NewPrompter creates a new prompter
func NewPrompter() *Prompter {
	return &Prompter{}
}

// SystemPrompt frames the judge persona for a judging label
func (p *Prompter) SystemPrompt(label domain.JudgingLabel) string {
	base := `You are a marketing mentor grading an intern's task submission.
Score fairly against the rubric and give feedback the intern can act on.`

	switch label {
	case domain.JudgingGentle:
		return base + `
The intern is brand new. Be encouraging, reward effort, and keep criticism light.`
	case domain.JudgingStrict:
		return base + `
The intern is experienced. Hold them to professional agency standards.`
	default:
		return base + `
The intern has some experience. Balance encouragement with honest critique.`
	}
}

// BuildPrompt constructs the user prompt embedding the task brief, rubric,
// pass bar and the raw submission, with instructions to answer with a
// single JSON object in a fixed schema.
func (p *Prompter) BuildPrompt(level *domain.Level, sub domain.Submission, profile domain.JudgingProfile) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Task: %s\n\n", level.Title))
	if level.Brief != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", level.Brief))
	}

	if len(level.Rubric.Criteria) > 0 {
		sb.WriteString("## Rubric\n")
		for _, c := range level.Rubric.Criteria {
			sb.WriteString(fmt.Sprintf("- %s (weight %.2f): %s\n", c.Name, c.Weight, c.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("## Passing Score: %d\n\n", level.Rubric.PassingScore))
	sb.WriteString(fmt.Sprintf("## Judging Mode: %s\n\n", profile.Label))

	sb.WriteString("## Intern Submission\n\n")
	sb.WriteString(p.renderSubmission(level.Task.Kind, sub))
	sb.WriteString("\n\n")

	sb.WriteString(`## Your Task

Grade the submission against the rubric. Respond with ONLY a single JSON object, no prose, no markdown fences, matching exactly this schema:

{
  "score": <integer 0-100>,
  "passed": <boolean>,
  "feedback": "<two or three sentences of overall feedback>",
  "strengths": ["<what worked>"],
  "fixes": ["<concrete improvement>"],
  "criteriaScores": [{"name": "<criterion name>", "score": <0-100>, "feedback": "<one sentence>"}],
  "mood": "<pleased|neutral|disappointed>",
  "message": "<one in-character line from the mentor>"
}`)

	return sb.String()
}

func (p *Prompter) renderSubmission(kind domain.TaskKind, sub domain.Submission) string {
	switch kind {
	case domain.TaskMultipleChoice, domain.TaskABTest:
		return fmt.Sprintf("Chosen option: %s", sub.Choice)
	case domain.TaskFillBlanks:
		return fmt.Sprintf("Filled blanks: %s", strings.Join(sub.Blanks, ", "))
	case domain.TaskRankOrder:
		return fmt.Sprintf("Submitted order: %s", strings.Join(sub.Order, " > "))
	case domain.TaskMatching:
		var pairs []string
		for _, pair := range sub.Pairs {
			pairs = append(pairs, fmt.Sprintf("%s -> %s", pair.Left, pair.Right))
		}
		return fmt.Sprintf("Matched pairs: %s", strings.Join(pairs, "; "))
	default:
		return sub.Text
	}
}
