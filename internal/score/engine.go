package score

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"glean/internal/score/check"
	"glean/internal/score/grade"
	"glean/internal/score/rule"
	"glean/internal/submission"
)

// Score range applied after all rules and caps.
const (
	DefaultMin = 1
	DefaultMax = 1000000
)

// Outcome tells whether an evaluation produced a score.
type Outcome string

const (
	OutcomeScored    Outcome = "scored"
	OutcomeUnchanged Outcome = "unchanged"
)

// Result is the outcome of one evaluation.
type Result struct {
	Outcome Outcome
	Score   int
	// Grade is only set when the submission was ungraded before the evaluation.
	Grade string
	// Explanation is only populated in detailed mode.
	Explanation []string
	// Cap is the lowest limit declared by a matching rule, if any.
	Cap *int
}

// Apply copies a scored result onto s.
func (r Result) Apply(s *submission.Submission) {
	if r.Outcome != OutcomeScored {
		return
	}
	s.Score = r.Score
	if r.Grade != "" {
		s.Grade = r.Grade
	}
}

// MarshalJSON omits the score for unchanged outcomes.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{"outcome": r.Outcome}
	if r.Outcome == OutcomeScored {
		out["score"] = r.Score
		if r.Grade != "" {
			out["grade"] = r.Grade
		}
		if r.Explanation != nil {
			out["explanation"] = r.Explanation
		}
		if r.Cap != nil {
			out["cap"] = *r.Cap
		}
	}
	return json.Marshal(out)
}

// InvalidViewError is returned when the caller hands over a submission view the
// engine cannot work with.
type InvalidViewError struct {
	message string
}

// Error returns the error text.
func (e *InvalidViewError) Error() string {
	return e.message
}

// NewInvalidViewError creates an InvalidViewError with the given reason.
func NewInvalidViewError(reason string) *InvalidViewError {
	return &InvalidViewError{message: "invalid submission view: " + reason}
}

// Engine scores submissions against rule sets. It keeps no state between calls and
// is safe for concurrent use as long as the rule sets passed in are not mutated.
type Engine struct {
	evaluator *check.Evaluator
	min       int
	max       int
	bands     grade.Bands
}

// Option configures an Engine.
type Option func(*Engine)

// WithRange sets the absolute score range.
func WithRange(min, max int) Option {
	return func(e *Engine) {
		e.min, e.max = min, max
	}
}

// WithBands sets the grade bands.
func WithBands(bands grade.Bands) Option {
	return func(e *Engine) {
		e.bands = bands
	}
}

// WithEvaluator sets the predicate evaluator.
func WithEvaluator(evaluator *check.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = evaluator
	}
}

// NewEngine creates an Engine with the default range and bands unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		min:   DefaultMin,
		max:   DefaultMax,
		bands: grade.Default,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.evaluator == nil {
		e.evaluator = check.NewEvaluator()
	}
	return e
}

// Bands returns the grade bands of the engine.
func (e *Engine) Bands() grade.Bands {
	return e.bands
}

// Evaluate applies rules in order to view:
//  1. every valid rule adds score*count, where count is the rule's match count;
//  2. the total is lowered to the smallest limit of all matching capped rules;
//  3. the total is clamped to the engine range;
//  4. an ungraded submission is graded.
//
// An empty rule set leaves the submission unchanged. Rule problems never fail the
// evaluation; only an unusable view does.
func (e *Engine) Evaluate(view submission.View, rules rule.Set, detailed bool) (Result, error) {
	if view == nil {
		return Result{}, NewInvalidViewError("view is nil")
	}
	if len(rules) == 0 {
		return Result{Outcome: OutcomeUnchanged}, nil
	}
	current := view.Grade()
	if !e.bands.Known(current) {
		return Result{}, NewInvalidViewError(fmt.Sprintf("unknown grade %q", current))
	}

	result := Result{Outcome: OutcomeScored}
	if detailed {
		result.Explanation = []string{}
	}

	total := 0
	for i := range rules {
		r := &rules[i]
		if !r.Valid() {
			continue
		}

		count := e.evaluator.Count(r, view)
		if count <= 0 {
			continue
		}

		if detailed {
			result.Explanation = append(result.Explanation, explain(r, count))
		}

		if r.Limit != nil {
			if result.Cap == nil || *r.Limit < *result.Cap {
				limit := *r.Limit
				result.Cap = &limit
			}
			if detailed {
				result.Explanation = append(result.Explanation,
					fmt.Sprintf("MAXIMUM SCORE SET TO %d, BY RULE: %s.", *r.Limit, r.DisplayName()))
			}
		}

		total += r.Score * count
	}

	if result.Cap != nil && total > *result.Cap {
		total = *result.Cap
	}

	slog.Debug("Score calculated", "score", total)

	switch {
	case total < e.min:
		total = e.min
	case total > e.max:
		total = e.max
	}
	result.Score = total

	if current == grade.Ungraded {
		result.Grade = e.bands.Classify(total)
		slog.Debug("Grade set", "grade", result.Grade, "score", total)
	}

	return result, nil
}

func explain(r *rule.Rule, count int) string {
	mod, points := "added", r.Score
	if points < 0 {
		mod, points = "removed", -points
	}
	occasion := "which"
	if count > 1 {
		occasion = fmt.Sprintf("on %d occasions, each", count)
	}
	return fmt.Sprintf("%s %s %s %d points.", r.DisplayName(), occasion, mod, points)
}
