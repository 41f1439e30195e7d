package scorer

import (
	"log/slog"

	"glean/internal/score"
	"glean/internal/score/rule"
	"glean/internal/submission"
)

// RulesProvider supplies the rule set for each evaluation.
type RulesProvider interface {
	Rules() rule.Set
}

// RulesScorer scores submissions with the rules currently held by a provider.
// Each call takes one rule set snapshot, so a concurrent reload never mixes rule sets.
type RulesScorer struct {
	engine           *score.Engine
	rules            RulesProvider
	nonscoringPrefix string
}

// Score evaluates s and, when scored, writes the score and (if s was ungraded)
// the grade back to s.
//
// Returns:
//   - the evaluation result; OutcomeUnchanged when no rules are available.
//   - an error only when s cannot be evaluated at all.
func (rs *RulesScorer) Score(s *submission.Submission, detailed bool) (score.Result, error) {
	if s == nil {
		return score.Result{}, score.NewInvalidViewError("submission is nil")
	}

	view := submission.NewFieldStore(s, rs.nonscoringPrefix)
	result, err := rs.engine.Evaluate(view, rs.rules.Rules(), detailed)
	if err != nil {
		return result, err
	}

	if result.Outcome == score.OutcomeUnchanged {
		slog.Info("Submission score unchanged, no scoring rules", "id", s.ID)
		return result, nil
	}

	result.Apply(s)
	slog.Debug("Submission scored", "id", s.ID, "score", s.Score, "grade", s.Grade)
	return result, nil
}

// NewRulesScorer creates a new instance of RulesScorer.
// Parameters:
//   - engine: scoring engine holding the score range and grade bands
//   - rules: provider of the current rule set, typically a *ruleset.Store
//   - nonscoringPrefix: fields starting with it are ignored by rules
func NewRulesScorer(engine *score.Engine, rules RulesProvider, nonscoringPrefix string) *RulesScorer {
	return &RulesScorer{
		engine:           engine,
		rules:            rules,
		nonscoringPrefix: nonscoringPrefix,
	}
}

var _ score.SubmissionScorer = (*RulesScorer)(nil)
