package check

import (
	"log/slog"
	"sync"
	"time"

	"glean/internal/score/rule"
	"glean/internal/submission"
)

// Evaluator computes how many times a rule matches a submission.
// It holds no per-call state and is safe for concurrent use.
type Evaluator struct {
	handlers map[rule.Check]handler
	emails   *EmailValidator
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithEmailValidator replaces the format-only email validator.
func WithEmailValidator(v *EmailValidator) Option {
	return func(e *Evaluator) {
		e.emails = v
	}
}

// NewEvaluator creates an Evaluator. Without options, email checks validate format only.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		handlers: handlers,
		emails:   NewEmailValidator(nil, 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Count returns the match count of r against view. Property targets count a single
// value. Field targets count matching fields, plus the message matches when the rule
// targets all fields. Unknown or misapplied checks count zero.
func (e *Evaluator) Count(r *rule.Rule, view submission.View) int {
	switch r.Check {
	case rule.CheckLessThan:
		return e.lessThan(r, view)
	case rule.CheckEmail:
		return e.email(r, view)
	}

	h, found := e.handlers[r.Check]
	if !found {
		slog.Debug("Unknown rule check type", "check", r.Check, "rule", r.DisplayName())
		return 0
	}

	props := sync.OnceValue(view.Properties)

	switch r.Target.Kind {
	case rule.TargetSingleProperty:
		path := r.Target.Property
		return h(r, propertySubject(path, view.Property(path), props))
	case rule.TargetExplicitFields, rule.TargetAllFieldsAndMessage:
		count := 0
		for _, f := range view.FieldsOf(e.fieldNames(r)) {
			if h(r, rowSubject(f, props)) > 0 {
				count++
			}
		}
		if r.Target.Kind == rule.TargetAllFieldsAndMessage {
			count += h(r, messageSubject(view.Message(), props))
		}
		return count
	}

	return 0
}

func (e *Evaluator) fieldNames(r *rule.Rule) []string {
	if r.Target.Kind != rule.TargetExplicitFields {
		return nil
	}
	if r.Target.Fields == nil {
		return []string{}
	}
	return r.Target.Fields
}

func (e *Evaluator) lessThan(r *rule.Rule, view submission.View) int {
	if r.Target.Kind != rule.TargetSingleProperty || r.Target.Property != submission.PropertyDuration {
		slog.Warn(`Scoring rule check "less_than" attempted on an item besides property of "duration"`,
			"rule", r.DisplayName(), "target", r.Target.String())
		return 0
	}
	duration, ok := view.Property(submission.PropertyDuration).(time.Duration)
	if !ok {
		slog.Warn("Submission duration is not available", "rule", r.DisplayName())
		return 0
	}
	return b2i(duration < r.Values.Duration)
}

func (e *Evaluator) email(r *rule.Rule, view submission.View) int {
	if r.Target.Kind != rule.TargetExplicitFields {
		slog.Warn(`Scoring rule check "email" attempted on an item besides fields of array`,
			"rule", r.DisplayName(), "target", r.Target.String())
		return 0
	}

	count := 0
	for _, input := range view.ValuesOf(e.fieldNames(r)) {
		address := ""
		if input != nil {
			address = *input
		}
		if err := e.emails.Validate(address); err != nil {
			slog.Debug("Email failed validation", "email", address, "error", err)
			count++
		}
	}
	return count
}
