package check

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"glean/internal/score/rule"
)

// handler returns how many times r matches a single subject.
type handler func(r *rule.Rule, s subject) int

var handlers = map[rule.Check]handler{
	rule.CheckRegexpCountOver: regexpCountOver,
	rule.CheckNotRegexp:       notRegexp,
	rule.CheckRegexp:          matchRegexp,
	rule.CheckContains:        contains,
	rule.CheckMissing:         missing,
	rule.CheckEndsWith:        endsWith,
	rule.CheckIsBool:          isBool,
	rule.CheckIsEmpty:         isEmpty,
	rule.CheckLengthUnder:     lengthUnder,
	rule.CheckLengthOver:      lengthOver,
	rule.CheckExpression:      expression,
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func match(r *rule.Rule, s subject) (bool, bool) {
	if r.Values.Pattern == nil {
		return false, false
	}
	ok, err := r.Values.Pattern.MatchString(s.value)
	if err != nil {
		slog.Warn("Scoring rule pattern failed", "rule", r.DisplayName(), "error", err)
		return false, false
	}
	return ok, true
}

// regexpCountOver strips every match of the pattern and counts the removed characters.
func regexpCountOver(r *rule.Rule, s subject) int {
	if s.skipRow() || r.Values.Pattern == nil {
		return 0
	}
	stripped, err := r.Values.Pattern.Replace(s.value, "", -1, -1)
	if err != nil {
		slog.Warn("Scoring rule pattern failed", "rule", r.DisplayName(), "error", err)
		return 0
	}
	removed := s.length() - utf8.RuneCountInString(stripped)
	return b2i(removed > r.Values.Threshold)
}

func notRegexp(r *rule.Rule, s subject) int {
	if s.exempt() {
		return 0
	}
	matched, ok := match(r, s)
	return b2i(ok && !matched)
}

func matchRegexp(r *rule.Rule, s subject) int {
	if s.skipRow() {
		return 0
	}
	matched, ok := match(r, s)
	return b2i(ok && matched)
}

func contains(r *rule.Rule, s subject) int {
	if s.skipRow() {
		return 0
	}
	haystack := fold(s.value)
	count := 0
	for _, needle := range r.Values.Needles {
		count += b2i(strings.Contains(haystack, fold(needle)))
	}
	return count
}

func missing(r *rule.Rule, s subject) int {
	if s.exempt() {
		return 0
	}
	haystack := fold(s.value)
	count := 0
	for _, needle := range r.Values.Needles {
		count += b2i(!strings.Contains(haystack, fold(needle)))
	}
	return count
}

func endsWith(r *rule.Rule, s subject) int {
	if s.skipRow() {
		return 0
	}
	haystack := fold(s.value)
	count := 0
	for _, needle := range r.Values.Needles {
		count += b2i(strings.HasSuffix(haystack, fold(needle)))
	}
	return count
}

func isBool(r *rule.Rule, s subject) int {
	return b2i(s.truthy() == r.Values.Flag)
}

func isEmpty(_ *rule.Rule, s subject) int {
	return b2i(s.empty())
}

func lengthUnder(r *rule.Rule, s subject) int {
	if s.exempt() {
		return 0
	}
	return b2i(s.length() < r.Values.Length)
}

func lengthOver(r *rule.Rule, s subject) int {
	if s.skipRow() {
		return 0
	}
	return b2i(s.length() > r.Values.Length)
}

func expression(r *rule.Rule, s subject) int {
	if r.Values.Program == nil {
		return 0
	}
	out, _, err := r.Values.Program.Eval(map[string]any{
		"value":      s.value,
		"is_null":    s.null,
		"name":       s.name,
		"submission": s.props(),
	})
	if err != nil {
		slog.Debug("Scoring rule expression failed", "rule", r.DisplayName(), "subject", s.name, "error", err)
		return 0
	}
	matched, _ := out.Value().(bool)
	return b2i(matched)
}
