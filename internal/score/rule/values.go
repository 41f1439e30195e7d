package rule

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"glean/internal/submission"

	"github.com/dlclark/regexp2"
	"github.com/google/cel-go/cel"
)

// MatchTimeout bounds a single regular expression match of an operator supplied pattern.
var MatchTimeout = time.Second

// Values holds the check parameters, parsed from Raw by Init.
type Values struct {
	// Raw is the parameter as written in the rule definition.
	Raw any

	Pattern   *regexp2.Regexp
	Threshold int
	Needles   []string
	Flag      bool
	Length    int
	Duration  time.Duration
	Program   cel.Program
}

// Init validates Raw against the shape the check expects and compiles it.
// Unknown checks are accepted as is. env is only used by expression checks and
// is created on demand when nil.
func (r *Rule) Init(env *cel.Env) error {
	v := &r.Values
	var err error

	switch r.Check {
	case CheckRegexpCountOver:
		list, ok := v.Raw.([]any)
		if !ok || len(list) != 2 {
			return errors.New(`regexp_count_over needs values ["<regexp>", <non-negative-int>]`)
		}
		pattern, ok := list[0].(string)
		threshold, isInt := toInt(list[1])
		if !ok || !isInt || threshold < 0 {
			return errors.New(`regexp_count_over needs values ["<regexp>", <non-negative-int>]`)
		}
		if v.Pattern, err = compile(pattern); err != nil {
			return err
		}
		v.Threshold = threshold
	case CheckRegexp, CheckNotRegexp:
		pattern, ok := v.Raw.(string)
		if !ok {
			return fmt.Errorf("%s needs a pattern string", r.Check)
		}
		if v.Pattern, err = compile(pattern); err != nil {
			return err
		}
	case CheckContains, CheckMissing, CheckEndsWith:
		if v.Needles, err = toStrings(v.Raw); err != nil {
			return fmt.Errorf("%s: %w", r.Check, err)
		}
	case CheckIsBool:
		switch b := v.Raw.(type) {
		case bool:
			v.Flag = b
		default:
			n, ok := toInt(b)
			if !ok {
				return errors.New("is_bool needs a boolean")
			}
			v.Flag = n != 0
		}
	case CheckLengthUnder, CheckLengthOver:
		n, ok := toInt(v.Raw)
		if !ok || n < 0 {
			return fmt.Errorf("%s needs a non-negative integer", r.Check)
		}
		v.Length = n
	case CheckLessThan:
		if v.Duration, err = submission.ParseDuration(v.Raw); err != nil {
			return fmt.Errorf("less_than: %w", err)
		}
	case CheckExpression:
		expr, ok := v.Raw.(string)
		if !ok || expr == "" {
			return errors.New("expression needs a CEL expression string")
		}
		if env == nil {
			if env, err = NewExpressionEnv(); err != nil {
				return err
			}
		}
		if v.Program, err = compileExpression(env, expr); err != nil {
			return err
		}
	}

	return nil
}

func compile(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	re.MatchTimeout = MatchTimeout
	return re, nil
}

func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("value %v is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.New("needs a list of strings")
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}
