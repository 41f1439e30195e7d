package rule

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Issue describes a rule definition that was skipped.
type Issue struct {
	// Index is the zero-based position of the rule in the document.
	Index int
	Name  string
	Err   error
}

func (i Issue) Error() string {
	return fmt.Sprintf("rule #%d (%s): %v", i.Index, i.Name, i.Err)
}

// Parse decodes a YAML list of rule definitions:
//
//   - name: Spam words
//     check: contains
//     values: [viagra, casino]
//     score: 50
//     fields: ~          # present but empty: all fields plus the message
//   - check: less_than
//     property: duration
//     values: 3
//     score: 100
//     limit: 9999
//
// Malformed rules are logged, reported as issues and left out of the set. Rules with an
// unknown check are logged and kept; they count zero. Only a document that is not a list
// is an error. An empty document yields a nil Set.
func Parse(content []byte) (Set, []Issue, error) {
	var raw []any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, nil, fmt.Errorf("rules: %w", err)
	}
	if raw == nil {
		return nil, nil, nil
	}

	env, err := NewExpressionEnv()
	if err != nil {
		return nil, nil, err
	}

	set := make(Set, 0, len(raw))
	var issues []Issue
	for i, item := range raw {
		r, err := decode(item)
		if err == nil {
			err = r.Init(env)
		}
		if err != nil {
			issue := Issue{Index: i, Name: r.DisplayName(), Err: err}
			slog.Warn("Skipping malformed scoring rule", "index", i, "rule", issue.Name, "error", err)
			issues = append(issues, issue)
			continue
		}
		if !r.Check.Known() {
			slog.Warn("Unknown scoring rule check, the rule never matches", "index", i, "rule", r.DisplayName(), "check", r.Check)
		}
		set = append(set, r)
	}

	return set, issues, nil
}

// LoadFromFile reads and parses a rule file.
func LoadFromFile(file string) (Set, []Issue, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}
	return Parse(content)
}

func decode(item any) (Rule, error) {
	var r Rule

	def, ok := item.(map[string]any)
	if !ok {
		return r, errors.New("definition must be a mapping")
	}

	if name, found := def["name"]; found && name != nil {
		s, ok := name.(string)
		if !ok {
			return r, errors.New("name must be a string")
		}
		r.Name = s
	}

	check, ok := def["check"].(string)
	if !ok || check == "" {
		return r, errors.New("check is required")
	}
	r.Check = Check(check)

	rawScore, found := def["score"]
	if !found || rawScore == nil {
		return r, errors.New("score is required")
	}
	score, ok := toInt(rawScore)
	if !ok {
		return r, errors.New("score must be an integer")
	}
	r.Score = score

	if rawLimit, found := def["limit"]; found && rawLimit != nil {
		limit, ok := toInt(rawLimit)
		if !ok {
			return r, errors.New("limit must be an integer")
		}
		r.Limit = &limit
	}

	target, err := decodeTarget(def)
	if err != nil {
		return r, err
	}
	r.Target = target
	r.Values.Raw = def["values"]

	return r, nil
}

func decodeTarget(def map[string]any) (Target, error) {
	rawProperty, hasProperty := def["property"]
	rawFields, hasFields := def["fields"]
	hasProperty = hasProperty && rawProperty != nil
	// a null fields key only selects all fields when no property is given
	hasFields = hasFields && (rawFields != nil || !hasProperty)

	switch {
	case hasProperty && hasFields:
		return Target{}, errors.New("property and fields are mutually exclusive")
	case hasProperty:
		path, ok := rawProperty.(string)
		if !ok || path == "" {
			return Target{}, errors.New("property must be a non-empty string")
		}
		return Property(path), nil
	case hasFields:
		switch v := rawFields.(type) {
		case nil:
			return AllFields(), nil
		case bool:
			if v {
				return AllFields(), nil
			}
		case string:
			if v == "*" || v == "all" {
				return AllFields(), nil
			}
		case []any:
			names, err := toStrings(v)
			if err != nil {
				return Target{}, fmt.Errorf("fields: %w", err)
			}
			return Fields(names...), nil
		}
		return Target{}, errors.New(`fields must be a list of names, "*" or null`)
	}

	return Target{}, errors.New("either fields or property is required")
}
