package rule

import "fmt"

// Check names the matching operation a rule performs.
type Check string

const (
	CheckRegexpCountOver Check = "regexp_count_over"
	CheckNotRegexp       Check = "not_regexp"
	CheckRegexp          Check = "regexp"
	CheckContains        Check = "contains"
	CheckMissing         Check = "missing"
	CheckEndsWith        Check = "ends_with"
	CheckIsBool          Check = "is_bool"
	CheckIsEmpty         Check = "is_empty"
	CheckLengthUnder     Check = "length_under"
	CheckLengthOver      Check = "length_over"
	CheckLessThan        Check = "less_than"
	CheckEmail           Check = "email"
	CheckExpression      Check = "expression"
)

var knownChecks = map[Check]struct{}{
	CheckRegexpCountOver: {},
	CheckNotRegexp:       {},
	CheckRegexp:          {},
	CheckContains:        {},
	CheckMissing:         {},
	CheckEndsWith:        {},
	CheckIsBool:          {},
	CheckIsEmpty:         {},
	CheckLengthUnder:     {},
	CheckLengthOver:      {},
	CheckLessThan:        {},
	CheckEmail:           {},
	CheckExpression:      {},
}

// Known reports whether c is a check this version understands.
func (c Check) Known() bool {
	_, ok := knownChecks[c]
	return ok
}

// TargetKind selects what a rule is matched against.
type TargetKind int

const (
	// TargetNone marks a rule without a target; such rules are never evaluated.
	TargetNone TargetKind = iota
	// TargetAllFieldsAndMessage matches every scoring field plus the message.
	TargetAllFieldsAndMessage
	// TargetExplicitFields matches the listed scoring fields only, never the message.
	TargetExplicitFields
	// TargetSingleProperty matches one, possibly dotted, submission property.
	TargetSingleProperty
)

func (k TargetKind) String() string {
	switch k {
	case TargetAllFieldsAndMessage:
		return "all fields and message"
	case TargetExplicitFields:
		return "fields"
	case TargetSingleProperty:
		return "property"
	default:
		return "none"
	}
}

// Target is the tagged selector of a rule.
type Target struct {
	Kind     TargetKind
	Fields   []string
	Property string
}

// AllFields targets every scoring field and the message.
func AllFields() Target {
	return Target{Kind: TargetAllFieldsAndMessage}
}

// Fields targets the named fields.
func Fields(names ...string) Target {
	if names == nil {
		names = []string{}
	}
	return Target{Kind: TargetExplicitFields, Fields: names}
}

// Property targets a single property.
func Property(path string) Target {
	return Target{Kind: TargetSingleProperty, Property: path}
}

func (t Target) String() string {
	switch t.Kind {
	case TargetExplicitFields:
		return fmt.Sprintf("fields %v", t.Fields)
	case TargetSingleProperty:
		return "property " + t.Property
	default:
		return t.Kind.String()
	}
}

// DefaultName is used in explanations for rules without a name.
const DefaultName = "Unnamed rule"

// Rule is a single scoring predicate plus its point value and optional score cap.
type Rule struct {
	Name   string
	Check  Check
	Score  int
	Values Values
	Target Target
	// Limit caps the total score when the rule matches at least once.
	Limit *int
}

// Valid reports whether the rule can be evaluated at all.
func (r *Rule) Valid() bool {
	return r.Check != "" && r.Target.Kind != TargetNone
}

// DisplayName returns the rule name, or DefaultName.
func (r *Rule) DisplayName() string {
	if r.Name == "" {
		return DefaultName
	}
	return r.Name
}

func (r Rule) String() string {
	return fmt.Sprintf("%s(%s on %s, score %d)", r.DisplayName(), r.Check, r.Target, r.Score)
}

// Set is an ordered list of rules. A nil or empty Set means no rules are configured.
type Set []Rule

// New builds and initializes a rule from its parts.
func New(name string, check Check, score int, target Target, values any) (Rule, error) {
	r := Rule{
		Name:   name,
		Check:  check,
		Score:  score,
		Target: target,
		Values: Values{Raw: values},
	}
	if err := r.Init(nil); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// Unknown returns the rules whose check this version does not understand.
func (s Set) Unknown() []Rule {
	var unknown []Rule
	for _, r := range s {
		if !r.Check.Known() {
			unknown = append(unknown, r)
		}
	}
	return unknown
}
