package check

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"glean/internal/submission"

	"golang.org/x/text/cases"
)

// subject is one value a rule is matched against.
type subject struct {
	name  string
	value string
	null  bool
	// message is set when the value is the submission message; a null message is
	// exempt from the "empty" and "missing" style checks.
	message bool
	// row is set for form fields. A null row never matches text checks and multi-value
	// checks count a row at most once.
	row bool

	props func() map[string]any
}

func rowSubject(f submission.Field, props func() map[string]any) subject {
	s := subject{name: f.Name, row: true, null: f.Input == nil, props: props}
	if f.Input != nil {
		s.value = *f.Input
	}
	return s
}

func messageSubject(message *string, props func() map[string]any) subject {
	s := subject{name: submission.PropertyMessage, message: true, null: message == nil, props: props}
	if message != nil {
		s.value = *message
	}
	return s
}

func propertySubject(path string, value any, props func() map[string]any) subject {
	s := subject{
		name:    path,
		message: path == submission.PropertyMessage,
		props:   props,
	}
	switch v := value.(type) {
	case nil:
		s.null = true
	case string:
		s.value = v
	case *string:
		if v == nil {
			s.null = true
		} else {
			s.value = *v
		}
	case bool:
		if v {
			s.value = "1"
		}
	case time.Duration:
		s.value = strconv.FormatFloat(v.Seconds(), 'f', -1, 64)
	case int:
		s.value = strconv.Itoa(v)
	default:
		s.value = fmt.Sprint(v)
	}
	return s
}

// exempt reports whether a null value must not count for a check that would
// otherwise match the empty string.
func (s subject) exempt() bool {
	return s.null && (s.row || s.message)
}

// skipRow reports whether a null field row is skipped by a text check.
func (s subject) skipRow() bool {
	return s.null && s.row
}

func (s subject) length() int {
	return utf8.RuneCountInString(s.value)
}

// truthy treats a field input as a number: its leading numeric prefix must be
// non-zero, so "false" and "no" are false. Other values are false only when "" or "0".
func (s subject) truthy() bool {
	if s.null {
		return false
	}
	if s.row {
		return numericPrefix(s.value) != 0
	}
	return s.value != "" && s.value != "0"
}

// numericPrefix parses the longest leading decimal number of v, ignoring leading
// spaces. Input without one is zero.
func numericPrefix(v string) float64 {
	v = strings.TrimLeft(v, " \t\n\r")
	end := 0
	if end < len(v) && (v[end] == '+' || v[end] == '-') {
		end++
	}
	digits := 0
	for end < len(v) && isDigit(v[end]) {
		end++
		digits++
	}
	if end < len(v) && v[end] == '.' {
		end++
		for end < len(v) && isDigit(v[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if end < len(v) && (v[end] == 'e' || v[end] == 'E') {
		exp := end + 1
		if exp < len(v) && (v[exp] == '+' || v[exp] == '-') {
			exp++
		}
		if exp < len(v) && isDigit(v[exp]) {
			for exp < len(v) && isDigit(v[exp]) {
				exp++
			}
			end = exp
		}
	}
	// out of range values parse to ±Inf or 0
	f, _ := strconv.ParseFloat(v[:end], 64)
	return f
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (s subject) empty() bool {
	if s.row {
		return s.null || s.value == ""
	}
	if s.message && s.null {
		return false
	}
	return s.value == "" || s.value == "0"
}

// fold applies Unicode case folding. A Caser is stateful, so one is made per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
