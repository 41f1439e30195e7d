package submission

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	hmsFraction = regexp.MustCompile(`^(\d+):(\d{1,2}):(\d{1,2})\.(\d*)$`)
	hms         = regexp.MustCompile(`^(\d+):(\d{1,2}):(\d{1,2})$`)
	msFraction  = regexp.MustCompile(`^(\d+):(\d{1,2})\.(\d*)$`)
	ms          = regexp.MustCompile(`^(\d+):(\d{1,2})$`)
)

// ParseDuration converts seconds (any Go number or numeric string) or a "[[H:]i:]s[.u]"
// string into a time.Duration. A nil value is an error.
func ParseDuration(value any) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case uint64:
		return time.Duration(v) * time.Second, nil
	case float32:
		return seconds(float64(v))
	case float64:
		return seconds(v)
	case string:
		return parseClock(strings.TrimSpace(v))
	case nil:
		return 0, fmt.Errorf("duration is required")
	default:
		return 0, fmt.Errorf("unsupported duration type %T", value)
	}
}

func seconds(v float64) (time.Duration, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid duration %v", v)
	}
	return time.Duration(math.Round(v * float64(time.Second))), nil
}

func parseClock(v string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return seconds(f)
	}

	var h, m, s, frac string
	switch {
	case hmsFraction.MatchString(v):
		p := hmsFraction.FindStringSubmatch(v)
		h, m, s, frac = p[1], p[2], p[3], p[4]
	case hms.MatchString(v):
		p := hms.FindStringSubmatch(v)
		h, m, s = p[1], p[2], p[3]
	case msFraction.MatchString(v):
		p := msFraction.FindStringSubmatch(v)
		m, s, frac = p[1], p[2], p[3]
	case ms.MatchString(v):
		p := ms.FindStringSubmatch(v)
		m, s = p[1], p[2]
	default:
		return 0, fmt.Errorf("invalid duration %q, expected [[H:]i:]s[.u]", v)
	}

	total := atoi(h)*time.Hour + atoi(m)*time.Minute + atoi(s)*time.Second
	if frac != "" {
		// microsecond precision
		if len(frac) > 6 {
			frac = frac[:6]
		}
		frac += strings.Repeat("0", 6-len(frac))
		total += atoi(frac) * time.Microsecond
	}
	return total, nil
}

func atoi(s string) time.Duration {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return time.Duration(n)
}
