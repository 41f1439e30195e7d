package grade

import (
	"errors"
	"fmt"
	"math"

	"glean/internal/submission"
)

// Ungraded is the sentinel grade of a submission that was never scored.
const Ungraded = submission.Ungraded

// Band is a grade label and the highest score, inclusive, that still earns it.
type Band struct {
	Name string `mapstructure:"name" json:"name"`
	Max  int    `mapstructure:"max" json:"max"`
}

// Bands are ordered from best to worst. The last band catches every score above
// the previous bands, whatever its Max says.
type Bands []Band

// Default bands.
//
//	perfect      0 to under     10
//	quality     10 to under    100
//	review     100 to under  1,000
//	junk     1,000 to under 10,000
//	ignore  10,000 and up
var Default = Bands{
	{Name: "perfect", Max: 9},
	{Name: "quality", Max: 99},
	{Name: "review", Max: 999},
	{Name: "junk", Max: 9999},
	{Name: "ignore", Max: 1000000},
}

// Validate checks that the bands are non-empty, strictly ascending and uniquely named.
func (b Bands) Validate() error {
	if len(b) == 0 {
		return errors.New("grades: at least one band is required")
	}

	seen := make(map[string]struct{}, len(b))
	prev := math.MinInt
	for i, band := range b {
		if band.Name == "" {
			return fmt.Errorf("grades[%d]: name must be specified", i)
		}
		if band.Name == Ungraded {
			return fmt.Errorf("grades[%d]: %q is reserved", i, Ungraded)
		}
		if _, dup := seen[band.Name]; dup {
			return fmt.Errorf("grades[%d]: duplicate grade %q", i, band.Name)
		}
		seen[band.Name] = struct{}{}
		if band.Max <= prev {
			return fmt.Errorf("grades[%d]: max %d must be above %d", i, band.Max, prev)
		}
		prev = band.Max
	}

	return nil
}

// Classify returns the first band whose maximum is at or above score.
func (b Bands) Classify(score int) string {
	for i, band := range b {
		if score <= band.Max || i == len(b)-1 {
			return band.Name
		}
	}
	return Ungraded
}

// Known reports whether name is one of the bands or the ungraded sentinel.
func (b Bands) Known(name string) bool {
	if name == Ungraded {
		return true
	}
	for _, band := range b {
		if band.Name == name {
			return true
		}
	}
	return false
}
