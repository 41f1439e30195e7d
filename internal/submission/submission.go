package submission

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Ungraded is the grade of a submission that has not been scored yet.
const Ungraded = "ungraded"

// MaxDuration is the longest form fill duration accepted from a host.
const MaxDuration = 30 * 24 * time.Hour

// messageKeys are the form keys holding the free-text message, least preferred first.
// A later key overrides an earlier one, so "message" wins over "comment" and "comments".
var messageKeys = []string{"comments", "comment", "message"}

// Field is a single user supplied form field. Input is nil when the field was left blank.
type Field struct {
	Name  string  `json:"name"`
	Input *string `json:"input"`
}

// IPAddress holds the already resolved location of the submitter.
type IPAddress struct {
	Address      string `json:"address"`
	Country      string `json:"country"`
	Region       string `json:"region"`
	City         string `json:"city"`
	Organization string `json:"organization"`
}

// Type names the website and the form a submission came from.
type Type struct {
	Website string `json:"website"`
	Title   string `json:"title"`
}

// Submission is the in-memory state of one submitted web form.
type Submission struct {
	ID           string
	Fields       []Field
	Message      *string
	Duration     time.Duration
	Honeypot     bool
	Device       string
	Platform     string
	Browser      string
	HasUTMSource bool
	IPAddress    *IPAddress
	Type         *Type
	Score        int
	Grade        string
}

// Form is the wire shape a host uses to hand a submission over for scoring.
type Form struct {
	ID       string             `json:"id"`
	Fields   map[string]*string `json:"fields"`
	Meta     Meta               `json:"meta"`
	Source   Type               `json:"source"`
	Links    Links              `json:"links"`
	Location *IPAddress         `json:"location,omitempty"`
	Score    *int               `json:"score,omitempty"`
	Grade    string             `json:"grade,omitempty"`
}

// Meta carries request metadata gathered by the form host.
type Meta struct {
	IPAddress string `json:"ip_address"`
	Honeypot  bool   `json:"honeypot"`
	// Duration is seconds (number) or a "[[H:]i:]s[.u]" string; -1 means it could not be measured.
	Duration any    `json:"duration"`
	Device   string `json:"device"`
	Platform string `json:"platform"`
	Browser  string `json:"browser"`
}

// Links are the URLs a submitter passed through.
type Links struct {
	Referral string `json:"referral"`
	Landing  string `json:"landing"`
	Submit   string `json:"submit"`
}

// FromForm builds a Submission from a form. Field inputs are trimmed and blank inputs become
// nil; the message is pulled out of the fields and kept as an empty string when blank.
func FromForm(f Form) (*Submission, error) {
	if len(f.Fields) == 0 {
		return nil, errors.New("form: at least one field is required")
	}

	duration, err := ParseDuration(f.Meta.Duration)
	if err != nil {
		return nil, fmt.Errorf("form: meta.duration: %w", err)
	}
	if duration < -2*time.Second || duration > MaxDuration {
		return nil, fmt.Errorf("form: meta.duration: %s out of range", duration)
	}

	s := &Submission{
		ID:       f.ID,
		Duration: duration,
		Honeypot: f.Meta.Honeypot,
		Device:   f.Meta.Device,
		Platform: f.Meta.Platform,
		Browser:  f.Meta.Browser,
		Type:     &Type{Website: f.Source.Website, Title: f.Source.Title},
		Grade:    f.Grade,
		Score:    -1,
	}
	if s.Grade == "" {
		s.Grade = Ungraded
	}
	if f.Score != nil {
		s.Score = *f.Score
	}

	s.IPAddress = &IPAddress{Address: f.Meta.IPAddress}
	if f.Location != nil {
		loc := *f.Location
		if loc.Address == "" {
			loc.Address = f.Meta.IPAddress
		}
		s.IPAddress = &loc
	}

	fields := make(map[string]*string, len(f.Fields))
	for name, input := range f.Fields {
		fields[name] = input
	}
	for _, key := range messageKeys {
		if input, found := fields[key]; found {
			message := ""
			if input != nil {
				message = strings.TrimSpace(*input)
			}
			s.Message = &message
			delete(fields, key)
		}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.Fields = append(s.Fields, Field{Name: name, Input: TrimToNil(fields[name])})
	}

	s.HasUTMSource = hasUTMSource(f.Links.Landing)

	return s, nil
}

// TrimToNil trims the value and returns nil when nothing is left.
func TrimToNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func hasUTMSource(landing string) bool {
	if landing == "" {
		return false
	}
	u, err := url.Parse(landing)
	if err != nil {
		return false
	}
	return u.Query().Get("utm_source") != ""
}
