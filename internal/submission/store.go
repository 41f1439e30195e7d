package submission

import "strings"

// View is the read-only surface the scoring engine reads a submission through.
type View interface {
	// ValueOf returns the input of the named field, nil when blank or absent.
	ValueOf(name string) *string
	// ValuesOf returns the inputs of the named scoring fields in submission order.
	// A nil names slice selects every scoring field.
	ValuesOf(names []string) []*string
	// FieldsOf is ValuesOf keeping the field names.
	FieldsOf(names []string) []Field
	// Message returns the free-text message, nil when the form had none.
	Message() *string
	// Property resolves a dotted property path, nil when any segment is absent.
	Property(path string) any
	// Properties returns a snapshot of the submission for expression rules.
	Properties() map[string]any
	// Grade returns the current grade.
	Grade() string
}

// FieldStore adapts a Submission to View. Fields whose name starts with the
// non-scoring prefix are hidden from ValuesOf and FieldsOf.
type FieldStore struct {
	submission       *Submission
	nonscoringPrefix string
}

// NewFieldStore wraps s. An empty prefix makes every field a scoring field.
func NewFieldStore(s *Submission, nonscoringPrefix string) *FieldStore {
	return &FieldStore{submission: s, nonscoringPrefix: nonscoringPrefix}
}

func (fs *FieldStore) ValueOf(name string) *string {
	for _, f := range fs.submission.Fields {
		if f.Name == name {
			return f.Input
		}
	}
	return nil
}

func (fs *FieldStore) ValuesOf(names []string) []*string {
	fields := fs.FieldsOf(names)
	values := make([]*string, len(fields))
	for i, f := range fields {
		values[i] = f.Input
	}
	return values
}

func (fs *FieldStore) FieldsOf(names []string) []Field {
	var wanted map[string]struct{}
	if names != nil {
		wanted = make(map[string]struct{}, len(names))
		for _, n := range names {
			wanted[n] = struct{}{}
		}
	}

	fields := make([]Field, 0, len(fs.submission.Fields))
	for _, f := range fs.submission.Fields {
		if !fs.scoring(f.Name) {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[f.Name]; !ok {
				continue
			}
		}
		fields = append(fields, f)
	}
	return fields
}

func (fs *FieldStore) Message() *string {
	return fs.submission.Message
}

func (fs *FieldStore) Grade() string {
	return fs.submission.Grade
}

// Property resolves one of the known properties. A single segment that is not a known
// property falls back to the form field of that name.
func (fs *FieldStore) Property(path string) any {
	s := fs.submission
	root, sub, nested := strings.Cut(path, ".")
	if nested {
		switch root {
		case "ip_address":
			if s.IPAddress == nil {
				return nil
			}
			return optional(ipAddressProperty(s.IPAddress, sub))
		case "type":
			if s.Type == nil {
				return nil
			}
			switch sub {
			case "website":
				return s.Type.Website
			case "title":
				return s.Type.Title
			}
		}
		return nil
	}

	switch root {
	case "message":
		if s.Message == nil {
			return nil
		}
		return *s.Message
	case "duration":
		return s.Duration
	case "honeypot":
		return s.Honeypot
	case "device":
		return s.Device
	case "platform":
		return s.Platform
	case "browser":
		return s.Browser
	case "has_utm_source":
		return s.HasUTMSource
	case "score":
		return s.Score
	case "grade":
		return s.Grade
	case "ip_address":
		if s.IPAddress == nil {
			return nil
		}
		return s.IPAddress.Address
	}

	if v := fs.ValueOf(root); v != nil {
		return *v
	}
	return nil
}

func (fs *FieldStore) Properties() map[string]any {
	s := fs.submission

	fields := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		if f.Input != nil && fs.scoring(f.Name) {
			fields[f.Name] = *f.Input
		}
	}

	props := map[string]any{
		"id":             s.ID,
		"fields":         fields,
		"has_message":    s.Message != nil,
		"message":        "",
		"duration":       s.Duration.Seconds(),
		"honeypot":       s.Honeypot,
		"device":         s.Device,
		"platform":       s.Platform,
		"browser":        s.Browser,
		"has_utm_source": s.HasUTMSource,
		"grade":          s.Grade,
	}
	if s.Message != nil {
		props["message"] = *s.Message
	}
	if s.IPAddress != nil {
		props["ip_address"] = map[string]any{
			"address":      s.IPAddress.Address,
			"country":      s.IPAddress.Country,
			"region":       s.IPAddress.Region,
			"city":         s.IPAddress.City,
			"organization": s.IPAddress.Organization,
		}
	}
	if s.Type != nil {
		props["type"] = map[string]any{
			"website": s.Type.Website,
			"title":   s.Type.Title,
		}
	}
	return props
}

func (fs *FieldStore) scoring(name string) bool {
	return fs.nonscoringPrefix == "" || !strings.HasPrefix(name, fs.nonscoringPrefix)
}

func ipAddressProperty(ip *IPAddress, sub string) (string, bool) {
	switch sub {
	case "address":
		return ip.Address, true
	case "country":
		return ip.Country, true
	case "region":
		return ip.Region, true
	case "city":
		return ip.City, true
	case "organization":
		return ip.Organization, true
	}
	return "", false
}

func optional(v string, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

// Property paths with dedicated check semantics.
const (
	PropertyDuration = "duration"
	PropertyMessage  = "message"
)

var _ View = (*FieldStore)(nil)
