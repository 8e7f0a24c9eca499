// Package semgrep describes the JSON output contract of the Semgrep CLI and
// invokes the CLI to produce it.
package semgrep

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Severity is the native severity of a Semgrep rule.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

func (s *Severity) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "severity must be a string")
	}
	switch v := Severity(raw); v {
	case SeverityInfo, SeverityWarning, SeverityError:
		*s = v
		return nil
	}
	return fmt.Errorf("unknown severity %q", raw)
}

// Category is a Code Climate category name carried in rule metadata under
// the "cc.categories" key.
type Category string

const (
	CategoryBugRisk       Category = "Bug Risk"
	CategoryClarity       Category = "Clarity"
	CategoryCompatibility Category = "Compatibility"
	CategoryComplexity    Category = "Complexity"
	CategoryDuplication   Category = "Duplication"
	CategoryPerformance   Category = "Performance"
	CategorySecurity      Category = "Security"
	CategoryStyle         Category = "Style"
)

var knownCategories = map[Category]struct{}{
	CategoryBugRisk:       {},
	CategoryClarity:       {},
	CategoryCompatibility: {},
	CategoryComplexity:    {},
	CategoryDuplication:   {},
	CategoryPerformance:   {},
	CategorySecurity:      {},
	CategoryStyle:         {},
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "category must be a string")
	}
	if _, ok := knownCategories[Category(raw)]; !ok {
		return fmt.Errorf("unknown category %q", raw)
	}
	*c = Category(raw)
	return nil
}

// CCSeverity is a Code Climate severity carried in rule metadata under the
// "cc.severity" key.
type CCSeverity string

const (
	CCSeverityInfo     CCSeverity = "info"
	CCSeverityMinor    CCSeverity = "minor"
	CCSeverityMajor    CCSeverity = "major"
	CCSeverityCritical CCSeverity = "critical"
	CCSeverityBlocker  CCSeverity = "blocker"
)

func (s *CCSeverity) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "cc.severity must be a string")
	}
	switch v := CCSeverity(raw); v {
	case CCSeverityInfo, CCSeverityMinor, CCSeverityMajor, CCSeverityCritical, CCSeverityBlocker:
		*s = v
		return nil
	}
	return fmt.Errorf("unknown cc.severity %q", raw)
}

// Position is a 1-based line/column pair as reported by Semgrep.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Metadata holds the rule metadata keys this engine understands. Any other
// keys a rule author adds are ignored.
type Metadata struct {
	Categories []Category  `json:"cc.categories,omitempty"`
	Severity   *CCSeverity `json:"cc.severity,omitempty"`
}

type Extra struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Metadata Metadata `json:"metadata"`
}

// Result is a single match.
type Result struct {
	CheckID string   `json:"check_id"`
	Start   Position `json:"start"`
	End     Position `json:"end"`
	Path    string   `json:"path"`
	Extra   Extra    `json:"extra"`
}

// Validate reports the first missing required field.
func (r Result) Validate() error {
	switch {
	case r.CheckID == "":
		return errors.New("result is missing check_id")
	case r.Path == "":
		return fmt.Errorf("result %s is missing path", r.CheckID)
	case r.Extra.Message == "":
		return fmt.Errorf("result %s is missing extra.message", r.CheckID)
	case r.Extra.Severity == "":
		return fmt.Errorf("result %s is missing extra.severity", r.CheckID)
	}
	return nil
}

type Span struct {
	File       *string   `json:"file,omitempty"`
	SourceHash *string   `json:"source_hash,omitempty"`
	Start      *Position `json:"start,omitempty"`
	End        *Position `json:"end,omitempty"`
}

// ErrorType is the error class name. Newer Semgrep releases encode it as a
// list whose first element is the class name; both shapes are accepted.
type ErrorType string

func (t *ErrorType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = ErrorType(s)
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(b, &list); err != nil {
		return errors.Wrap(err, "error type must be a string or a list")
	}
	if len(list) == 0 {
		*t = ""
		return nil
	}
	if err := json.Unmarshal(list[0], &s); err != nil {
		return errors.Wrap(err, "error type list must start with a string")
	}
	*t = ErrorType(s)
	return nil
}

// Error is a structured error reported by Semgrep. It does not carry partial
// results.
type Error struct {
	Code     *int       `json:"code,omitempty"`
	Help     *string    `json:"help,omitempty"`
	Level    *string    `json:"level,omitempty"`
	LongMsg  *string    `json:"long_msg,omitempty"`
	ShortMsg *string    `json:"short_msg,omitempty"`
	Message  *string    `json:"message,omitempty"`
	Spans    []Span     `json:"spans,omitempty"`
	Type     *ErrorType `json:"type,omitempty"`
}

// Error returns the engine's own message text.
func (e *Error) Error() string {
	for _, s := range []*string{e.LongMsg, e.Message, e.ShortMsg} {
		if s != nil && strings.TrimSpace(*s) != "" {
			return *s
		}
	}
	if e.Type != nil && *e.Type != "" {
		return string(*e.Type)
	}
	if e.Code != nil {
		return fmt.Sprintf("semgrep error (code %d)", *e.Code)
	}
	return "semgrep error"
}

// Fatal reports whether the error prevented the run from producing results.
func (e *Error) Fatal() bool {
	return e.Level == nil || strings.EqualFold(*e.Level, "error")
}

// Output is the top-level document written by `semgrep --json`.
type Output struct {
	Results []Result `json:"results"`
	Errors  []Error  `json:"errors"`
}

// ParseOutput decodes and validates a `semgrep --json` document.
func ParseOutput(b []byte) (*Output, error) {
	var out Output
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrap(err, "could not parse semgrep output")
	}
	for i, r := range out.Results {
		if err := r.Validate(); err != nil {
			return nil, errors.Wrapf(err, "invalid semgrep result %d", i)
		}
	}
	return &out, nil
}
