// Package codeclimate defines the issue format Code Climate engines write to
// stdout.
//
// See: https://github.com/codeclimate/platform/blob/master/spec/analyzers/SPEC.md
package codeclimate

import (
	"errors"
	"fmt"
)

// Category indicates the nature of an issue.
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

// Categories lists every category in schema order.
var Categories = []Category{
	CategoryBugRisk,
	CategoryClarity,
	CategoryCompatibility,
	CategoryComplexity,
	CategoryDuplication,
	CategoryPerformance,
	CategorySecurity,
	CategoryStyle,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Severity describes the potential impact of an issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
	SeverityBlocker  Severity = "blocker"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityMinor, SeverityMajor, SeverityCritical, SeverityBlocker:
		return true
	}
	return false
}

// Type must always be "issue".
type Type string

const TypeIssue Type = "issue"

type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type Positions struct {
	Begin Position `json:"begin"`
	End   Position `json:"end"`
}

type Lines struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// Location is a range of a source file. Exactly one of Lines or Positions is
// set.
type Location struct {
	// Path is relative to the code directory.
	Path      string     `json:"path"`
	Lines     *Lines     `json:"lines,omitempty"`
	Positions *Positions `json:"positions,omitempty"`
}

func (l Location) Validate() error {
	if l.Path == "" {
		return errors.New("location path is required")
	}
	if (l.Lines == nil) == (l.Positions == nil) {
		return fmt.Errorf("location %s must set exactly one of lines or positions", l.Path)
	}
	return nil
}

// Content is a Markdown document with more information about the check.
type Content struct {
	Body string `json:"body"`
}

// Trace is an ordered or unordered list of source locations.
type Trace struct {
	Locations  []Location `json:"locations"`
	Stacktrace *bool      `json:"stacktrace,omitempty"`
}

// Issue is one reported problem.
type Issue struct {
	Type        Type       `json:"type"`
	CheckName   string     `json:"check_name"`
	Description string     `json:"description"`
	Categories  []Category `json:"categories"`
	Location    Location   `json:"location"`

	// Fingerprint identifies the issue across analyses.
	Fingerprint       *string    `json:"fingerprint,omitempty"`
	Content           *Content   `json:"content,omitempty"`
	OtherLocations    []Location `json:"other_locations,omitempty"`
	RemediationPoints *int       `json:"remediation_points,omitempty"`
	Severity          *Severity  `json:"severity,omitempty"`
	Trace             *Trace     `json:"trace,omitempty"`
}

// Validate checks the structural rules of the issue format.
func (i Issue) Validate() error {
	if i.Type != TypeIssue {
		return fmt.Errorf("type must be %q, got %q", TypeIssue, i.Type)
	}
	if i.CheckName == "" {
		return errors.New("check_name is required")
	}
	if len(i.Categories) == 0 {
		return errors.New("at least one category is required")
	}
	for _, c := range i.Categories {
		if !c.Valid() {
			return fmt.Errorf("unknown category %q", c)
		}
	}
	if i.Severity != nil && !i.Severity.Valid() {
		return fmt.Errorf("unknown severity %q", *i.Severity)
	}
	if err := i.Location.Validate(); err != nil {
		return err
	}
	for _, l := range i.OtherLocations {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("other_locations: %w", err)
		}
	}
	if i.Trace != nil {
		for _, l := range i.Trace.Locations {
			if err := l.Validate(); err != nil {
				return fmt.Errorf("trace: %w", err)
			}
		}
	}
	return nil
}
