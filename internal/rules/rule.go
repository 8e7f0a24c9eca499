// Package rules reads Semgrep rule files so the rules an engine config
// references can be listed and previewed.
package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"ccsemgrep/internal/codeclimate"
	"ccsemgrep/internal/engine"
	"ccsemgrep/internal/semgrep"

	"gopkg.in/yaml.v3"
)

// Rule is the subset of a Semgrep rule definition this tool reads.
type Rule struct {
	ID        string         `yaml:"id"`
	Message   string         `yaml:"message"`
	Severity  string         `yaml:"severity"`
	Languages []string       `yaml:"languages"`
	Metadata  map[string]any `yaml:"metadata"`

	// Source is the file the rule was loaded from.
	Source string `yaml:"-"`
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Parse decodes a Semgrep rule document. source names the document in errors.
func Parse(b []byte, source string) ([]Rule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", source, err)
	}
	for i := range f.Rules {
		f.Rules[i].Source = source
		if err := f.Rules[i].Validate(); err != nil {
			return nil, fmt.Errorf("rules %s: rule %d: %w", source, i+1, err)
		}
	}
	return f.Rules, nil
}

func LoadFile(path string) ([]Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(b, path)
}

func (r Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if _, err := r.nativeSeverity(); err != nil {
		return fmt.Errorf("%s: %w", r.ID, err)
	}
	if _, err := r.metadata(); err != nil {
		return fmt.Errorf("%s: %w", r.ID, err)
	}
	return nil
}

func (r Rule) nativeSeverity() (semgrep.Severity, error) {
	var sev semgrep.Severity
	raw, err := json.Marshal(strings.ToUpper(strings.TrimSpace(r.Severity)))
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(raw, &sev); err != nil {
		return "", err
	}
	return sev, nil
}

// metadata decodes the cc.* keys the same way they are decoded from Semgrep
// output, so a rule that loads here translates identically at run time.
func (r Rule) metadata() (semgrep.Metadata, error) {
	var md semgrep.Metadata
	if len(r.Metadata) == 0 {
		return md, nil
	}
	raw, err := json.Marshal(r.Metadata)
	if err != nil {
		return md, fmt.Errorf("metadata: %w", err)
	}
	if err := json.Unmarshal(raw, &md); err != nil {
		return md, fmt.Errorf("metadata: %w", err)
	}
	return md, nil
}

// Preview returns the issue a match of r would translate to, without a
// location.
func (r Rule) Preview() codeclimate.Issue {
	sev, _ := r.nativeSeverity()
	md, _ := r.metadata()
	issue := engine.TranslateResult(semgrep.Result{
		CheckID: r.ID,
		Extra: semgrep.Extra{
			Message:  r.Message,
			Severity: sev,
			Metadata: md,
		},
	}, "")
	issue.Location = codeclimate.Location{}
	return issue
}

func CheckName(r Rule) string {
	return engine.CheckName(r.ID)
}

func Categories(r Rule) []codeclimate.Category {
	return r.Preview().Categories
}

func Severity(r Rule) codeclimate.Severity {
	if sev := r.Preview().Severity; sev != nil {
		return *sev
	}
	return ""
}
