package rules

import (
	"fmt"
	"path"
	"strings"
)

// Set is an ordered collection of rules with unique IDs.
type Set struct {
	rules []Rule
	byID  map[string]int
}

func NewSet(rules []Rule) (*Set, error) {
	s := &Set{byID: make(map[string]int, len(rules))}
	for _, r := range rules {
		if prev, exists := s.byID[r.ID]; exists {
			return nil, fmt.Errorf("rule %s defined in both %s and %s", r.ID, s.rules[prev].Source, r.Source)
		}
		s.byID[r.ID] = len(s.rules)
		s.rules = append(s.rules, r)
	}
	return s, nil
}

// List returns the rules in load order.
func (s *Set) List() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

func (s *Set) Lookup(id string) (Rule, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

// Resolve selects rules by a comma-separated list of IDs or glob patterns.
// An empty selector selects every rule. A term that matches nothing is an
// error.
func (s *Set) Resolve(selector string) ([]Rule, error) {
	if strings.TrimSpace(selector) == "" {
		return s.List(), nil
	}

	picked := make(map[int]bool)
	for _, term := range strings.Split(selector, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if i, ok := s.byID[term]; ok {
			picked[i] = true
			continue
		}
		matched := false
		for i, r := range s.rules {
			ok, err := path.Match(term, r.ID)
			if err != nil {
				return nil, fmt.Errorf("invalid rule pattern %q: %w", term, err)
			}
			if ok {
				picked[i] = true
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("rule not found: %s", term)
		}
	}

	var selected []Rule
	for i, r := range s.rules {
		if picked[i] {
			selected = append(selected, r)
		}
	}
	return selected, nil
}
