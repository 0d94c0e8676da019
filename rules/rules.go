// Package rules checks patterns against traditional Kiganda composition
// rules. A failing rule is a warning; it never prevents editing.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mrdg/amadinda/tubs"
)

// Violation marks the cells that break a rule.
type Violation struct {
	Rule        string
	Step        int
	Cells       []tubs.Cell
	Message     string
	Suggestions []string
}

// Result is the outcome of a single rule.
type Result struct {
	Rule        string
	Passed      bool
	Explanation string
	Violations  []Violation
}

// Rule is a pure predicate over a pattern. Implementations must not modify
// the pattern.
type Rule interface {
	Name() string
	Check(p *tubs.Pattern) Result
}

type Report struct {
	Results []Result
}

func (r Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Violations returns the violations of the named rule, or of every rule when
// name is empty.
func (r Report) Violations(name string) []Violation {
	var out []Violation
	for _, res := range r.Results {
		if name == "" || res.Rule == name {
			out = append(out, res.Violations...)
		}
	}
	return out
}

// Flagged reports whether the cell is part of any violation.
func (r Report) Flagged(v tubs.Voice, step int) bool {
	for _, viol := range r.Violations("") {
		for _, c := range viol.Cells {
			if c.Voice == v && c.Step == step {
				return true
			}
		}
	}
	return false
}

type Validator struct {
	rules  []Rule
	logger *log.Logger
}

func NewValidator(logger *log.Logger, rules ...Rule) *Validator {
	return &Validator{rules: rules, logger: logger}
}

func (v *Validator) Rules() []Rule {
	return v.rules
}

// Check runs every rule against p. Patterns that break the grid invariants
// are not checked; the problem is logged and an empty report returned.
func (v *Validator) Check(p *tubs.Pattern) Report {
	if p == nil {
		return Report{}
	}
	if err := p.Validate(); err != nil {
		v.logger.Warn("skipping rule check", "err", err)
		return Report{}
	}
	report := Report{Results: make([]Result, 0, len(v.rules))}
	for _, rule := range v.rules {
		res := rule.Check(p)
		res.Rule = rule.Name()
		for i := range res.Violations {
			res.Violations[i].Rule = rule.Name()
		}
		report.Results = append(report.Results, res)
	}
	return report
}

const (
	RelaxedSet = "relaxed"
	StrictSet  = "strict"
	GridSet    = "grid"
)

var sets = map[string][]string{
	RelaxedSet: {"repeated-notes"},
	StrictSet:  {"repeated-notes", "kubik-sequences"},
	GridSet:    {"simultaneous-onset", "voice-density"},
}

func builtin(name string) (Rule, bool) {
	switch name {
	case "simultaneous-onset":
		return SimultaneousOnset{}, true
	case "voice-density":
		return VoiceDensity{}, true
	case "repeated-notes":
		return RepeatedNotes(), true
	case "kubik-sequences":
		return KubikSequences(), true
	}
	return nil, false
}

// Names lists the rule set and rule names accepted by Resolve.
func Names() []string {
	names := []string{"simultaneous-onset", "voice-density", "repeated-notes", "kubik-sequences"}
	for set := range sets {
		names = append(names, set)
	}
	sort.Strings(names)
	return names
}

// Resolve turns rule set and rule names into rules, dropping duplicates and
// keeping the order of first mention.
func Resolve(names ...string) ([]Rule, error) {
	var (
		rules []Rule
		seen  = make(map[string]bool)
	)
	add := func(name string) error {
		if seen[name] {
			return nil
		}
		rule, ok := builtin(name)
		if !ok {
			return fmt.Errorf("unknown rule: %s (have %s)", name, strings.Join(Names(), ", "))
		}
		seen[name] = true
		rules = append(rules, rule)
		return nil
	}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if members, ok := sets[name]; ok {
			for _, m := range members {
				if err := add(m); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := add(name); err != nil {
			return nil, err
		}
	}
	return rules, nil
}
