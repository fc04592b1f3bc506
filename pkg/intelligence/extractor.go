// Package intelligence provides lexical memory extraction and importance scoring.
//
// Extraction turns free conversation text into candidate memory strings using
// a fixed, ordered set of patterns. Scoring maps a (content, context) pair to
// a bounded importance value. Both are total functions: they never fail,
// regardless of input.
package intelligence

import (
	"regexp"
	"strings"
)

// minCandidateLength is the trimmed length below which (inclusive) a capture
// is discarded as not meaningful.
const minCandidateLength = 5

// Rule is a single tagged extraction pattern.
//
// Rules are evaluated independently over the whole input, so they can be
// added and tested in isolation. A rule with multiple capture groups joins
// the captured fragments with a single space, in group order.
type Rule struct {
	// Name identifies the rule (e.g. "statement", "attribute").
	Name string

	// Pattern is the compiled case-insensitive expression.
	Pattern *regexp.Regexp
}

// defaultRules is the fixed extraction rule set, in evaluation order.
var defaultRules = []Rule{
	{Name: "statement", Pattern: regexp.MustCompile(`(?i)I (?:use|work with|like|prefer|have|am|do) (.+)`)},
	{Name: "attribute", Pattern: regexp.MustCompile(`(?i)My (.+) is (.+)`)},
	{Name: "negation", Pattern: regexp.MustCompile(`(?i)I don't (?:use|like|want|have) (.+)`)},
	{Name: "directive", Pattern: regexp.MustCompile(`(?i)Remember that (.+)`)},
	{Name: "marker", Pattern: regexp.MustCompile(`(?i)(?:FYI|Note|Important): (.+)`)},
}

// Extractor extracts candidate memory strings from free text.
//
// The rules are not mutually exclusive: one input can match several rules,
// and one rule can match several times. Results keep rule order first, then
// match order within a rule, duplicates included.
type Extractor struct {
	rules []Rule
}

// NewExtractor creates an extractor with the default rule set.
func NewExtractor() *Extractor {
	return &Extractor{rules: defaultRules}
}

// NewExtractorWithRules creates an extractor with a custom rule set.
// Rules are evaluated in the given order.
func NewExtractorWithRules(rules []Rule) *Extractor {
	return &Extractor{rules: rules}
}

// Extract returns the candidate memory strings found in text.
//
// Each capture is trimmed of surrounding whitespace; captures whose trimmed
// length is at most five characters are dropped. The returned slice is empty
// (never nil) when nothing matches.
func (e *Extractor) Extract(text string) []string {
	candidates := []string{}

	for _, rule := range e.rules {
		matches := rule.Pattern.FindAllStringSubmatch(text, -1)
		for _, match := range matches {
			candidate := strings.TrimSpace(strings.Join(match[1:], " "))
			if len(candidate) > minCandidateLength {
				candidates = append(candidates, candidate)
			}
		}
	}

	return candidates
}

// Rules returns the extractor's rule set in evaluation order.
func (e *Extractor) Rules() []Rule {
	return e.rules
}
