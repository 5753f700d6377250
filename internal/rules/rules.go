// Package rules holds the accumulated strategy facts for one conversation
// and the phase tracker that decides what the conversation still needs.
package rules

import "strings"

// Category classifies what part of a strategy a rule describes
type Category string

const (
	CategorySetup     Category = "setup"
	CategoryEntry     Category = "entry"
	CategoryExit      Category = "exit"
	CategoryRisk      Category = "risk"
	CategoryTimeframe Category = "timeframe"
	CategoryFilters   Category = "filters"
)

// Source records who stated a rule
type Source string

const (
	SourceUser      Source = "user"
	SourceAssistant Source = "assistant"
	SourceDefault   Source = "default"
)

// Rule is a single extracted strategy fact.
// Identity is (Category, lower(Label)); a later rule with the same
// identity replaces the earlier one.
type Rule struct {
	Category    Category `json:"category"`
	Label       string   `json:"label"`
	Value       string   `json:"value"`
	IsDefaulted bool     `json:"is_defaulted"`
	Source      Source   `json:"source"`
}

// Key returns the identity key used for replacement during merge.
func (r Rule) Key() string {
	return string(r.Category) + "|" + strings.ToLower(r.Label)
}

// Merge combines incoming rules into an existing set. For each incoming
// rule, any existing rule with the same (category, label) key is removed
// and the incoming rule appended. Last write wins; nothing is dropped or
// duplicated. Both inputs are left untouched.
func Merge(existing, incoming []Rule) []Rule {
	merged := make([]Rule, 0, len(existing)+len(incoming))
	merged = append(merged, existing...)

	for _, in := range incoming {
		kept := merged[:0:0]
		for _, r := range merged {
			if r.Key() != in.Key() {
				kept = append(kept, r)
			}
		}
		merged = append(kept, in)
	}

	return merged
}

// Find returns the first rule matching the predicate.
func Find(rs []Rule, match func(Rule) bool) (Rule, bool) {
	for _, r := range rs {
		if match(r) {
			return r, true
		}
	}
	return Rule{}, false
}

// ByCategory returns all rules in the given category, in accumulation order.
func ByCategory(rs []Rule, cat Category) []Rule {
	var out []Rule
	for _, r := range rs {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}
