// Package defaults fills non-critical strategy gaps with pattern-appropriate
// values after all user-stated facts have been merged. Every filled field is
// recorded so consumers can tell user intent from system assumption.
package defaults

import (
	"strings"

	"strategy-builder/internal/extract"
	"strategy-builder/internal/rules"
)

// entryTriggers maps a confirmed pattern to its default entry description.
var entryTriggers = map[string]string{
	extract.PatternORB:               "break above the opening range high",
	extract.PatternEMAPullback:       "pullback to the 20 EMA with trend",
	extract.PatternVWAPBounce:        "bounce off VWAP with rejection candle",
	extract.PatternFlagBreakout:      "break of the flag in trend direction",
	extract.PatternSupportResistance: "rejection at the level",
	extract.PatternBreakout:          "break of the consolidation boundary",
}

// Apply fills non-critical gaps in the accumulated rule set and reports
// which fields were defaulted. Critical fields (stop loss, instrument) are
// never defaulted here; those go through the question flow instead.
func Apply(rs []rules.Rule, pattern string) ([]rules.Rule, []string) {
	var (
		filled  []rules.Rule
		applied []string
	)

	if !hasLabel(rs, "Entry Trigger") {
		if trigger, ok := entryTriggers[pattern]; ok {
			filled = append(filled, defaultRule(rules.CategoryEntry, "Entry Trigger", trigger))
			applied = append(applied, "entry_trigger")
		}
	}

	if !hasLabel(rs, "Profit Target") {
		filled = append(filled, defaultRule(rules.CategoryExit, "Profit Target", "2R"))
		applied = append(applied, "profit_target")
	}

	if !hasLabel(rs, "Session") {
		filled = append(filled, defaultRule(rules.CategoryTimeframe, "Session", "New York session"))
		applied = append(applied, "session")
	}

	if !hasLabel(rs, "Position Size") && !hasLabel(rs, "Risk Per Trade") {
		filled = append(filled, defaultRule(rules.CategoryRisk, "Position Size", "1 contract"))
		applied = append(applied, "position_sizing")
	}

	if !hasLabel(rs, "Direction") {
		filled = append(filled, defaultRule(rules.CategorySetup, "Direction", "long"))
		applied = append(applied, "direction")
	}

	return rules.Merge(rs, filled), applied
}

func defaultRule(cat rules.Category, label, value string) rules.Rule {
	return rules.Rule{
		Category:    cat,
		Label:       label,
		Value:       value,
		IsDefaulted: true,
		Source:      rules.SourceDefault,
	}
}

func hasLabel(rs []rules.Rule, label string) bool {
	_, ok := rules.Find(rs, func(r rules.Rule) bool {
		return strings.EqualFold(r.Label, label)
	})
	return ok
}
