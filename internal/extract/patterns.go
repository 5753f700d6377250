package extract

import (
	"regexp"
	"strings"

	"strategy-builder/internal/rules"
)

// Supported setup pattern tokens
const (
	PatternORB               = "opening_range_breakout"
	PatternEMAPullback       = "ema_pullback"
	PatternVWAPBounce        = "vwap_bounce"
	PatternFlagBreakout      = "flag_breakout"
	PatternSupportResistance = "support_resistance"
	PatternBreakout          = "breakout"
)

// tableEntry is one row of the ordered extraction table. Rows are tried
// top to bottom and the first row that fills a given (category, label)
// wins; later rows targeting the same rule are skipped. This ordering is
// the tie-break policy, deliberately, so it stays auditable in one place.
type tableEntry struct {
	re       *regexp.Regexp
	category rules.Category
	label    string
	// value renders the rule value from the submatch; nil keeps the whole match
	value func(m []string) string
	// fill writes the extracted text into its component slot, if any
	fill func(c *Components, v string)
}

func literal(s string) func([]string) string {
	return func([]string) string { return s }
}

func group(i int) func([]string) string {
	return func(m []string) string { return strings.TrimSpace(m[i]) }
}

var extractionTable = []tableEntry{
	// Setup patterns. Specific named setups come before the generic
	// "breakout" catch-all.
	{
		re:       regexp.MustCompile(`(?i)\bopening\s+range\s+break(?:out)?\b|\bORB\b`),
		category: rules.CategorySetup, label: "Pattern",
		value: literal("opening range breakout"),
		fill:  func(c *Components, _ string) { c.Pattern = strPtr(PatternORB) },
	},
	{
		re:       regexp.MustCompile(`(?i)\bpullbacks?\s+to\s+the\s+(\d+)\s*EMA\b|\b(\d+)\s*EMA\s+pullbacks?\b`),
		category: rules.CategorySetup, label: "Pattern",
		value: func(m []string) string {
			period := m[1]
			if period == "" {
				period = m[2]
			}
			return "pullback to the " + period + " EMA"
		},
		fill: func(c *Components, _ string) { c.Pattern = strPtr(PatternEMAPullback) },
	},
	{
		re:       regexp.MustCompile(`(?i)\bVWAP\s+(?:bounce|reclaim|fade)\b`),
		category: rules.CategorySetup, label: "Pattern",
		value: literal("VWAP bounce"),
		fill:  func(c *Components, _ string) { c.Pattern = strPtr(PatternVWAPBounce) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:bull|bear)?\s*flag\s+break(?:out)?\b`),
		category: rules.CategorySetup, label: "Pattern",
		value: literal("flag breakout"),
		fill:  func(c *Components, _ string) { c.Pattern = strPtr(PatternFlagBreakout) },
	},
	{
		re:       regexp.MustCompile(`(?i)\bsupport\s+(?:and|&|/)\s*resistance\b`),
		category: rules.CategorySetup, label: "Pattern",
		value: literal("support and resistance"),
		fill:  func(c *Components, _ string) { c.Pattern = strPtr(PatternSupportResistance) },
	},
	{
		re:       regexp.MustCompile(`(?i)\bbreakouts?\b`),
		category: rules.CategorySetup, label: "Pattern",
		value: literal("breakout"),
		fill:  func(c *Components, _ string) { c.Pattern = strPtr(PatternBreakout) },
	},

	// Instrument symbols. Case-sensitive so ordinary words never match.
	{
		re:       regexp.MustCompile(`\b(ES|MES|NQ|MNQ|CL|MCL|GC|MGC|YM|MYM|RTY|M2K|SI|ZB)\b`),
		category: rules.CategorySetup, label: "Instrument",
		value: group(1),
		fill:  func(c *Components, v string) { c.Instrument = strPtr(v) },
	},

	// Direction
	{
		re:       regexp.MustCompile(`(?i)\b(?:long\s+and\s+short|both\s+directions?|both\s+ways)\b`),
		category: rules.CategorySetup, label: "Direction",
		value: literal("both"),
		fill:  func(c *Components, _ string) { c.Direction = strPtr("both") },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:long\s+only|longs?\s+only|go\s+long|buy\s+the\s+break)\b`),
		category: rules.CategorySetup, label: "Direction",
		value: literal("long"),
		fill:  func(c *Components, _ string) { c.Direction = strPtr("long") },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:short\s+only|shorts?\s+only|go\s+short|sell\s+the\s+break)\b`),
		category: rules.CategorySetup, label: "Direction",
		value: literal("short"),
		fill:  func(c *Components, _ string) { c.Direction = strPtr("short") },
	},

	// Entry triggers. The captured phrase is kept verbatim as the rule
	// value; canonicalization happens later.
	{
		re:       regexp.MustCompile(`(?i)\b(break(?:s|out)?\s+(?:above|below|of)\s+[^,.;]+)`),
		category: rules.CategoryEntry, label: "Entry Trigger",
		value: group(1),
		fill:  func(c *Components, v string) { c.EntryTrigger = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(pullbacks?\s+to\s+[^,.;]+)`),
		category: rules.CategoryEntry, label: "Entry Trigger",
		value: group(1),
		fill:  func(c *Components, v string) { c.EntryTrigger = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(bounces?\s+(?:off|from|at)\s+[^,.;]+)`),
		category: rules.CategoryEntry, label: "Entry Trigger",
		value: group(1),
		fill:  func(c *Components, v string) { c.EntryTrigger = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(cross(?:es)?\s+(?:above|below)\s+[^,.;]+)`),
		category: rules.CategoryEntry, label: "Entry Trigger",
		value: group(1),
		fill:  func(c *Components, v string) { c.EntryTrigger = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(retests?\s+of\s+[^,.;]+)`),
		category: rules.CategoryEntry, label: "Entry Trigger",
		value: group(1),
		fill:  func(c *Components, v string) { c.EntryTrigger = strPtr(v) },
	},

	// Stop loss phrasing. The leading "stop ..." form is listed first so
	// an explicit stop statement always beats the bare-number forms.
	{
		re:       regexp.MustCompile(`(?i)\bstop(?:\s*-?\s*loss)?\s+(?:is\s+|at\s+|goes\s+|placed\s+)?([^,.;]+)`),
		category: rules.CategoryExit, label: "Stop Loss",
		value: group(1),
		fill:  func(c *Components, v string) { c.StopLoss = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s*ticks?\s+(?:below|above|from)\s+[^,.;]+)`),
		category: rules.CategoryExit, label: "Stop Loss",
		value: group(1),
		fill:  func(c *Components, v string) { c.StopLoss = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\brisk(?:ing)?\s+(\d+(?:\.\d+)?\s*(?:ticks?|points?))\b`),
		category: rules.CategoryExit, label: "Stop Loss",
		value: group(1),
		fill:  func(c *Components, v string) { c.StopLoss = strPtr(v) },
	},

	// Profit target phrasing
	{
		re:       regexp.MustCompile(`(?i)\b(?:profit\s+)?target\s+(?:is\s+|at\s+|of\s+)?([^,.;]+)`),
		category: rules.CategoryExit, label: "Profit Target",
		value: group(1),
		fill:  func(c *Components, v string) { c.ProfitTarget = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\btake\s+profit\s+(?:is\s+|at\s+|of\s+)?([^,.;]+)`),
		category: rules.CategoryExit, label: "Profit Target",
		value: group(1),
		fill:  func(c *Components, v string) { c.ProfitTarget = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*R\b`),
		category: rules.CategoryExit, label: "Profit Target",
		value: func(m []string) string { return m[1] + "R" },
		fill:  func(c *Components, v string) { c.ProfitTarget = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(1\s*:\s*\d+(?:\.\d+)?)\b`),
		category: rules.CategoryExit, label: "Profit Target",
		value: group(1),
		fill:  func(c *Components, v string) { c.ProfitTarget = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b((?:twice|double|[23]x)\s+the\s+range)\b`),
		category: rules.CategoryExit, label: "Profit Target",
		value: group(1),
		fill:  func(c *Components, v string) { c.ProfitTarget = strPtr(v) },
	},

	// Position sizing and risk
	{
		re:       regexp.MustCompile(`(?i)\b(\d+)\s+(?:contracts?|lots?)\b`),
		category: rules.CategoryRisk, label: "Position Size",
		value: func(m []string) string { return m[1] + " contracts" },
		fill:  func(c *Components, v string) { c.PositionSizing = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:risk(?:ing)?\s+)?(\d+(?:\.\d+)?)\s*%\s*(?:risk|per\s+trade|of\s+(?:my\s+)?(?:account|capital))\b`),
		category: rules.CategoryRisk, label: "Risk Per Trade",
		value: func(m []string) string { return m[1] + "%" },
		fill:  func(c *Components, v string) { c.PositionSizing = strPtr(v + " risk per trade") },
	},
	{
		re:       regexp.MustCompile(`(?i)\brisk(?:ing)?\s+\$\s*(\d+(?:\.\d+)?)\b`),
		category: rules.CategoryRisk, label: "Risk Per Trade",
		value: func(m []string) string { return "$" + m[1] },
		fill:  func(c *Components, v string) { c.PositionSizing = strPtr(v + " risk per trade") },
	},

	// Session and timeframe
	{
		re:       regexp.MustCompile(`(?i)\b((?:new\s+york|london|asia(?:n)?|overnight|globex)\s+session)\b`),
		category: rules.CategoryTimeframe, label: "Session",
		value: group(1),
		fill:  func(c *Components, v string) { c.Session = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(RTH|regular\s+trading\s+hours)\b`),
		category: rules.CategoryTimeframe, label: "Session",
		value: literal("regular trading hours"),
		fill:  func(c *Components, v string) { c.Session = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:first|opening)\s+(\d+)\s+minutes?\b`),
		category: rules.CategoryTimeframe, label: "Session",
		value: func(m []string) string { return "first " + m[1] + " minutes" },
		fill:  func(c *Components, v string) { c.Session = strPtr(v) },
	},
	{
		re:       regexp.MustCompile(`(?i)\b(\d+)\s*(?:min(?:ute)?|m)\s+chart\b`),
		category: rules.CategoryTimeframe, label: "Chart Timeframe",
		value: func(m []string) string { return m[1] + " minute" },
	},

	// Filters
	{
		re:       regexp.MustCompile(`(?i)\b(only\s+trade\s+[^,.;]+)`),
		category: rules.CategoryFilters, label: "Trade Filter",
		value: group(1),
	},
	{
		re:       regexp.MustCompile(`(?i)\b((?:avoid|skip|no\s+trades?\s+(?:during|on|around))\s+[^,.;]+)`),
		category: rules.CategoryFilters, label: "Avoid Filter",
		value: group(1),
	},
	{
		re:       regexp.MustCompile(`(?i)\b(above\s+average\s+volume|volume\s+confirmation)\b`),
		category: rules.CategoryFilters, label: "Volume Filter",
		value: group(1),
	},
}

// FromMessage runs the ordered extraction table over a single message and
// returns the extracted rules plus the component slots they fill. It is
// stateless: callers merge the rules into their accumulated set themselves,
// lost cross-turn context cannot be recovered here.
func FromMessage(message string) ([]rules.Rule, Components) {
	var (
		extracted []rules.Rule
		comps     Components
		taken     = make(map[string]bool)
	)

	for _, entry := range extractionTable {
		key := string(entry.category) + "|" + strings.ToLower(entry.label)
		if taken[key] {
			continue
		}

		m := entry.re.FindStringSubmatch(message)
		if m == nil {
			continue
		}

		value := strings.TrimSpace(m[0])
		if entry.value != nil {
			value = entry.value(m)
		}
		if value == "" {
			continue
		}

		taken[key] = true
		extracted = append(extracted, rules.Rule{
			Category: entry.category,
			Label:    entry.label,
			Value:    value,
			Source:   rules.SourceUser,
		})
		if entry.fill != nil {
			entry.fill(&comps, value)
		}
	}

	return extracted, comps
}

// FromMessageResult is FromMessage plus completion bookkeeping, for callers
// that only need the extraction result shape.
func FromMessageResult(message string) ([]rules.Rule, Result) {
	rs, comps := FromMessage(message)
	return rs, Resolve(comps)
}
