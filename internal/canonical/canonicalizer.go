package canonical

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Canonicalizer maps raw textual stop/target values into typed placements.
// Each mapping runs an ordered phrase table top to bottom; the first row
// that matches wins. That ordering is the tie-break policy: text containing
// both "50%" and "swing low" resolves to whichever row is listed first.
// Keep the order stable, it is part of the contract.
type Canonicalizer struct {
	log zerolog.Logger
}

// NewCanonicalizer creates a canonicalizer logging through the given logger.
func NewCanonicalizer(log zerolog.Logger) *Canonicalizer {
	return &Canonicalizer{log: log.With().Str("component", "canonicalizer").Logger()}
}

type stopRow struct {
	re    *regexp.Regexp
	build func(m []string) *StopLoss
}

var stopTable = []stopRow{
	{
		re: regexp.MustCompile(`(?i)\b(?:middle|midpoint|half(?:way)?|50\s*%)\b`),
		build: func([]string) *StopLoss {
			return &StopLoss{Type: PlacementPercentage, Value: 0.5}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(?:bottom|range\s+low|opposite)\b`),
		build: func([]string) *StopLoss {
			return &StopLoss{Type: PlacementOppositeSide, RelativeTo: RelativeToRangeLow}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(?:top|range\s+high)\b`),
		build: func([]string) *StopLoss {
			return &StopLoss{Type: PlacementOppositeSide, RelativeTo: RelativeToRangeHigh}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*%\s+of\s+(?:the\s+)?range\b`),
		build: func(m []string) *StopLoss {
			return &StopLoss{Type: PlacementPercentage, Value: parseFloat(m[1]) / 100}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*ticks?(?:\s+(?:below|above|from))?\b`),
		build: func(m []string) *StopLoss {
			return &StopLoss{Type: PlacementFixedDistance, Value: parseFloat(m[1]), Unit: UnitTicks, RelativeTo: RelativeToEntry}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*points?\b`),
		build: func(m []string) *StopLoss {
			return &StopLoss{Type: PlacementFixedDistance, Value: parseFloat(m[1]), Unit: UnitPoints, RelativeTo: RelativeToEntry}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*x?\s*ATR\b`),
		build: func(m []string) *StopLoss {
			return &StopLoss{Type: PlacementATRMultiple, Value: parseFloat(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(?:swing|structure|support|resistance)\b`),
		build: func([]string) *StopLoss {
			return &StopLoss{Type: PlacementStructure, RelativeTo: RelativeToStructure}
		},
	},
	{
		re: regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)\b`),
		build: func(m []string) *StopLoss {
			return &StopLoss{Type: PlacementFixedDistance, Value: parseFloat(m[1]), Unit: UnitDollars, RelativeTo: RelativeToEntry}
		},
	},
}

// Stop canonicalizes a stop-loss statement. The second return reports
// whether any table row matched; on no match the conservative structure
// fallback is returned and a warning logged, callers decide whether that
// blocks completion.
func (c *Canonicalizer) Stop(text string) (*StopLoss, bool) {
	for _, row := range stopTable {
		if m := row.re.FindStringSubmatch(text); m != nil {
			return row.build(m), true
		}
	}
	c.log.Warn().Str("text", text).Msg("No stop placement matched, falling back to structure")
	return &StopLoss{Type: PlacementStructure, Value: 0}, false
}

type targetRow struct {
	re    *regexp.Regexp
	build func(m []string) *TakeProfit
}

var targetTable = []targetRow{
	{
		re: regexp.MustCompile(`(?i)\b1\s*:\s*(\d+(?:\.\d+)?)\b`),
		build: func(m []string) *TakeProfit {
			return &TakeProfit{Method: TargetRMultiple, Value: parseFloat(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*R\b`),
		build: func(m []string) *TakeProfit {
			return &TakeProfit{Method: TargetRMultiple, Value: parseFloat(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*x\s+(?:the\s+)?range\b`),
		build: func(m []string) *TakeProfit {
			return &TakeProfit{Method: TargetExtension, Value: parseFloat(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(?:twice|double)\s+(?:the\s+)?range\b`),
		build: func([]string) *TakeProfit {
			return &TakeProfit{Method: TargetExtension, Value: 2}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*%\s+extension\b`),
		build: func(m []string) *TakeProfit {
			return &TakeProfit{Method: TargetExtension, Value: parseFloat(m[1]) / 100}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*ticks?\b`),
		build: func(m []string) *TakeProfit {
			return &TakeProfit{Method: TargetFixedDistance, Value: parseFloat(m[1]), Unit: UnitTicks, RelativeTo: RelativeToEntry}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*points?\b`),
		build: func(m []string) *TakeProfit {
			return &TakeProfit{Method: TargetFixedDistance, Value: parseFloat(m[1]), Unit: UnitPoints, RelativeTo: RelativeToEntry}
		},
	},
	{
		re: regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)\b`),
		build: func(m []string) *TakeProfit {
			return &TakeProfit{Method: TargetFixedDistance, Value: parseFloat(m[1]), Unit: UnitDollars, RelativeTo: RelativeToEntry}
		},
	},
}

// Target canonicalizes a profit-target statement. Unmatched text falls back
// to the documented 2R default; that is a default, not an inference, and is
// not treated as a validation problem.
func (c *Canonicalizer) Target(text string) (*TakeProfit, bool) {
	for _, row := range targetTable {
		if m := row.re.FindStringSubmatch(text); m != nil {
			return row.build(m), true
		}
	}
	c.log.Debug().Str("text", text).Msg("No target method matched, defaulting to 2R")
	return &TakeProfit{Method: TargetRMultiple, Value: 2}, false
}

// Direction normalizes a stated direction to long/short/both.
func (c *Canonicalizer) Direction(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "both"):
		return "both"
	case strings.Contains(lower, "short") && strings.Contains(lower, "long"):
		return "both"
	case strings.Contains(lower, "short"):
		return "short"
	case strings.Contains(lower, "long"):
		return "long"
	default:
		return ""
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
