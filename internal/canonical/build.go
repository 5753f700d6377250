package canonical

import (
	"regexp"
	"strconv"
	"strings"

	"strategy-builder/internal/rules"
)

var (
	riskPercentRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	contractsRe    = regexp.MustCompile(`(\d+)\s+(?:contracts?|lots?)`)
	patternTokenRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// Build assembles a canonical strategy from an accumulated rule set.
// The returned unresolved list names stated values no phrase table could
// interpret; the caller folds those into the validation verdict so an
// un-canonicalizable stop (e.g. "mental, I'll decide") blocks completion
// instead of being silently accepted as the structure fallback.
func (c *Canonicalizer) Build(rs []rules.Rule) (*Strategy, []string) {
	var unresolved []string
	s := &Strategy{}

	if r, ok := findByLabel(rs, "Pattern"); ok {
		s.Pattern = PatternToken(r.Value)
	}

	if r, ok := findByLabel(rs, "Instrument"); ok {
		if inst, found := LookupInstrument(r.Value); found {
			s.Instrument = &inst
		} else {
			unresolved = append(unresolved, "unsupported instrument "+strconv.Quote(r.Value))
		}
	}

	if r, ok := findByLabel(rs, "Direction"); ok {
		s.Direction = c.Direction(r.Value)
	}

	if r, ok := findByLabel(rs, "Entry Trigger"); ok {
		s.Entry = r.Value
	}

	if r, ok := findByLabel(rs, "Stop Loss"); ok {
		stop, matched := c.Stop(r.Value)
		s.Exit.StopLoss = stop
		if !matched {
			unresolved = append(unresolved, "stop loss "+strconv.Quote(r.Value)+" has no interpretable placement")
		}
	}

	if r, ok := findByLabel(rs, "Profit Target"); ok {
		target, _ := c.Target(r.Value)
		s.Exit.TakeProfit = target
	}

	if r, ok := findByLabel(rs, "Position Size"); ok {
		s.Risk.PositionSizing = r.Value
		if m := contractsRe.FindStringSubmatch(r.Value); m != nil {
			n, _ := strconv.Atoi(m[1])
			s.Risk.MaxContracts = n
		}
	}
	if r, ok := findByLabel(rs, "Risk Per Trade"); ok {
		if s.Risk.PositionSizing == "" {
			s.Risk.PositionSizing = r.Value
		}
		if m := riskPercentRe.FindStringSubmatch(r.Value); m != nil {
			s.Risk.RiskPercent = parseFloat(m[1])
		}
	}

	if r, ok := findByLabel(rs, "Session"); ok {
		s.Time.Session = r.Value
	}

	return s, unresolved
}

func findByLabel(rs []rules.Rule, label string) (rules.Rule, bool) {
	return rules.Find(rs, func(r rules.Rule) bool {
		return strings.EqualFold(r.Label, label)
	})
}

// PatternToken normalizes a pattern phrase to its snake_case token,
// so "opening range breakout" and "Opening Range Breakout" agree. Phrases
// that embed parameters (EMA period, flag direction) collapse to the
// family token.
func PatternToken(phrase string) string {
	lower := strings.ToLower(phrase)
	switch {
	case strings.Contains(lower, "opening range"), strings.Contains(lower, "orb"):
		return "opening_range_breakout"
	case strings.Contains(lower, "ema") && strings.Contains(lower, "pullback"):
		return "ema_pullback"
	case strings.Contains(lower, "vwap"):
		return "vwap_bounce"
	case strings.Contains(lower, "flag"):
		return "flag_breakout"
	case strings.Contains(lower, "support") && strings.Contains(lower, "resistance"):
		return "support_resistance"
	}
	token := patternTokenRe.ReplaceAllString(strings.TrimSpace(lower), "_")
	return strings.Trim(token, "_")
}
