package extract

import (
	"testing"

	"strategy-builder/internal/rules"
)

func findRule(rs []rules.Rule, label string) (rules.Rule, bool) {
	return rules.Find(rs, func(r rules.Rule) bool { return r.Label == label })
}

// TestExtractOpeningRangeBreakout covers the first-message path of the
// ES opening range breakout scenario
func TestExtractOpeningRangeBreakout(t *testing.T) {
	rs, comps := FromMessage("I trade the ES opening range breakout")

	if comps.Pattern == nil || *comps.Pattern != PatternORB {
		t.Fatalf("Expected ORB pattern, got %v", comps.Pattern)
	}
	if comps.Instrument == nil || *comps.Instrument != "ES" {
		t.Fatalf("Expected ES instrument, got %v", comps.Instrument)
	}

	if _, ok := findRule(rs, "Pattern"); !ok {
		t.Error("Expected a Pattern rule")
	}
	if r, ok := findRule(rs, "Instrument"); !ok || r.Value != "ES" {
		t.Errorf("Expected Instrument rule with value ES, got %+v", r)
	}
}

// TestExtractFullSingleMessage covers the one-shot EMA pullback scenario:
// everything stated in a single message
func TestExtractFullSingleMessage(t *testing.T) {
	msg := "I trade pullbacks to the 20 EMA on NQ, stop below swing low, target 2R"
	rs, result := FromMessageResult(msg)

	if !result.IsComplete {
		t.Fatalf("Expected complete extraction, missing: %v", result.MissingCritical)
	}
	if result.Components.Pattern == nil || *result.Components.Pattern != PatternEMAPullback {
		t.Errorf("Expected EMA pullback pattern, got %v", result.Components.Pattern)
	}
	if result.Components.Instrument == nil || *result.Components.Instrument != "NQ" {
		t.Errorf("Expected NQ instrument, got %v", result.Components.Instrument)
	}
	if result.Components.StopLoss == nil || *result.Components.StopLoss != "below swing low" {
		t.Errorf("Expected literal stop phrasing, got %v", result.Components.StopLoss)
	}
	if result.Components.ProfitTarget == nil || *result.Components.ProfitTarget != "2R" {
		t.Errorf("Expected 2R target, got %v", result.Components.ProfitTarget)
	}

	if r, ok := findRule(rs, "Stop Loss"); !ok || r.Category != rules.CategoryExit {
		t.Errorf("Expected exit-category Stop Loss rule, got %+v", r)
	}
}

// TestExtractFirstListedPatternWins verifies the documented tie-break: the
// first table row that fills a rule wins, later rows are skipped
func TestExtractFirstListedPatternWins(t *testing.T) {
	// "opening range breakout" also contains the generic "breakout"
	_, comps := FromMessage("opening range breakout on CL")

	if comps.Pattern == nil || *comps.Pattern != PatternORB {
		t.Errorf("Expected the first-listed ORB row to win over generic breakout, got %v", comps.Pattern)
	}
}

func TestExtractStopPhrasings(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"stop is 50% of the range", "50% of the range"},
		{"my stop loss goes 20 ticks below entry", "20 ticks below entry"},
		{"stop at 2x ATR", "2x ATR"},
		{"stop below the swing low", "below the swing low"},
		{"risking 15 ticks on each trade", "15 ticks"},
	}

	for _, tt := range tests {
		_, comps := FromMessage(tt.msg)
		if comps.StopLoss == nil {
			t.Errorf("%q: expected a stop loss, got none", tt.msg)
			continue
		}
		if *comps.StopLoss != tt.want {
			t.Errorf("%q: expected stop %q, got %q", tt.msg, tt.want, *comps.StopLoss)
		}
	}
}

func TestExtractTargetPhrasings(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"target is 1:3", "1:3"},
		{"I aim for 2R", "2R"},
		{"take profit at twice the range", "twice the range"},
		{"profit target of 40 ticks", "40 ticks"},
	}

	for _, tt := range tests {
		_, comps := FromMessage(tt.msg)
		if comps.ProfitTarget == nil {
			t.Errorf("%q: expected a profit target, got none", tt.msg)
			continue
		}
		if *comps.ProfitTarget != tt.want {
			t.Errorf("%q: expected target %q, got %q", tt.msg, tt.want, *comps.ProfitTarget)
		}
	}
}

func TestExtractSessionAndSizing(t *testing.T) {
	_, comps := FromMessage("I trade the New York session with 2 contracts on MES")

	if comps.Session == nil || *comps.Session != "New York session" {
		t.Errorf("Expected New York session, got %v", comps.Session)
	}
	if comps.PositionSizing == nil || *comps.PositionSizing != "2 contracts" {
		t.Errorf("Expected 2 contracts sizing, got %v", comps.PositionSizing)
	}
	if comps.Instrument == nil || *comps.Instrument != "MES" {
		t.Errorf("Expected MES instrument, got %v", comps.Instrument)
	}
}

// TestExtractNoInference verifies the extractor leaves unstated fields nil
// instead of guessing
func TestExtractNoInference(t *testing.T) {
	_, comps := FromMessage("I trade breakouts")

	if comps.Instrument != nil {
		t.Errorf("Instrument should stay nil, got %v", *comps.Instrument)
	}
	if comps.StopLoss != nil {
		t.Errorf("Stop loss should stay nil, got %v", *comps.StopLoss)
	}
	if comps.Session != nil {
		t.Errorf("Session should stay nil, got %v", *comps.Session)
	}
}

// TestExtractLowercaseWordsNotInstruments verifies instrument symbols only
// match as uppercase tokens
func TestExtractLowercaseWordsNotInstruments(t *testing.T) {
	_, comps := FromMessage("es el mejor breakout")

	if comps.Instrument != nil {
		t.Errorf("Lowercase 'es' should not match the ES symbol, got %v", *comps.Instrument)
	}
}

func TestAcceptable(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"???", false},
		{"hi", false},
		{"20 ticks", true},
		{"ES opening range breakout", true},
	}

	for _, tt := range tests {
		if got := Acceptable(tt.msg); got != tt.want {
			t.Errorf("Acceptable(%q) = %v, expected %v", tt.msg, got, tt.want)
		}
	}
}

func TestMissingCritical(t *testing.T) {
	var c Components
	missing := c.MissingCritical()
	if len(missing) != 2 || missing[0] != FieldStopLoss || missing[1] != FieldInstrument {
		t.Errorf("Expected [stop_loss instrument], got %v", missing)
	}

	c.StopLoss = strPtr("20 ticks")
	c.Instrument = strPtr("ES")
	if got := Resolve(c); !got.IsComplete {
		t.Errorf("Expected complete once criticals are present, missing %v", got.MissingCritical)
	}
}
