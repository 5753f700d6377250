package canonical

import (
	"testing"

	"github.com/rs/zerolog"

	"strategy-builder/internal/rules"
)

func newTestCanonicalizer() *Canonicalizer {
	return NewCanonicalizer(zerolog.Nop())
}

func TestStopCanonicalization(t *testing.T) {
	c := newTestCanonicalizer()

	tests := []struct {
		text    string
		want    StopLoss
		matched bool
	}{
		{"50% of range", StopLoss{Type: PlacementPercentage, Value: 0.5}, true},
		{"middle of the range", StopLoss{Type: PlacementPercentage, Value: 0.5}, true},
		{"at the range low", StopLoss{Type: PlacementOppositeSide, RelativeTo: RelativeToRangeLow}, true},
		{"below the bottom of the range", StopLoss{Type: PlacementOppositeSide, RelativeTo: RelativeToRangeLow}, true},
		{"above the range high", StopLoss{Type: PlacementOppositeSide, RelativeTo: RelativeToRangeHigh}, true},
		{"40% of the range", StopLoss{Type: PlacementPercentage, Value: 0.4}, true},
		{"20 ticks below entry", StopLoss{Type: PlacementFixedDistance, Value: 20, Unit: UnitTicks, RelativeTo: RelativeToEntry}, true},
		{"20 ticks", StopLoss{Type: PlacementFixedDistance, Value: 20, Unit: UnitTicks, RelativeTo: RelativeToEntry}, true},
		{"5 points", StopLoss{Type: PlacementFixedDistance, Value: 5, Unit: UnitPoints, RelativeTo: RelativeToEntry}, true},
		{"2x ATR", StopLoss{Type: PlacementATRMultiple, Value: 2}, true},
		{"1.5 ATR", StopLoss{Type: PlacementATRMultiple, Value: 1.5}, true},
		{"below swing low", StopLoss{Type: PlacementStructure, RelativeTo: RelativeToStructure}, true},
		{"under support", StopLoss{Type: PlacementStructure, RelativeTo: RelativeToStructure}, true},
		{"$150", StopLoss{Type: PlacementFixedDistance, Value: 150, Unit: UnitDollars, RelativeTo: RelativeToEntry}, true},
		{"mental, I'll decide", StopLoss{Type: PlacementStructure, Value: 0}, false},
	}

	for _, tt := range tests {
		got, matched := c.Stop(tt.text)
		if matched != tt.matched {
			t.Errorf("%q: matched = %v, expected %v", tt.text, matched, tt.matched)
		}
		if *got != tt.want {
			t.Errorf("%q: got %+v, expected %+v", tt.text, *got, tt.want)
		}
	}
}

// TestStopFirstRowWins pins the tie-break: text containing both a
// percentage phrase and a structure phrase resolves to the earlier row
func TestStopFirstRowWins(t *testing.T) {
	c := newTestCanonicalizer()

	got, matched := c.Stop("50% of the range or the swing low, whichever is closer")
	if !matched {
		t.Fatal("Expected a match")
	}
	if got.Type != PlacementPercentage || got.Value != 0.5 {
		t.Errorf("Expected the percentage row to win, got %+v", *got)
	}
}

func TestTargetCanonicalization(t *testing.T) {
	c := newTestCanonicalizer()

	tests := []struct {
		text    string
		want    TakeProfit
		matched bool
	}{
		{"1:3", TakeProfit{Method: TargetRMultiple, Value: 3}, true},
		{"2R", TakeProfit{Method: TargetRMultiple, Value: 2}, true},
		{"2.5 R", TakeProfit{Method: TargetRMultiple, Value: 2.5}, true},
		{"1.5x the range", TakeProfit{Method: TargetExtension, Value: 1.5}, true},
		{"twice the range", TakeProfit{Method: TargetExtension, Value: 2}, true},
		{"50% extension", TakeProfit{Method: TargetExtension, Value: 0.5}, true},
		{"40 ticks", TakeProfit{Method: TargetFixedDistance, Value: 40, Unit: UnitTicks, RelativeTo: RelativeToEntry}, true},
		{"10 points", TakeProfit{Method: TargetFixedDistance, Value: 10, Unit: UnitPoints, RelativeTo: RelativeToEntry}, true},
		{"$500", TakeProfit{Method: TargetFixedDistance, Value: 500, Unit: UnitDollars, RelativeTo: RelativeToEntry}, true},
		{"whatever the market gives", TakeProfit{Method: TargetRMultiple, Value: 2}, false},
	}

	for _, tt := range tests {
		got, matched := c.Target(tt.text)
		if matched != tt.matched {
			t.Errorf("%q: matched = %v, expected %v", tt.text, matched, tt.matched)
		}
		if *got != tt.want {
			t.Errorf("%q: got %+v, expected %+v", tt.text, *got, tt.want)
		}
	}
}

func TestBuildFromRules(t *testing.T) {
	c := newTestCanonicalizer()

	rs := []rules.Rule{
		{Category: rules.CategorySetup, Label: "Pattern", Value: "pullback to the 20 EMA"},
		{Category: rules.CategorySetup, Label: "Instrument", Value: "NQ"},
		{Category: rules.CategoryEntry, Label: "Entry Trigger", Value: "pullback to the 20 EMA"},
		{Category: rules.CategoryExit, Label: "Stop Loss", Value: "below swing low"},
		{Category: rules.CategoryExit, Label: "Profit Target", Value: "2R"},
		{Category: rules.CategoryRisk, Label: "Risk Per Trade", Value: "1%"},
		{Category: rules.CategoryTimeframe, Label: "Session", Value: "New York session"},
	}

	s, unresolved := c.Build(rs)

	if len(unresolved) != 0 {
		t.Fatalf("Expected nothing unresolved, got %v", unresolved)
	}
	if s.Pattern != "ema_pullback" {
		t.Errorf("Expected ema_pullback token, got %q", s.Pattern)
	}
	if s.Instrument == nil || s.Instrument.Symbol != "NQ" || s.Instrument.TickSize != 0.25 {
		t.Errorf("Expected NQ instrument with tick size 0.25, got %+v", s.Instrument)
	}
	if s.Exit.StopLoss == nil || s.Exit.StopLoss.Type != PlacementStructure {
		t.Errorf("Expected structure stop, got %+v", s.Exit.StopLoss)
	}
	if s.Exit.TakeProfit == nil || s.Exit.TakeProfit.Method != TargetRMultiple || s.Exit.TakeProfit.Value != 2 {
		t.Errorf("Expected 2R target, got %+v", s.Exit.TakeProfit)
	}
	if s.Risk.RiskPercent != 1 {
		t.Errorf("Expected 1%% risk, got %v", s.Risk.RiskPercent)
	}

	if err := Validate(s); err != nil {
		t.Errorf("Expected valid strategy, got %v", err)
	}
}

// TestBuildMentalStopUnresolved covers the "stop is mental" scenario: the
// stated stop has no interpretable placement and must be flagged
func TestBuildMentalStopUnresolved(t *testing.T) {
	c := newTestCanonicalizer()

	rs := []rules.Rule{
		{Category: rules.CategorySetup, Label: "Instrument", Value: "ES"},
		{Category: rules.CategoryExit, Label: "Stop Loss", Value: "mental, I'll decide"},
	}

	_, unresolved := c.Build(rs)

	if len(unresolved) != 1 {
		t.Fatalf("Expected one unresolved value, got %v", unresolved)
	}
}

func TestValidateMissingCriticals(t *testing.T) {
	err := Validate(&Strategy{})
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if len(verr.Issues) != 2 {
		t.Errorf("Expected instrument and stop loss issues, got %v", verr.Issues)
	}
}

func TestValidateBounds(t *testing.T) {
	inst, _ := LookupInstrument("ES")

	tests := []struct {
		name string
		s    Strategy
		ok   bool
	}{
		{
			"valid fixed stop",
			Strategy{Instrument: &inst, Exit: Exit{StopLoss: &StopLoss{Type: PlacementFixedDistance, Value: 20, Unit: UnitTicks}}},
			true,
		},
		{
			"zero-distance stop",
			Strategy{Instrument: &inst, Exit: Exit{StopLoss: &StopLoss{Type: PlacementFixedDistance, Value: 0, Unit: UnitTicks}}},
			false,
		},
		{
			"percentage out of range",
			Strategy{Instrument: &inst, Exit: Exit{StopLoss: &StopLoss{Type: PlacementPercentage, Value: 1.5}}},
			false,
		},
		{
			"risk percent too high",
			Strategy{
				Instrument: &inst,
				Exit:       Exit{StopLoss: &StopLoss{Type: PlacementStructure}},
				Risk:       Risk{RiskPercent: 50},
			},
			false,
		},
		{
			"negative R multiple",
			Strategy{
				Instrument: &inst,
				Exit: Exit{
					StopLoss:   &StopLoss{Type: PlacementStructure},
					TakeProfit: &TakeProfit{Method: TargetRMultiple, Value: -1},
				},
			},
			false,
		},
	}

	for _, tt := range tests {
		err := Validate(&tt.s)
		if tt.ok && err != nil {
			t.Errorf("%s: expected valid, got %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected validation failure", tt.name)
		}
	}
}

func TestLookupInstrument(t *testing.T) {
	if inst, ok := LookupInstrument("es"); !ok || inst.Symbol != "ES" {
		t.Errorf("Expected case-insensitive lookup of ES, got %+v ok=%v", inst, ok)
	}
	if _, ok := LookupInstrument("AAPL"); ok {
		t.Error("Equities are not in the futures catalog")
	}
}
