package questions

import (
	"testing"

	"strategy-builder/internal/extract"
)

// TestStopLossAskedBeforeInstrument pins the fixed priority order
func TestStopLossAskedBeforeInstrument(t *testing.T) {
	q := Next([]string{extract.FieldStopLoss, extract.FieldInstrument}, "")

	if q == nil {
		t.Fatal("Expected a question when criticals are missing")
	}
	if q.Field != extract.FieldStopLoss {
		t.Errorf("Stop loss should be asked first, got %s", q.Field)
	}
}

func TestInstrumentQuestionWhenOnlyInstrumentMissing(t *testing.T) {
	q := Next([]string{extract.FieldInstrument}, extract.PatternORB)

	if q == nil || q.Field != extract.FieldInstrument {
		t.Fatalf("Expected instrument question, got %+v", q)
	}
	if len(q.Options) == 0 {
		t.Error("Instrument question should offer symbol options")
	}
}

// TestNilWhenComplete verifies nil is the terminal completion signal
func TestNilWhenComplete(t *testing.T) {
	if q := Next(nil, extract.PatternORB); q != nil {
		t.Errorf("Expected nil when nothing missing, got %+v", q)
	}
}

func TestPatternSpecificStopOptions(t *testing.T) {
	orb := Next([]string{extract.FieldStopLoss}, extract.PatternORB)
	if orb.Options[0].Value != "below range low" {
		t.Errorf("ORB should lead with the range-low option, got %q", orb.Options[0].Value)
	}

	ema := Next([]string{extract.FieldStopLoss}, extract.PatternEMAPullback)
	if ema.Options[0].Value != "below swing low" {
		t.Errorf("EMA pullback should lead with the swing-low option, got %q", ema.Options[0].Value)
	}
}

func TestGenericFallbackOptions(t *testing.T) {
	q := Next([]string{extract.FieldStopLoss}, "some_unknown_pattern")

	if len(q.Options) == 0 {
		t.Fatal("Unknown pattern should still get generic options")
	}

	defaults := 0
	for _, opt := range q.Options {
		if opt.Default {
			defaults++
		}
	}
	if defaults != 1 {
		t.Errorf("Exactly one option should be flagged default, got %d", defaults)
	}
}

// TestEveryOptionSetHasOneDefault verifies each pattern table entry flags
// exactly one default option
func TestEveryOptionSetHasOneDefault(t *testing.T) {
	for pattern, options := range stopOptionSets {
		defaults := 0
		for _, opt := range options {
			if opt.Default {
				defaults++
			}
		}
		if defaults != 1 {
			t.Errorf("Pattern %s has %d default options, expected 1", pattern, defaults)
		}
	}
}
