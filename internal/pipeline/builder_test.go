package pipeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"strategy-builder/internal/canonical"
	"strategy-builder/internal/extract"
	"strategy-builder/internal/rules"
)

// stubOracle returns a fixed extraction result, recording the history it
// was handed
type stubOracle struct {
	result     extract.Result
	gotHistory []extract.Message
	calls      int
}

func (s *stubOracle) Extract(_ context.Context, history []extract.Message) extract.Result {
	s.calls++
	s.gotHistory = history
	return s.result
}

func strPtr(s string) *string { return &s }

func newTestBuilder(oracle Oracle) *Builder {
	return New(oracle, zerolog.Nop())
}

// TestFirstMessageDetectsPattern covers turn 1 of the ES ORB scenario: the
// pattern extractor runs, no oracle call, and the stop question comes back
func TestFirstMessageDetectsPattern(t *testing.T) {
	oracle := &stubOracle{}
	b := newTestBuilder(oracle)

	resp := b.Build(context.Background(), BuildRequest{Message: "ES opening range breakout"})

	if resp.Type != ResponsePatternDetected {
		t.Fatalf("Expected pattern_detected, got %s", resp.Type)
	}
	if resp.Pattern != extract.PatternORB {
		t.Errorf("Expected ORB pattern, got %q", resp.Pattern)
	}
	if oracle.calls != 0 {
		t.Error("First message must not hit the oracle")
	}
	if resp.Question == nil || resp.Question.Field != extract.FieldStopLoss {
		t.Errorf("Expected a stop-loss question, got %+v", resp.Question)
	}
	if resp.ConversationID == "" {
		t.Error("Expected a conversation id to be assigned")
	}
}

// TestFollowUpPreservesEarlierTurns covers turn 2 of the ES ORB scenario:
// the oracle replays history and the instrument from turn 1 survives
func TestFollowUpPreservesEarlierTurns(t *testing.T) {
	oracle := &stubOracle{
		result: extract.Resolve(extract.Components{
			Instrument: strPtr("ES"),
			Pattern:    strPtr(extract.PatternORB),
			StopLoss:   strPtr("20 ticks"),
		}),
	}
	b := newTestBuilder(oracle)

	resp := b.Build(context.Background(), BuildRequest{
		Message:        "20 ticks",
		ConversationID: "conv-1",
		History: []extract.Message{
			{Role: extract.RoleUser, Content: "ES opening range breakout"},
			{Role: extract.RoleAssistant, Content: "Where should your stop loss go?"},
		},
	})

	if oracle.calls != 1 {
		t.Fatal("Follow-up must go through the oracle")
	}
	if len(oracle.gotHistory) != 3 {
		t.Errorf("Expected full history plus latest turn, got %d messages", len(oracle.gotHistory))
	}

	if resp.Type != ResponseStrategyComplete {
		t.Fatalf("Expected strategy_complete, got %s (issues %v)", resp.Type, resp.Issues)
	}
	if resp.Strategy.Instrument == nil || resp.Strategy.Instrument.Symbol != "ES" {
		t.Errorf("Instrument from turn 1 was lost: %+v", resp.Strategy.Instrument)
	}
	if resp.Strategy.Exit.StopLoss == nil || resp.Strategy.Exit.StopLoss.Type != canonical.PlacementFixedDistance {
		t.Errorf("Expected fixed-distance stop, got %+v", resp.Strategy.Exit.StopLoss)
	}
	if resp.Coordinates == nil {
		t.Error("Complete strategy should carry visual coordinates")
	}
}

// TestSingleMessageCompleteStrategy covers the one-shot NQ EMA pullback
// scenario through the fast path
func TestSingleMessageCompleteStrategy(t *testing.T) {
	b := newTestBuilder(&stubOracle{})

	resp := b.Build(context.Background(), BuildRequest{
		Message: "I trade pullbacks to the 20 EMA on NQ, stop below swing low, target 2R",
	})

	if resp.Type != ResponseStrategyComplete {
		t.Fatalf("Expected strategy_complete, got %s (issues %v)", resp.Type, resp.Issues)
	}
	if resp.Strategy.Exit.StopLoss.Type != canonical.PlacementStructure {
		t.Errorf("Expected structure stop, got %+v", resp.Strategy.Exit.StopLoss)
	}
	if resp.Strategy.Exit.TakeProfit.Method != canonical.TargetRMultiple || resp.Strategy.Exit.TakeProfit.Value != 2 {
		t.Errorf("Expected 2R target, got %+v", resp.Strategy.Exit.TakeProfit)
	}
	for _, f := range resp.DefaultsApplied {
		if f == "profit_target" {
			t.Error("Stated target must not be reported as defaulted")
		}
	}
}

// TestMentalStopIsFlagged covers the "stop is mental" scenario: no typed
// placement is derivable, so the turn ends in an itemized error, not a
// completed strategy
func TestMentalStopIsFlagged(t *testing.T) {
	b := newTestBuilder(&stubOracle{})

	resp := b.Build(context.Background(), BuildRequest{
		Message: "ES breakout, stop is mental, I'll decide",
	})

	if resp.Type != ResponseError {
		t.Fatalf("Expected error for uninterpretable stop, got %s", resp.Type)
	}
	if len(resp.Issues) == 0 {
		t.Error("Expected itemized issues")
	}
}

// TestOracleFailureForcesQuestionFlow verifies a failed-closed oracle
// result produces a critical question rather than an error
func TestOracleFailureForcesQuestionFlow(t *testing.T) {
	b := newTestBuilder(&stubOracle{result: extract.FailClosed()})

	resp := b.Build(context.Background(), BuildRequest{
		Message: "the stop goes under the low",
		History: []extract.Message{{Role: extract.RoleUser, Content: "ES ORB"}},
	})

	if resp.Type != ResponseCriticalQuestion {
		t.Fatalf("Expected critical_question on oracle failure, got %s", resp.Type)
	}
	if resp.Question == nil || resp.Question.Field != extract.FieldStopLoss {
		t.Errorf("Stop loss should be asked first, got %+v", resp.Question)
	}
}

// TestCriticalAnswerFillsMissingField verifies a critical-question answer
// is attributed to the field that was asked about
func TestCriticalAnswerFillsMissingField(t *testing.T) {
	b := newTestBuilder(&stubOracle{})

	partial := []rules.Rule{
		{Category: rules.CategorySetup, Label: "Pattern", Value: "opening range breakout", Source: rules.SourceUser},
		{Category: rules.CategorySetup, Label: "Instrument", Value: "ES", Source: rules.SourceUser},
	}

	resp := b.Build(context.Background(), BuildRequest{
		ConversationID: "conv-2",
		CriticalAnswer: "50% of the range",
		PartialRules:   partial,
	})

	if resp.Type != ResponseStrategyComplete {
		t.Fatalf("Expected strategy_complete, got %s (issues %v)", resp.Type, resp.Issues)
	}
	if resp.Strategy.Exit.StopLoss.Type != canonical.PlacementPercentage || resp.Strategy.Exit.StopLoss.Value != 0.5 {
		t.Errorf("Expected 50%% stop from critical answer, got %+v", resp.Strategy.Exit.StopLoss)
	}
}

// TestVagueMessageGetsClarifyingQuestion verifies the input-quality gate
// answers with a question instead of running extraction
func TestVagueMessageGetsClarifyingQuestion(t *testing.T) {
	b := newTestBuilder(&stubOracle{})

	resp := b.Build(context.Background(), BuildRequest{Message: "hi"})

	if resp.Type != ResponseCriticalQuestion {
		t.Fatalf("Expected clarifying question, got %s", resp.Type)
	}
	if resp.Message == "" {
		t.Error("Expected a clarifying prompt")
	}
}

// TestDefaultsAreTracked verifies filled fields are reported so consumers
// can tell user intent from system assumption
func TestDefaultsAreTracked(t *testing.T) {
	oracle := &stubOracle{
		result: extract.Resolve(extract.Components{
			Instrument: strPtr("NQ"),
			Pattern:    strPtr(extract.PatternEMAPullback),
			StopLoss:   strPtr("below swing low"),
		}),
	}
	b := newTestBuilder(oracle)

	resp := b.Build(context.Background(), BuildRequest{
		Message: "stop under the swing low",
		History: []extract.Message{{Role: extract.RoleUser, Content: "NQ EMA pullbacks"}},
	})

	if resp.Type != ResponseStrategyComplete {
		t.Fatalf("Expected strategy_complete, got %s (issues %v)", resp.Type, resp.Issues)
	}

	applied := make(map[string]bool)
	for _, f := range resp.DefaultsApplied {
		applied[f] = true
	}
	if !applied["profit_target"] {
		t.Error("Unstated target should be defaulted and tracked")
	}

	target, ok := rules.Find(resp.Rules, func(r rules.Rule) bool { return r.Label == "Profit Target" })
	if !ok || !target.IsDefaulted || target.Source != rules.SourceDefault {
		t.Errorf("Defaulted target rule should be marked, got %+v", target)
	}
}
