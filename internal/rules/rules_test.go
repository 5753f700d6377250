package rules

import "testing"

// TestMergeLastWriteWins verifies a later rule with the same key replaces
// the earlier one instead of duplicating it
func TestMergeLastWriteWins(t *testing.T) {
	existing := []Rule{
		{Category: CategoryExit, Label: "Stop Loss", Value: "10 ticks", Source: SourceUser},
	}
	incoming := []Rule{
		{Category: CategoryExit, Label: "Stop Loss", Value: "20 ticks", Source: SourceUser},
	}

	merged := Merge(existing, incoming)

	if len(merged) != 1 {
		t.Fatalf("Expected 1 rule after merge, got %d", len(merged))
	}
	if merged[0].Value != "20 ticks" {
		t.Errorf("Expected last write to win, got value %q", merged[0].Value)
	}
}

// TestMergeCaseInsensitiveLabels verifies identity keys compare labels
// case-insensitively
func TestMergeCaseInsensitiveLabels(t *testing.T) {
	existing := []Rule{
		{Category: CategoryExit, Label: "stop loss", Value: "10 ticks"},
	}
	incoming := []Rule{
		{Category: CategoryExit, Label: "Stop Loss", Value: "15 ticks"},
	}

	merged := Merge(existing, incoming)

	if len(merged) != 1 {
		t.Fatalf("Expected case-insensitive replacement, got %d rules", len(merged))
	}
	if merged[0].Value != "15 ticks" {
		t.Errorf("Expected replacement value, got %q", merged[0].Value)
	}
}

// TestMergeIdempotent verifies merge(merge(R, X), X) == merge(R, X)
func TestMergeIdempotent(t *testing.T) {
	existing := []Rule{
		{Category: CategorySetup, Label: "Pattern", Value: "opening range breakout"},
		{Category: CategoryExit, Label: "Stop Loss", Value: "20 ticks"},
	}
	incoming := []Rule{
		{Category: CategoryExit, Label: "Stop Loss", Value: "30 ticks"},
		{Category: CategoryExit, Label: "Profit Target", Value: "2R"},
	}

	once := Merge(existing, incoming)
	twice := Merge(once, incoming)

	if len(once) != len(twice) {
		t.Fatalf("Merge not idempotent: %d vs %d rules", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("Rule %d differs after re-merge: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

// TestMergeKeepsDifferentCategories verifies the same label in different
// categories does not collide
func TestMergeKeepsDifferentCategories(t *testing.T) {
	existing := []Rule{
		{Category: CategoryEntry, Label: "Trigger", Value: "break above range high"},
	}
	incoming := []Rule{
		{Category: CategoryFilters, Label: "Trigger", Value: "volume confirmation"},
	}

	merged := Merge(existing, incoming)

	if len(merged) != 2 {
		t.Errorf("Expected 2 rules across categories, got %d", len(merged))
	}
}

// TestMergePreservesInputs verifies merge does not mutate its arguments
func TestMergePreservesInputs(t *testing.T) {
	existing := []Rule{
		{Category: CategoryExit, Label: "Stop Loss", Value: "10 ticks"},
		{Category: CategoryExit, Label: "Profit Target", Value: "2R"},
	}
	incoming := []Rule{
		{Category: CategoryExit, Label: "Stop Loss", Value: "20 ticks"},
	}

	Merge(existing, incoming)

	if existing[0].Value != "10 ticks" || existing[1].Value != "2R" {
		t.Error("Merge mutated the existing rule set")
	}
}
