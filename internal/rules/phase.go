package rules

import "strings"

// Phase is the logical stage of a strategy-building conversation
type Phase string

const (
	PhaseInitial          Phase = "initial"
	PhaseEntryDefinition  Phase = "entry_definition"
	PhaseStopDefinition   Phase = "stop_definition"
	PhaseTargetDefinition Phase = "target_definition"
	PhaseSizingDefinition Phase = "sizing_definition"
	PhaseComplete         Phase = "complete"
)

// TrackPhase derives the conversation phase from the accumulated rule set.
// It is a pure function: the same rules always yield the same phase. The
// checks run in strict priority order (entry, stop, target, sizing) and
// the phase of the first missing requirement is returned.
func TrackPhase(rs []Rule) Phase {
	if len(rs) == 0 {
		return PhaseInitial
	}
	if !hasEntry(rs) {
		return PhaseEntryDefinition
	}
	if !hasStop(rs) {
		return PhaseStopDefinition
	}
	if !hasTarget(rs) {
		return PhaseTargetDefinition
	}
	if !hasSizing(rs) {
		return PhaseSizingDefinition
	}
	return PhaseComplete
}

func hasEntry(rs []Rule) bool {
	_, ok := Find(rs, func(r Rule) bool { return r.Category == CategoryEntry })
	return ok
}

// A stop rule is any rule whose label mentions "stop" but not "time",
// so "Time Stop" filters do not satisfy the stop-loss requirement.
func hasStop(rs []Rule) bool {
	_, ok := Find(rs, func(r Rule) bool {
		label := strings.ToLower(r.Label)
		return strings.Contains(label, "stop") && !strings.Contains(label, "time")
	})
	return ok
}

func hasTarget(rs []Rule) bool {
	_, ok := Find(rs, func(r Rule) bool {
		label := strings.ToLower(r.Label)
		return strings.Contains(label, "target") || strings.Contains(label, "profit")
	})
	return ok
}

// Sizing is satisfied by an explicit position/size rule, or by a risk
// rule expressed as a percentage (e.g. "1% per trade").
func hasSizing(rs []Rule) bool {
	_, ok := Find(rs, func(r Rule) bool {
		label := strings.ToLower(r.Label)
		if strings.Contains(label, "position") || strings.Contains(label, "size") {
			return true
		}
		return r.Category == CategoryRisk && strings.Contains(r.Value, "%")
	})
	return ok
}
