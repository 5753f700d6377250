// Package questions picks the single next clarifying question when critical
// strategy fields are still unknown.
package questions

import (
	"strategy-builder/internal/canonical"
	"strategy-builder/internal/extract"
)

// QuestionType tags what kind of answer a question expects
type QuestionType string

const (
	TypeStopPlacement QuestionType = "stop_placement"
	TypeInstrument    QuestionType = "instrument"
)

// Option is one multiple-choice answer. Exactly one option per question is
// flagged as the default.
type Option struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Default bool   `json:"default,omitempty"`
}

// Question is the critical-question payload sent back to the conversation.
type Question struct {
	Field    string       `json:"field"`
	Type     QuestionType `json:"question_type"`
	Prompt   string       `json:"question"`
	Options  []Option     `json:"options"`
}

// stopOptionSets maps a confirmed pattern to its pattern-specific stop
// placement choices. Patterns without an entry fall back to genericStops.
var stopOptionSets = map[string][]Option{
	extract.PatternORB: {
		{Value: "below range low", Label: "Below the range low", Default: true},
		{Value: "50% of the range", Label: "50% of the range"},
		{Value: "20 ticks", Label: "Fixed 20 ticks"},
	},
	extract.PatternEMAPullback: {
		{Value: "below swing low", Label: "Below the swing low", Default: true},
		{Value: "20 ticks", Label: "Fixed 20 ticks"},
		{Value: "1.5x ATR", Label: "1.5x ATR"},
	},
	extract.PatternVWAPBounce: {
		{Value: "below swing low", Label: "Below the swing low", Default: true},
		{Value: "10 ticks", Label: "Fixed 10 ticks"},
		{Value: "1x ATR", Label: "1x ATR"},
	},
	extract.PatternFlagBreakout: {
		{Value: "below the flag", Label: "Below the flag low", Default: true},
		{Value: "50% of the range", Label: "50% of the flag"},
		{Value: "2x ATR", Label: "2x ATR"},
	},
}

var genericStops = []Option{
	{Value: "below swing low", Label: "Below the most recent swing", Default: true},
	{Value: "20 ticks", Label: "Fixed 20 ticks"},
	{Value: "50% of the range", Label: "50% of the setup range"},
}

// Next selects the single next clarifying question for the given missing
// critical fields. Stop loss ranks above instrument because an unknown stop
// gates risk. Returns nil when nothing critical is missing, the terminal
// signal that the pipeline may proceed to canonicalization.
func Next(missingCritical []string, pattern string) *Question {
	missing := make(map[string]bool, len(missingCritical))
	for _, f := range missingCritical {
		missing[f] = true
	}

	if missing[extract.FieldStopLoss] {
		return stopQuestion(pattern)
	}
	if missing[extract.FieldInstrument] {
		return instrumentQuestion()
	}
	return nil
}

func stopQuestion(pattern string) *Question {
	options, ok := stopOptionSets[pattern]
	if !ok {
		options = genericStops
	}
	return &Question{
		Field:   extract.FieldStopLoss,
		Type:    TypeStopPlacement,
		Prompt:  "Where should your stop loss go?",
		Options: options,
	}
}

func instrumentQuestion() *Question {
	symbols := canonical.SupportedSymbols()
	options := make([]Option, 0, len(symbols))
	for i, sym := range symbols {
		inst, _ := canonical.LookupInstrument(sym)
		options = append(options, Option{
			Value:   sym,
			Label:   inst.Name + " (" + sym + ")",
			Default: i == 0,
		})
	}
	return &Question{
		Field:   extract.FieldInstrument,
		Type:    TypeInstrument,
		Prompt:  "Which instrument do you trade this on?",
		Options: options,
	}
}
