// Package extract turns natural-language strategy descriptions into rules
// and extracted components. It contains the stateless regex extractor; the
// LLM-backed extractor lives in internal/ai/llm and produces the same
// Components shape.
package extract

// Field names used in extraction results and critical-gap reporting
const (
	FieldInstrument     = "instrument"
	FieldPattern        = "pattern"
	FieldStopLoss       = "stop_loss"
	FieldDirection      = "direction"
	FieldProfitTarget   = "profit_target"
	FieldPositionSizing = "position_sizing"
	FieldSession        = "session"
	FieldEntryTrigger   = "entry_trigger"
)

// Components holds one nullable slot per supported strategy field.
// nil means the field was never stated anywhere in the conversation;
// extractors must not fill slots with inferred or default values, that
// belongs to the defaulting engine downstream.
type Components struct {
	Instrument     *string `json:"instrument"`
	Pattern        *string `json:"pattern"`
	StopLoss       *string `json:"stop_loss"`
	Direction      *string `json:"direction"`
	ProfitTarget   *string `json:"profit_target"`
	PositionSizing *string `json:"position_sizing"`
	Session        *string `json:"session"`
	EntryTrigger   *string `json:"entry_trigger"`
}

// MissingCritical returns the critical fields (stop loss, instrument) that
// are still unstated. Only these two block completion.
func (c Components) MissingCritical() []string {
	var missing []string
	if c.StopLoss == nil {
		missing = append(missing, FieldStopLoss)
	}
	if c.Instrument == nil {
		missing = append(missing, FieldInstrument)
	}
	return missing
}

// Result is the outcome of one extraction pass over a conversation.
type Result struct {
	Components      Components `json:"components"`
	MissingCritical []string   `json:"missing_critical"`
	IsComplete      bool       `json:"is_complete"`
}

// Resolve derives the completion state from a set of components.
func Resolve(c Components) Result {
	missing := c.MissingCritical()
	return Result{
		Components:      c,
		MissingCritical: missing,
		IsComplete:      len(missing) == 0,
	}
}

// FailClosed is the result returned when extraction could not run at all:
// nothing extracted, both critical fields missing. Callers receive this
// instead of an error so the question flow can take over.
func FailClosed() Result {
	return Result{
		MissingCritical: []string{FieldStopLoss, FieldInstrument},
		IsComplete:      false,
	}
}

func strPtr(s string) *string { return &s }
