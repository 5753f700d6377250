// Package pipeline orchestrates the strategy-building conversation: it
// routes messages to an extraction strategy, accumulates rules, detects
// gaps, applies defaults, canonicalizes and derives visual coordinates.
package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"strategy-builder/internal/canonical"
	"strategy-builder/internal/defaults"
	"strategy-builder/internal/extract"
	"strategy-builder/internal/geometry"
	"strategy-builder/internal/questions"
	"strategy-builder/internal/rules"
)

// Oracle is the injected structured-extraction capability. Implementations
// must fail closed (all-null components) rather than return errors; tests
// use a deterministic stub.
type Oracle interface {
	Extract(ctx context.Context, history []extract.Message) extract.Result
}

// ResponseType tags the four build outcomes
type ResponseType string

const (
	ResponsePatternDetected  ResponseType = "pattern_detected"
	ResponseCriticalQuestion ResponseType = "critical_question"
	ResponseStrategyComplete ResponseType = "strategy_complete"
	ResponseError            ResponseType = "error"
)

// BuildRequest is one inbound conversation turn plus accumulated context.
type BuildRequest struct {
	Message             string            `json:"message"`
	ConversationID      string            `json:"conversation_id,omitempty"`
	CriticalAnswer      string            `json:"critical_answer,omitempty"`
	PatternConfirmation bool              `json:"pattern_confirmation,omitempty"`
	PartialRules        []rules.Rule      `json:"partial_strategy,omitempty"`
	History             []extract.Message `json:"conversation_history,omitempty"`
}

// BuildResponse is the tagged outcome of one turn.
type BuildResponse struct {
	Type            ResponseType          `json:"type"`
	ConversationID  string                `json:"conversation_id"`
	Phase           rules.Phase           `json:"phase"`
	Pattern         string                `json:"pattern,omitempty"`
	Message         string                `json:"message,omitempty"`
	Question        *questions.Question   `json:"question,omitempty"`
	Rules           []rules.Rule          `json:"rules,omitempty"`
	Strategy        *canonical.Strategy   `json:"strategy,omitempty"`
	Coordinates     *geometry.Coordinates `json:"coordinates,omitempty"`
	DefaultsApplied []string              `json:"defaults_applied,omitempty"`
	Issues          []string              `json:"issues,omitempty"`
}

// Builder runs the extraction pipeline for one conversation turn. It holds
// no per-conversation state; everything flows through the request.
type Builder struct {
	oracle Oracle
	canon  *canonical.Canonicalizer
	log    zerolog.Logger
}

// New creates a pipeline builder.
func New(oracle Oracle, log zerolog.Logger) *Builder {
	return &Builder{
		oracle: oracle,
		canon:  canonical.NewCanonicalizer(log),
		log:    log.With().Str("component", "pipeline").Logger(),
	}
}

// Build processes one turn. First messages go through the fast pattern
// extractor; follow-ups replay the whole history through the oracle so
// facts from earlier turns survive. The turn short-circuits with a
// clarifying or critical question whenever the strategy cannot complete.
func (b *Builder) Build(ctx context.Context, req BuildRequest) BuildResponse {
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	accumulated := req.PartialRules

	if req.CriticalAnswer != "" {
		accumulated = rules.Merge(accumulated, b.criticalAnswerRules(accumulated, req.CriticalAnswer))
	}

	if req.Message != "" && !extract.Acceptable(req.Message) && req.CriticalAnswer == "" {
		return BuildResponse{
			Type:           ResponseCriticalQuestion,
			ConversationID: conversationID,
			Phase:          rules.TrackPhase(accumulated),
			Message:        extract.ClarifyPrompt,
			Rules:          accumulated,
		}
	}

	extracted, components := b.runExtraction(ctx, req)
	accumulated = rules.Merge(accumulated, extracted)

	pattern := detectedPattern(components, accumulated)
	phase := rules.TrackPhase(accumulated)
	missing := missingCriticals(accumulated)

	if len(missing) > 0 {
		firstTurn := len(req.History) == 0
		if firstTurn && pattern != "" && !req.PatternConfirmation {
			return BuildResponse{
				Type:           ResponsePatternDetected,
				ConversationID: conversationID,
				Phase:          phase,
				Pattern:        pattern,
				Rules:          accumulated,
				Question:       questions.Next(missing, pattern),
			}
		}
		return BuildResponse{
			Type:           ResponseCriticalQuestion,
			ConversationID: conversationID,
			Phase:          phase,
			Pattern:        pattern,
			Rules:          accumulated,
			Question:       questions.Next(missing, pattern),
		}
	}

	filled, applied := defaults.Apply(accumulated, pattern)

	strategy, unresolved := b.canon.Build(filled)
	issues := unresolved
	if err := canonical.Validate(strategy); err != nil {
		if verr, ok := err.(*canonical.ValidationError); ok {
			issues = append(issues, verr.Issues...)
		} else {
			issues = append(issues, err.Error())
		}
	}
	if len(issues) > 0 {
		b.log.Warn().Strs("issues", issues).Str("conversation_id", conversationID).Msg("Strategy failed validation")
		return BuildResponse{
			Type:           ResponseError,
			ConversationID: conversationID,
			Phase:          phase,
			Pattern:        pattern,
			Rules:          filled,
			Issues:         issues,
		}
	}

	coords := geometry.Derive(strategy)
	return BuildResponse{
		Type:            ResponseStrategyComplete,
		ConversationID:  conversationID,
		Phase:           rules.TrackPhase(filled),
		Pattern:         pattern,
		Rules:           filled,
		Strategy:        strategy,
		Coordinates:     &coords,
		DefaultsApplied: applied,
	}
}

// runExtraction picks the extraction strategy: stateless pattern matching
// for a first message, full-history oracle replay for follow-ups.
func (b *Builder) runExtraction(ctx context.Context, req BuildRequest) ([]rules.Rule, extract.Components) {
	if req.Message == "" {
		return nil, extract.Components{}
	}

	if len(req.History) == 0 {
		return extract.FromMessage(req.Message)
	}

	history := append(append([]extract.Message{}, req.History...), extract.Message{
		Role:    extract.RoleUser,
		Content: req.Message,
	})
	result := b.oracle.Extract(ctx, history)
	return componentRules(result.Components), result.Components
}

// criticalAnswerRules attributes a critical-question answer to the field
// that is still missing, stop loss first per the question priority.
func (b *Builder) criticalAnswerRules(accumulated []rules.Rule, answer string) []rules.Rule {
	missing := missingCriticals(accumulated)
	for _, field := range missing {
		switch field {
		case extract.FieldStopLoss:
			return []rules.Rule{{
				Category: rules.CategoryExit, Label: "Stop Loss",
				Value: strings.TrimSpace(answer), Source: rules.SourceUser,
			}}
		case extract.FieldInstrument:
			return []rules.Rule{{
				Category: rules.CategorySetup, Label: "Instrument",
				Value: strings.TrimSpace(answer), Source: rules.SourceUser,
			}}
		}
	}
	return nil
}

// componentRules converts oracle components into rules for accumulation.
func componentRules(c extract.Components) []rules.Rule {
	var rs []rules.Rule
	add := func(v *string, cat rules.Category, label string) {
		if v != nil {
			rs = append(rs, rules.Rule{Category: cat, Label: label, Value: *v, Source: rules.SourceUser})
		}
	}
	add(c.Pattern, rules.CategorySetup, "Pattern")
	add(c.Instrument, rules.CategorySetup, "Instrument")
	add(c.Direction, rules.CategorySetup, "Direction")
	add(c.EntryTrigger, rules.CategoryEntry, "Entry Trigger")
	add(c.StopLoss, rules.CategoryExit, "Stop Loss")
	add(c.ProfitTarget, rules.CategoryExit, "Profit Target")
	add(c.PositionSizing, rules.CategoryRisk, "Position Size")
	add(c.Session, rules.CategoryTimeframe, "Session")
	return rs
}

func detectedPattern(c extract.Components, rs []rules.Rule) string {
	if c.Pattern != nil {
		return *c.Pattern
	}
	if r, ok := rules.Find(rs, func(r rules.Rule) bool { return strings.EqualFold(r.Label, "Pattern") }); ok {
		return canonical.PatternToken(r.Value)
	}
	return ""
}

// missingCriticals reports which blocking fields the rule set still lacks.
func missingCriticals(rs []rules.Rule) []string {
	var missing []string
	if _, ok := rules.Find(rs, func(r rules.Rule) bool { return strings.EqualFold(r.Label, "Stop Loss") }); !ok {
		missing = append(missing, extract.FieldStopLoss)
	}
	if _, ok := rules.Find(rs, func(r rules.Rule) bool { return strings.EqualFold(r.Label, "Instrument") }); !ok {
		missing = append(missing, extract.FieldInstrument)
	}
	return missing
}
