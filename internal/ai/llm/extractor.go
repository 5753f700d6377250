package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"strategy-builder/internal/extract"
)

// completer is the slice of Client the extractor needs; tests substitute a
// deterministic stub.
type completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	IsConfigured() bool
}

// Extractor is the stateful extraction strategy: it replays the entire
// conversation history through the provider on every call, so cross-turn
// context is preserved by the model itself rather than by local state.
type Extractor struct {
	client completer
	log    zerolog.Logger
}

// NewExtractor creates an extractor on top of a provider client.
func NewExtractor(client *Client, log zerolog.Logger) *Extractor {
	return newExtractor(client, log)
}

func newExtractor(client completer, log zerolog.Logger) *Extractor {
	return &Extractor{
		client: client,
		log:    log.With().Str("component", "llm_extractor").Logger(),
	}
}

// Extract replays the conversation through the structured-extraction prompt
// and returns the component set. Any failure - transport, timeout,
// cancellation, malformed response - fails closed: all components null,
// both critical fields missing. Errors are logged, never surfaced, so the
// question flow takes over instead of the user seeing a hard error.
func (e *Extractor) Extract(ctx context.Context, history []extract.Message) extract.Result {
	if !e.client.IsConfigured() {
		e.log.Warn().Msg("LLM extractor not configured, failing closed")
		return extract.FailClosed()
	}

	response, err := e.client.Complete(ctx, SystemPromptComponentExtraction, formatTranscript(history))
	if err != nil {
		e.log.Error().Err(err).Int("turns", len(history)).Msg("Extraction request failed, failing closed")
		return extract.FailClosed()
	}

	components, err := parseComponents(response)
	if err != nil {
		e.log.Error().Err(err).Str("response", truncate(response, 200)).Msg("Malformed extraction response, failing closed")
		return extract.FailClosed()
	}

	return extract.Resolve(components)
}

// formatTranscript renders the conversation for the extraction prompt,
// latest turn last.
func formatTranscript(history []extract.Message) string {
	var b strings.Builder
	b.WriteString("Conversation:\n")
	for _, m := range history {
		role := "Trader"
		if m.Role == extract.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, m.Content)
	}
	b.WriteString("\nExtract the strategy components.")
	return b.String()
}

// fenceRe strips markdown code fences some providers wrap JSON in
var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\n?```$")

func stripMarkdownCodeBlock(response string) string {
	response = strings.TrimSpace(response)
	if m := fenceRe.FindStringSubmatch(response); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return response
}

func parseComponents(response string) (extract.Components, error) {
	var components extract.Components
	clean := stripMarkdownCodeBlock(response)
	if err := json.Unmarshal([]byte(clean), &components); err != nil {
		return extract.Components{}, fmt.Errorf("failed to parse extraction response: %w", err)
	}
	return normalize(components), nil
}

// normalize drops empty-string slots: the contract is null-or-stated, an
// empty string from the model counts as never stated.
func normalize(c extract.Components) extract.Components {
	blank := func(p **string) {
		if *p != nil && strings.TrimSpace(**p) == "" {
			*p = nil
		}
	}
	blank(&c.Instrument)
	blank(&c.Pattern)
	blank(&c.StopLoss)
	blank(&c.Direction)
	blank(&c.ProfitTarget)
	blank(&c.PositionSizing)
	blank(&c.Session)
	blank(&c.EntryTrigger)
	return c
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
