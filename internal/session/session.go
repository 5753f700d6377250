// Package session stores per-conversation state between turns. Every
// conversation carries a TTL so abandoned sessions are reclaimed instead of
// accumulating for the life of the process.
package session

import (
	"context"
	"errors"
	"time"

	"strategy-builder/internal/extract"
	"strategy-builder/internal/rules"
)

// ErrNotFound is returned when a conversation does not exist or its TTL
// has elapsed.
var ErrNotFound = errors.New("session: conversation not found")

// Session is the accumulated state of one strategy conversation.
type Session struct {
	ConversationID string            `json:"conversation_id"`
	UserID         string            `json:"user_id,omitempty"`
	Rules          []rules.Rule      `json:"rules,omitempty"`
	History        []extract.Message `json:"history,omitempty"`
	Phase          rules.Phase       `json:"phase"`
	Pattern        string            `json:"pattern,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivity   time.Time         `json:"last_activity"`
}

// Store persists conversation sessions. Save refreshes the TTL, so any
// active conversation stays alive while idle ones expire.
type Store interface {
	Get(ctx context.Context, conversationID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, conversationID string) error
	Close() error
}
