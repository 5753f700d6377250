package database

import "time"

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Conversation is a persisted strategy-building conversation.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	Phase     string    `json:"phase"`
	Pattern   *string   `json:"pattern,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationMessage is one persisted turn of a conversation.
type ConversationMessage struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// StrategyRecord is a completed strategy with its rule provenance and
// derived visual coordinates, stored as JSON documents.
type StrategyRecord struct {
	ID              string    `json:"id"`
	ConversationID  *string   `json:"conversation_id,omitempty"`
	UserID          *string   `json:"user_id,omitempty"`
	Pattern         string    `json:"pattern"`
	Instrument      *string   `json:"instrument,omitempty"`
	Rules           []byte    `json:"rules"`
	Strategy        []byte    `json:"strategy"`
	Coordinates     []byte    `json:"coordinates,omitempty"`
	DefaultsApplied []string  `json:"defaults_applied,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
