package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a lookup has no matching row.
var ErrNotFound = errors.New("database: not found")

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// ============================================================================
// USERS
// ============================================================================

// CreateUser inserts a new user
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	return r.db.Pool.QueryRow(ctx, query, user.ID, user.Email, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	user := &User{}
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ============================================================================
// CONVERSATIONS
// ============================================================================

// UpsertConversation inserts a conversation or refreshes its phase and
// pattern on subsequent turns.
func (r *Repository) UpsertConversation(ctx context.Context, conv *Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, phase, pattern)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET phase = EXCLUDED.phase, pattern = EXCLUDED.pattern, updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at
	`
	return r.db.Pool.QueryRow(ctx, query, conv.ID, conv.UserID, conv.Phase, conv.Pattern).
		Scan(&conv.CreatedAt, &conv.UpdatedAt)
}

// GetConversation retrieves a conversation by ID
func (r *Repository) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	query := `
		SELECT id, user_id, phase, pattern, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`
	conv := &Conversation{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&conv.ID, &conv.UserID, &conv.Phase, &conv.Pattern, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// AddMessage appends a turn to a conversation
func (r *Repository) AddMessage(ctx context.Context, msg *ConversationMessage) error {
	query := `
		INSERT INTO messages (conversation_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.db.Pool.QueryRow(ctx, query, msg.ConversationID, msg.Role, msg.Content).
		Scan(&msg.ID, &msg.CreatedAt)
}

// GetMessages retrieves all turns of a conversation in order
func (r *Repository) GetMessages(ctx context.Context, conversationID string) ([]ConversationMessage, error) {
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY id
	`
	rows, err := r.db.Pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []ConversationMessage
	for rows.Next() {
		var msg ConversationMessage
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ============================================================================
// STRATEGIES
// ============================================================================

// SaveStrategy stores a completed strategy
func (r *Repository) SaveStrategy(ctx context.Context, rec *StrategyRecord) error {
	query := `
		INSERT INTO strategies (id, conversation_id, user_id, pattern, instrument, rules, strategy, coordinates, defaults_applied)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	return r.db.Pool.QueryRow(
		ctx, query,
		rec.ID, rec.ConversationID, rec.UserID, rec.Pattern, rec.Instrument,
		rec.Rules, rec.Strategy, rec.Coordinates, rec.DefaultsApplied,
	).Scan(&rec.CreatedAt)
}

// GetStrategy retrieves a strategy by ID
func (r *Repository) GetStrategy(ctx context.Context, id string) (*StrategyRecord, error) {
	query := `
		SELECT id, conversation_id, user_id, pattern, instrument, rules, strategy, coordinates, defaults_applied, created_at
		FROM strategies
		WHERE id = $1
	`
	rec := &StrategyRecord{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.ConversationID, &rec.UserID, &rec.Pattern, &rec.Instrument,
		&rec.Rules, &rec.Strategy, &rec.Coordinates, &rec.DefaultsApplied, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get strategy: %w", err)
	}
	return rec, nil
}

// ListStrategies retrieves a user's strategies, newest first
func (r *Repository) ListStrategies(ctx context.Context, userID string, limit int) ([]StrategyRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, conversation_id, user_id, pattern, instrument, rules, strategy, coordinates, defaults_applied, created_at
		FROM strategies
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}
	defer rows.Close()

	var records []StrategyRecord
	for rows.Next() {
		var rec StrategyRecord
		if err := rows.Scan(
			&rec.ID, &rec.ConversationID, &rec.UserID, &rec.Pattern, &rec.Instrument,
			&rec.Rules, &rec.Strategy, &rec.Coordinates, &rec.DefaultsApplied, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
