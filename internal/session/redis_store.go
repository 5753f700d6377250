package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"strategy-builder/config"
)

const keyPrefix = "conversation:%s:session"

// RedisStore keeps sessions in Redis with a server-side TTL. It degrades
// gracefully: after repeated failures the circuit opens and operations
// return errors the caller can handle by falling back to the memory store.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger

	mu           sync.RWMutex
	healthy      bool
	failureCount int
	lastCheck    time.Time

	maxFailures   int
	checkInterval time.Duration
}

// NewRedisStore connects to Redis and verifies connectivity. A failed
// initial ping returns the store in degraded mode rather than an error, so
// the process can start while Redis recovers.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration, log zerolog.Logger) (*RedisStore, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	rs := &RedisStore{
		client:        client,
		ttl:           ttl,
		log:           log.With().Str("component", "session").Logger(),
		maxFailures:   3,
		checkInterval: 30 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		rs.log.Warn().Err(err).Msg("Initial Redis connection failed, starting degraded")
		return rs, nil
	}

	rs.healthy = true
	rs.lastCheck = time.Now()
	rs.log.Info().Str("address", cfg.Address).Msg("Redis session store connected")
	return rs, nil
}

// IsHealthy reports whether Redis is currently usable.
func (rs *RedisStore) IsHealthy() bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.healthy
}

func (rs *RedisStore) recordFailure() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.failureCount++
	if rs.failureCount >= rs.maxFailures {
		if rs.healthy {
			rs.log.Warn().Int("failures", rs.failureCount).Msg("Circuit breaker open, Redis marked unhealthy")
		}
		rs.healthy = false
	}
}

func (rs *RedisStore) recordSuccess() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.healthy {
		rs.log.Info().Msg("Circuit breaker closed, Redis recovered")
	}
	rs.healthy = true
	rs.failureCount = 0
	rs.lastCheck = time.Now()
}

// checkHealth pings Redis in the background once the check interval has
// passed while unhealthy.
func (rs *RedisStore) checkHealth() {
	rs.mu.RLock()
	shouldCheck := !rs.healthy && time.Since(rs.lastCheck) >= rs.checkInterval
	rs.mu.RUnlock()

	if !shouldCheck {
		return
	}

	go func() {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := rs.client.Ping(pingCtx).Err(); err == nil {
			rs.recordSuccess()
		}
	}()
}

// Get loads a session. Expired or unknown conversations return ErrNotFound.
func (rs *RedisStore) Get(ctx context.Context, conversationID string) (*Session, error) {
	rs.checkHealth()
	if !rs.IsHealthy() {
		return nil, fmt.Errorf("redis unavailable (circuit breaker open)")
	}

	data, err := rs.client.Get(ctx, fmt.Sprintf(keyPrefix, conversationID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		rs.recordFailure()
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	rs.recordSuccess()

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// Save writes the session and resets its TTL.
func (rs *RedisStore) Save(ctx context.Context, s *Session) error {
	rs.checkHealth()
	if !rs.IsHealthy() {
		return fmt.Errorf("redis unavailable (circuit breaker open)")
	}

	s.LastActivity = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := rs.client.Set(ctx, fmt.Sprintf(keyPrefix, s.ConversationID), data, rs.ttl).Err(); err != nil {
		rs.recordFailure()
		return fmt.Errorf("redis set failed: %w", err)
	}
	rs.recordSuccess()
	return nil
}

// Delete removes a session.
func (rs *RedisStore) Delete(ctx context.Context, conversationID string) error {
	rs.checkHealth()
	if !rs.IsHealthy() {
		return fmt.Errorf("redis unavailable (circuit breaker open)")
	}

	if err := rs.client.Del(ctx, fmt.Sprintf(keyPrefix, conversationID)).Err(); err != nil {
		rs.recordFailure()
		return fmt.Errorf("redis delete failed: %w", err)
	}
	rs.recordSuccess()
	return nil
}

// Close releases the Redis client.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
