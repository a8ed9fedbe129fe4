// Package redis stores sessions in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travelbuddy/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// SessionRepo implements domain.SessionRepository on Redis. Keys carry the
// session's remaining lifetime as their TTL, so Redis evicts expired
// sessions on its own.
type SessionRepo struct {
	client goredis.UniversalClient
	prefix string
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

// NewSessionRepo creates a session repository on client.
func NewSessionRepo(client goredis.UniversalClient) *SessionRepo {
	return &SessionRepo{client: client, prefix: keyPrefix}
}

// NewClient parses a redis:// URL and returns a connected client.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type sessionRecord struct {
	Token      string    `json:"token"`
	UserID     int64     `json:"user_id"`
	Persistent bool      `json:"persistent"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Create stores a session until its expiry.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	data, err := json.Marshal(sessionRecord(s))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.client.Set(ctx, r.prefix+s.Token, data, ttl).Err()
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.prefix+token).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	s := domain.Session(rec)
	return &s, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.prefix+token).Err()
}

// DeleteExpired is a no-op: keys expire through their TTL.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	return nil
}
