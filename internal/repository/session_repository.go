package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/mfl-intake/internal/domain"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

// SessionRepository persists intake sessions. Get returns NOT_FOUND for
// unknown or expired sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
}

const sessionKeyPrefix = "mfl:session:"

type redisSessionRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisSessionRepository stores sessions as JSON documents with a sliding TTL.
func NewRedisSessionRepository(client redis.UniversalClient, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{client: client, ttl: ttl}
}

func (r *redisSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	created, err := r.client.SetNX(ctx, sessionKey(session.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !created {
		return apperrors.NewConflict("session already exists", map[string]any{"session_id": session.ID})
	}
	return nil
}

func (r *redisSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFound("session", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (r *redisSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// XX: a session that expired mid-request is not resurrected.
	ok, err := r.client.SetXX(ctx, sessionKey(session.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if !ok {
		return apperrors.NewNotFound("session", nil)
	}
	return nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

type memorySessionRepository struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memorySession
}

type memorySession struct {
	data      []byte
	expiresAt time.Time
}

// NewMemorySessionRepository keeps sessions in process. Values are stored
// encoded so callers never share mutable state.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySessionRepository{ttl: ttl, now: time.Now, sessions: make(map[string]memorySession)}
}

func (r *memorySessionRepository) Create(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live(session.ID); ok {
		return apperrors.NewConflict("session already exists", map[string]any{"session_id": session.ID})
	}
	return r.store(session)
}

func (r *memorySessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	entry, ok := r.live(id)
	r.mu.Unlock()
	if !ok {
		return nil, apperrors.NewNotFound("session", nil)
	}
	var session domain.Session
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (r *memorySessionRepository) Save(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live(session.ID); !ok {
		return apperrors.NewNotFound("session", nil)
	}
	return r.store(session)
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

// live must be called with mu held.
func (r *memorySessionRepository) live(id string) (memorySession, bool) {
	entry, ok := r.sessions[id]
	if !ok {
		return memorySession{}, false
	}
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		delete(r.sessions, id)
		return memorySession{}, false
	}
	return entry, true
}

func (r *memorySessionRepository) store(session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	entry := memorySession{data: data}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.sessions[session.ID] = entry
	return nil
}
