package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"modtraining_backend/internal/quiz"
	"modtraining_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "modtraining:session:"

// SessionRepository 将进行中的考核会话保存在 Redis，带 TTL，放弃的会话自动过期。
type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

func (r *SessionRepository) Load(ctx context.Context, userID string) (*quiz.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var s quiz.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Save(ctx context.Context, userID string, s *quiz.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, sessionKey(userID), raw, r.ttl).Err()
}

func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, sessionKey(userID)).Err()
}

// MemorySessionRepository 单实例部署（未启用 Redis）时使用
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string][]byte)}
}

func (r *MemorySessionRepository) Load(_ context.Context, userID string) (*quiz.Session, error) {
	r.mu.Lock()
	raw, ok := r.sessions[userID]
	r.mu.Unlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}

	var s quiz.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, userID string, s *quiz.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.sessions[userID] = raw
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()
	return nil
}
