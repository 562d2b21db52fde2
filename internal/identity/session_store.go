package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned by a SessionStore for unknown, expired or
// revoked sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore remembers live sessions by id.  The stored value is the
// session's subject, checked against the assertion on every verify.
type SessionStore interface {
	Put(ctx context.Context, id, subject string, ttl time.Duration) error
	Subject(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps sessions as expiring keys, so a restarted
// server still honours tokens issued before the restart.
type RedisSessionStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, prefix: "sv:session:"}
}

func (s *RedisSessionStore) Put(ctx context.Context, id, subject string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.prefix+id, subject, ttl).Err()
}

func (s *RedisSessionStore) Subject(ctx context.Context, id string) (string, error) {
	v, err := s.rdb.Get(ctx, s.prefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	return v, err
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.prefix+id).Err()
}

// MemorySessionStore is the fallback when Redis is unavailable.  Sessions
// do not survive a restart.
type MemorySessionStore struct {
	mu   sync.Mutex
	now  func() time.Time
	live map[string]memSession
}

type memSession struct {
	subject string
	expires time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{now: time.Now, live: map[string]memSession{}}
}

func (s *MemorySessionStore) Put(_ context.Context, id, subject string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[id] = memSession{subject: subject, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Subject(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.live[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	if !s.now().Before(m.expires) {
		delete(s.live, id)
		return "", ErrSessionNotFound
	}
	return m.subject, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, id)
	return nil
}
