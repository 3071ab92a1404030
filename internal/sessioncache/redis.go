package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quizzly/internal/logger"
)

const (
	redisOpTimeout = 2 * time.Second
	// sessionTTL bounds how long a snapshot outlives a client that never
	// reached Close.
	sessionTTL = 24 * time.Hour
)

// RedisStore keeps one session's snapshots under a per-session key prefix so
// several clients can share a Redis instance. Close removes the session's keys.
type RedisStore struct {
	client    *redis.Client
	ctx       context.Context
	prefix    string
	sessionID string
	log       *logger.Logger
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects and pings. A session id is generated per store.
func NewRedisStore(ctx context.Context, opts RedisOptions, log *logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}

	return newRedisStoreWithClient(ctx, client, uuid.NewString(), log), nil
}

func newRedisStoreWithClient(ctx context.Context, client *redis.Client, sessionID string, log *logger.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		ctx:       ctx,
		prefix:    fmt.Sprintf("session:%s:cache:", sessionID),
		sessionID: sessionID,
		log:       logger.OrNop(log).With("component", "sessioncache.redis", "session_id", sessionID),
	}
}

func (s *RedisStore) SessionID() string {
	return s.sessionID
}

func (s *RedisStore) Read(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(s.ctx, redisOpTimeout)
	defer cancel()

	payload, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Debug("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return payload, true
}

func (s *RedisStore) Write(key string, payload []byte) {
	ctx, cancel := context.WithTimeout(s.ctx, redisOpTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+key, payload, sessionTTL).Err(); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}

// cleanupContext outlives the store context so a session interrupted by a
// signal can still remove its keys.
func (s *RedisStore) cleanupContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(s.ctx), redisOpTimeout)
}

// Clear deletes every key of this session.
func (s *RedisStore) Clear() error {
	ctx, cancel := s.cleanupContext()
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan session keys: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete session keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close ends the session: its keys are removed and the connection released.
func (s *RedisStore) Close() error {
	clearErr := s.Clear()
	if err := s.client.Close(); err != nil && clearErr == nil {
		return err
	}
	return clearErr
}
