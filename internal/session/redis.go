package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/models"
)

const DefaultKeyPrefix = "deal-session"

// RedisStore keeps each session as a JSON value under <prefix>:<id>. Saving refreshes the TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewConversationState(sessionID, s.now()), nil
	}
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError("get", err)
	}

	var st models.ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, apperrors.NewSessionStoreFailedError("decode", err)
	}
	st.SessionID = sessionID
	return &st, nil
}

func (s *RedisStore) Save(ctx context.Context, state *models.ConversationState) error {
	state.Touch(s.now())
	data, err := json.Marshal(state)
	if err != nil {
		return apperrors.NewSessionStoreFailedError("encode", err)
	}
	if err := s.client.Set(ctx, s.key(state.SessionID), data, s.ttl).Err(); err != nil {
		return apperrors.NewSessionStoreFailedError("save", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return apperrors.NewSessionStoreFailedError("delete", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
