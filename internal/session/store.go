package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"deal-intake/internal/common/config"
	"deal-intake/internal/models"
)

// Store persists ConversationState keyed by session id.
type Store interface {
	// Get returns the stored state, or a fresh idle state when none exists.
	Get(ctx context.Context, sessionID string) (*models.ConversationState, error)
	Save(ctx context.Context, state *models.ConversationState) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

// MemoryStore keeps state in process. Entries idle for longer than ttl are dropped on read.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*models.ConversationState
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*models.ConversationState),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st, ok := s.states[sessionID]
	if !ok || st.Expired(now, s.ttl) {
		delete(s.states, sessionID)
		return models.NewConversationState(sessionID, now), nil
	}
	return cloneState(st), nil
}

func (s *MemoryStore) Save(ctx context.Context, state *models.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneState(state)
	cp.Touch(s.now())
	state.UpdatedAt = cp.UpdatedAt
	s.states[state.SessionID] = cp
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.states, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Len reports how many sessions are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

func cloneState(st *models.ConversationState) *models.ConversationState {
	cp := *st
	if st.PendingDeals != nil {
		cp.PendingDeals = make([]models.DealRecord, len(st.PendingDeals))
		for i, d := range st.PendingDeals {
			cp.PendingDeals[i] = d.Clone()
		}
	}
	return &cp
}

// New builds the store and locker selected by cfg.Backend. client is required for the redis backend.
func New(cfg config.SessionConfig, client *redis.Client) (Store, Locker, error) {
	switch cfg.Backend {
	case "", config.SessionBackendMemory:
		return NewMemoryStore(cfg.TTL()), NewMemoryLocker(), nil
	case config.SessionBackendRedis:
		if client == nil {
			return nil, nil, fmt.Errorf("session backend %q requires a redis client", cfg.Backend)
		}
		st := NewRedisStore(client, cfg.KeyPrefix, cfg.TTL())
		lk := NewRedisLocker(client, cfg.KeyPrefix, config.GetDuration(cfg.LockTTL), config.GetDuration(cfg.LockWait))
		return st, lk, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}
