package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "deal-intake/internal/common/errors"
)

// Locker serialises handling per session. The returned unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, sessionID string) (func(), error)
}

// MemoryLocker is a per-key mutex table. Entries are removed once nobody holds or waits on them.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*refLock)}
}

func (l *MemoryLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	rl, ok := l.locks[sessionID]
	if !ok {
		rl = &refLock{ch: make(chan struct{}, 1)}
		l.locks[sessionID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(sessionID, rl)
		return nil, apperrors.NewSessionLockTimeoutError(sessionID)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-rl.ch
			l.release(sessionID, rl)
		})
	}, nil
}

func (l *MemoryLocker) release(sessionID string, rl *refLock) {
	l.mu.Lock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, sessionID)
	}
	l.mu.Unlock()
}

// active reports how many keys currently have holders or waiters.
func (l *MemoryLocker) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const lockPollInterval = 50 * time.Millisecond

// RedisLocker is a single-instance Redis lock: SET NX PX with a random token, released with a
// compare-and-delete script so an expired holder cannot free somebody else's lock.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(client *redis.Client, prefix string, ttl, wait time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if wait <= 0 {
		wait = 10 * time.Second
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, wait: wait}
}

func (l *RedisLocker) key(sessionID string) string {
	return l.prefix + ":lock:" + sessionID
}

func (l *RedisLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := l.key(sessionID)
	token := uuid.New().String()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, apperrors.NewSessionStoreFailedError("lock", err)
		}
		if ok {
			return l.unlocker(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, apperrors.NewSessionLockTimeoutError(sessionID)
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlocker(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
		})
	}
}
