package data

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"link-shortener/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// Substrate is the shared key-value store behind the link cache and the
// rate limit counters.
type Substrate interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes key.
	Del(ctx context.Context, key string) error
	// IncrWithExpire increments the integer at key and sets its expiry to
	// ttl when the increment created it. Both happen atomically.
	IncrWithExpire(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Compile-time interface checks
var (
	_ Substrate = (*RedisSubstrate)(nil)
	_ Substrate = (*MemorySubstrate)(nil)
)

// NewSubstrate connects to Redis, or returns an in-process substrate when no
// address is configured.
func NewSubstrate(c *conf.Data, logger log.Logger) (Substrate, func(), error) {
	helper := log.NewHelper(logger)

	if c == nil || c.Redis == nil || c.Redis.Addr == "" {
		helper.Warn("redis address not configured, using in-process cache and rate limit counters")
		return NewMemorySubstrate(nil), func() {}, nil
	}

	rc := c.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         rc.Addr,
		Password:     rc.Password,
		DB:           rc.DB,
		DialTimeout:  rc.DialTimeout.AsDuration(),
		ReadTimeout:  rc.ReadTimeout.AsDuration(),
		WriteTimeout: rc.WriteTimeout.AsDuration(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Cache reads degrade to misses and admission fails open until Redis is back.
		helper.Warnf("redis ping failed: %v", err)
	}

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			helper.Error(err)
		}
	}

	return NewRedisSubstrate(rdb), cleanup, nil
}

// incrWithExpireScript increments a key and sets its expiry on first use.
var incrWithExpireScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisSubstrate implements Substrate using Redis.
type RedisSubstrate struct {
	rdb *redis.Client
}

// NewRedisSubstrate creates a new Redis-based substrate.
func NewRedisSubstrate(rdb *redis.Client) *RedisSubstrate {
	return &RedisSubstrate{rdb: rdb}
}

// Get retrieves a value from Redis.
func (s *RedisSubstrate) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in Redis.
func (s *RedisSubstrate) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// Del removes a key from Redis.
func (s *RedisSubstrate) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// IncrWithExpire runs the increment script.
func (s *RedisSubstrate) IncrWithExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return incrWithExpireScript.Run(ctx, s.rdb, []string{key}, ttl.Milliseconds()).Int64()
}

// memoryPurgeEvery is the number of writes between purges of expired items.
const memoryPurgeEvery = 1024

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemorySubstrate implements Substrate in process. It is shared only by the
// goroutines of a single instance.
type MemorySubstrate struct {
	mu     sync.Mutex
	items  map[string]memoryItem
	now    func() time.Time
	writes int
}

// NewMemorySubstrate creates an in-process substrate. A nil clock uses time.Now.
func NewMemorySubstrate(now func() time.Time) *MemorySubstrate {
	if now == nil {
		now = time.Now
	}
	return &MemorySubstrate{
		items: make(map[string]memoryItem),
		now:   now,
	}
}

// Get returns the live value for key.
func (s *MemorySubstrate) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.live(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), item.value...), true, nil
}

// Set stores value for ttl.
func (s *MemorySubstrate) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = memoryItem{
		value:     append([]byte(nil), value...),
		expiresAt: s.now().Add(ttl),
	}
	s.afterWrite()
	return nil
}

// Del removes key.
func (s *MemorySubstrate) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// IncrWithExpire increments the counter at key.
func (s *MemorySubstrate) IncrWithExpire(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.live(key)
	if !ok {
		item = memoryItem{value: []byte("0"), expiresAt: s.now().Add(ttl)}
	}

	n, err := strconv.ParseInt(string(item.value), 10, 64)
	if err != nil {
		return 0, errors.New("value is not an integer")
	}
	n++
	item.value = []byte(strconv.FormatInt(n, 10))
	s.items[key] = item
	s.afterWrite()

	return n, nil
}

// live returns the item for key, dropping it when expired. Callers hold mu.
func (s *MemorySubstrate) live(key string) (memoryItem, bool) {
	item, ok := s.items[key]
	if !ok {
		return memoryItem{}, false
	}
	if !s.now().Before(item.expiresAt) {
		delete(s.items, key)
		return memoryItem{}, false
	}
	return item, true
}

func (s *MemorySubstrate) afterWrite() {
	s.writes++
	if s.writes < memoryPurgeEvery {
		return
	}
	s.writes = 0
	now := s.now()
	for k, item := range s.items {
		if !now.Before(item.expiresAt) {
			delete(s.items, k)
		}
	}
}
