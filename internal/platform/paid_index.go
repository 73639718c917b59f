package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/apicoin/apicoin/internal/paging"
)

// PaidIndex remembers, per payer, the distinct apps they deposited into in
// first-deposit order.
type PaidIndex interface {
	Record(ctx context.Context, payer, app string) error
	List(ctx context.Context, payer string, offset, limit int) ([]string, int, error)
}

type memoryPaidIndex struct {
	mu    sync.RWMutex
	apps  map[string][]string
	known map[string]map[string]struct{}
}

// NewMemoryPaidIndex constructs an in-memory index.
func NewMemoryPaidIndex() PaidIndex {
	return &memoryPaidIndex{
		apps:  make(map[string][]string),
		known: make(map[string]map[string]struct{}),
	}
}

func (m *memoryPaidIndex) Record(_ context.Context, payer, app string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen, ok := m.known[payer]
	if !ok {
		seen = make(map[string]struct{})
		m.known[payer] = seen
	}
	if _, dup := seen[app]; dup {
		return nil
	}
	seen[app] = struct{}{}
	m.apps[payer] = append(m.apps[payer], app)
	return nil
}

func (m *memoryPaidIndex) List(_ context.Context, payer string, offset, limit int) ([]string, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	apps := m.apps[payer]
	return paging.Slice(apps, offset, limit), len(apps), nil
}

// RedisPaidIndex keeps a set for membership and a list for order under
// paid:<payer>:set and paid:<payer>:list.
type RedisPaidIndex struct {
	cache *redis.Client
}

// NewRedisPaidIndex builds a Redis-backed index.
func NewRedisPaidIndex(cache *redis.Client) *RedisPaidIndex {
	return &RedisPaidIndex{cache: cache}
}

// recordScript adds app to the list only when the set insert is new, so
// concurrent first deposits cannot append twice.
var recordScript = redis.NewScript(`
if redis.call("SADD", KEYS[1], ARGV[1]) == 1 then
  redis.call("RPUSH", KEYS[2], ARGV[1])
  return 1
end
return 0
`)

func (r *RedisPaidIndex) Record(ctx context.Context, payer, app string) error {
	if err := recordScript.Run(ctx, r.cache, []string{setKey(payer), listKey(payer)}, app).Err(); err != nil {
		return fmt.Errorf("record paid app %s for %s: %w", app, payer, err)
	}
	return nil
}

func (r *RedisPaidIndex) List(ctx context.Context, payer string, offset, limit int) ([]string, int, error) {
	total, err := r.cache.LLen(ctx, listKey(payer)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("count paid apps for %s: %w", payer, err)
	}
	start, end := paging.Window(int(total), offset, limit)
	if start == end {
		return []string{}, int(total), nil
	}
	apps, err := r.cache.LRange(ctx, listKey(payer), int64(start), int64(end-1)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("list paid apps for %s: %w", payer, err)
	}
	return apps, int(total), nil
}

func setKey(payer string) string  { return "paid:" + payer + ":set" }
func listKey(payer string) string { return "paid:" + payer + ":list" }
