package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-battle/internal/domain"
)

// PoolLoader fetches a named pool set from a backing store (YAML file, Postgres).
type PoolLoader interface {
	LoadPools(ctx context.Context, set string) (domain.Pools, error)
}

// PoolRepository caches one pool set with TTL so every round entry does not
// hit the backing store.
type PoolRepository struct {
	loader PoolLoader
	set    string
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	entry *cachedPools
}

type cachedPools struct {
	pools     domain.Pools
	expiresAt time.Time
}

// NewPoolRepository serves set from loader. A ttl of zero reloads on every call.
func NewPoolRepository(loader PoolLoader, set string, ttl time.Duration) *PoolRepository {
	return &PoolRepository{
		loader: loader,
		set:    set,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *PoolRepository) GetPools(ctx context.Context) (domain.Pools, error) {
	if pools, ok := r.cached(r.clock()); ok {
		return pools, nil
	}

	result, err, _ := r.sf.Do(r.set, func() (interface{}, error) {
		now := r.clock()
		if pools, ok := r.cached(now); ok {
			return pools, nil
		}

		pools, err := r.loader.LoadPools(ctx, r.set)
		if err != nil {
			return domain.Pools{}, err
		}
		if err := pools.Validate(); err != nil {
			return domain.Pools{}, fmt.Errorf("pool set %q: %w", r.set, err)
		}

		r.mu.Lock()
		r.entry = &cachedPools{pools: pools, expiresAt: now.Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return pools, nil
	})
	if err != nil {
		return domain.Pools{}, err
	}
	return result.(domain.Pools), nil
}

func (r *PoolRepository) cached(now time.Time) (domain.Pools, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.entry != nil && r.entry.expiresAt.After(now) {
		return r.entry.pools, true
	}
	return domain.Pools{}, false
}

func (r *PoolRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticPoolLoader serves pool sets from a map (useful for tests/demos).
type StaticPoolLoader struct {
	sets map[string]domain.Pools
}

func NewStaticPoolLoader(sets map[string]domain.Pools) *StaticPoolLoader {
	return &StaticPoolLoader{sets: sets}
}

func (l *StaticPoolLoader) LoadPools(_ context.Context, set string) (domain.Pools, error) {
	if pools, ok := l.sets[set]; ok {
		return pools, nil
	}
	return domain.Pools{}, fmt.Errorf("pool set %q: %w", set, domain.ErrPoolNotFound)
}
