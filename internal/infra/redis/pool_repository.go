package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-battle/internal/domain"
	"quiz-battle/internal/infra/memory"
)

// PoolRepository caches a pool set in Redis as one JSON string and falls
// back to a loader on cache miss:
//
//	SET quiz:pools:{set} {json} EX ttl
type PoolRepository struct {
	client *redis.Client
	loader memory.PoolLoader
	set    string
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewPoolRepository(client *redis.Client, loader memory.PoolLoader, set string, ttl time.Duration) *PoolRepository {
	return &PoolRepository{
		client: client,
		loader: loader,
		set:    set,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *PoolRepository) GetPools(ctx context.Context) (domain.Pools, error) {
	if pools, ok := r.cached(ctx); ok {
		return pools, nil
	}

	result, err, _ := r.sf.Do(r.set, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pools, ok := r.cached(ctx); ok {
			return pools, nil
		}

		pools, err := r.loader.LoadPools(ctx, r.set)
		if err != nil {
			return domain.Pools{}, err
		}
		if err := pools.Validate(); err != nil {
			return domain.Pools{}, fmt.Errorf("pool set %q: %w", r.set, err)
		}

		if ttl := r.ttlWithJitter(); ttl > 0 {
			if data, err := json.Marshal(pools); err == nil {
				_ = r.client.Set(ctx, r.key(), data, ttl).Err()
			}
		}
		return pools, nil
	})
	if err != nil {
		return domain.Pools{}, err
	}
	return result.(domain.Pools), nil
}

// cached treats unreadable entries as a miss.
func (r *PoolRepository) cached(ctx context.Context) (domain.Pools, bool) {
	data, err := r.client.Get(ctx, r.key()).Bytes()
	if err != nil {
		return domain.Pools{}, false
	}
	var pools domain.Pools
	if err := json.Unmarshal(data, &pools); err != nil {
		return domain.Pools{}, false
	}
	return pools, true
}

func (r *PoolRepository) key() string {
	return "quiz:pools:" + r.set
}

func (r *PoolRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
