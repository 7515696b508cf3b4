package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-battle/internal/domain"
	"quiz-battle/internal/infra/memory"
)

func TestPoolRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		PoolLoader: memory.NewStaticPoolLoader(map[string]domain.Pools{
			"demo": samplePools(),
		}),
	}
	repo := NewPoolRepository(client, loader, "demo", time.Minute)

	if _, err := repo.GetPools(context.Background()); err != nil {
		t.Fatalf("get pools: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("quiz:pools:demo") {
		t.Fatalf("expected pools cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	pools, err := repo.GetPools(context.Background())
	if err != nil {
		t.Fatalf("get pools 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if len(pools.Bonus) != 1 || pools.Bonus[0].Prompt != "Sky?" {
		t.Fatalf("unexpected cached pools %+v", pools)
	}

	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetPools(context.Background())
	if loader.count() != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.count())
	}
}

type countingLoader struct {
	memory.PoolLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadPools(ctx context.Context, set string) (domain.Pools, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.PoolLoader.LoadPools(ctx, set)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func samplePools() domain.Pools {
	return domain.Pools{
		Words: []string{"CAT", "DOG"},
		Choices: []domain.ChoiceQuestion{
			{Prompt: "2 + 2?", Options: []string{"3", "4"}, Answer: 1},
		},
		Bonus: []domain.ChoiceQuestion{
			{Prompt: "Sky?", Options: []string{"Blue", "Red"}, Answer: 0},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
