package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-battle/internal/domain"
)

// PoolLoader loads pool sets stored as JSONB rows of question_pools.
type PoolLoader struct {
	pool *pgxpool.Pool
}

func NewPoolLoader(pool *pgxpool.Pool) *PoolLoader {
	return &PoolLoader{pool: pool}
}

func (l *PoolLoader) LoadPools(ctx context.Context, set string) (domain.Pools, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_pools WHERE id=$1`, set).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Pools{}, fmt.Errorf("pool set %q: %w", set, domain.ErrPoolNotFound)
	}
	if err != nil {
		return domain.Pools{}, fmt.Errorf("load pools: %w", err)
	}
	var pools domain.Pools
	if err := json.Unmarshal(raw, &pools); err != nil {
		return domain.Pools{}, fmt.Errorf("unmarshal pools: %w", err)
	}
	return pools, nil
}

// SavePools inserts or replaces a pool set.
func (l *PoolLoader) SavePools(ctx context.Context, set string, pools domain.Pools) error {
	if err := pools.Validate(); err != nil {
		return fmt.Errorf("pool set %q: %w", set, err)
	}
	data, err := json.Marshal(pools)
	if err != nil {
		return fmt.Errorf("marshal pools: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO question_pools (id, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		set, data)
	if err != nil {
		return fmt.Errorf("save pools: %w", err)
	}
	return nil
}
