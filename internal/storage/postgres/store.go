// Package postgres persists pool events and reserve snapshots.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brenda87/tswap/internal/events"
)

const writeTimeout = 10 * time.Second

// Store provides Postgres persistence for pool events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutEventBatch inserts a batch of event envelopes.
func (s *Store) PutEventBatch(batch []events.Envelope) error {
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	pgBatch := &pgx.Batch{}
	for _, env := range batch {
		payload, err := json.Marshal(env.Data)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		pgBatch.Queue(`
			INSERT INTO pool_events (event_type, pool, occurred_at, payload)
			VALUES ($1, $2, $3, $4)
		`,
			env.Type,
			env.Pool,
			env.At,
			payload,
		)
	}

	br := s.pool.SendBatch(ctx, pgBatch)
	defer br.Close()

	for range batch {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return nil
}

// UpsertPoolSnapshot records the latest reserves and liquidity supply for a pool.
func (s *Store) UpsertPoolSnapshot(ctx context.Context, pool, quoteAsset, reserveQuote, reserveToken, liquiditySupply string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pool_snapshots (pool, quote_asset, reserve_quote, reserve_token, liquidity_supply, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (pool)
		DO UPDATE SET
			reserve_quote = EXCLUDED.reserve_quote,
			reserve_token = EXCLUDED.reserve_token,
			liquidity_supply = EXCLUDED.liquidity_supply,
			updated_at = now()
	`, pool, quoteAsset, reserveQuote, reserveToken, liquiditySupply)
	if err != nil {
		return fmt.Errorf("upsert pool snapshot: %w", err)
	}
	return nil
}
