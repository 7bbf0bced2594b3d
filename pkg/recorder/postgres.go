package recorder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS detected_attacks (
	id            UUID PRIMARY KEY,
	snippet       TEXT NOT NULL,
	threats       TEXT[] NOT NULL DEFAULT '{}',
	categories    TEXT[] NOT NULL DEFAULT '{}',
	risk_level    TEXT NOT NULL,
	llm_verified  BOOLEAN NOT NULL DEFAULT FALSE,
	context_label TEXT NOT NULL DEFAULT '',
	detected_at   TIMESTAMPTZ NOT NULL
)`

const insertAttackSQL = `
INSERT INTO detected_attacks
	(id, snippet, threats, categories, risk_level, llm_verified, context_label, detected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO NOTHING`

// PostgresStore persists attack batches with a single round trip per flush.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, verifies the connection, and ensures the table
// exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect attack store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping attack store: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create attacks table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// SaveBatch inserts the batch with pgx batching.
func (s *PostgresStore) SaveBatch(ctx context.Context, batch []DetectedAttack) error {
	if len(batch) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, a := range batch {
		b.Queue(insertAttackSQL,
			a.ID, a.Snippet, a.Threats, a.Categories,
			a.RiskLevel.String(), a.LLMVerified, a.Context, a.Timestamp)
	}

	br := s.pool.SendBatch(ctx, b)
	defer br.Close()

	for range batch {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert attack batch: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
