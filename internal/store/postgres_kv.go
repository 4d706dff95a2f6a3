package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const createKVTableSQL = `
CREATE TABLE IF NOT EXISTS console_kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at TIMESTAMPTZ NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresKV 基于 PostgreSQL 的 KV 实现（未部署 Redis 时的持久化存储）
type PostgresKV struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresKV(db *sql.DB, logger *zap.Logger) *PostgresKV {
	return &PostgresKV{db: db, logger: logger}
}

// EnsureSchema 建表（幂等）
func (p *PostgresKV) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createKVTableSQL); err != nil {
		return fmt.Errorf("failed to create console_kv table: %w", err)
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	var value string
	var expiresAt pq.NullTime
	err := p.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM console_kv WHERE key = $1`,
		key,
	).Scan(&value, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrMiss
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}

	// 过期行视为不存在，由下一次 Set/Del 覆盖
	if expiresAt.Valid && time.Now().After(expiresAt.Time) {
		p.logger.Debug("console_kv row expired", zap.String("key", key))
		return "", ErrMiss
	}
	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	var expiresAt pq.NullTime
	if ttl > 0 {
		expiresAt = pq.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO console_kv (key, value, expires_at, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key)
		 DO UPDATE SET value = EXCLUDED.value,
		               expires_at = EXCLUDED.expires_at,
		               updated_at = NOW()`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM console_kv WHERE key = ANY($1)`,
		pq.Array(keys),
	); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}
