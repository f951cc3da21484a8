package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskflow-console/internal/model"
)

// PostgresStorage stores items in the local_storage table, partitioned by profile
// so several consoles can share one database.
type PostgresStorage struct {
	pool    *pgxpool.Pool
	profile string
}

func NewPostgres(pool *pgxpool.Pool, profile string) *PostgresStorage {
	if profile == "" {
		profile = "default"
	}
	return &PostgresStorage{pool: pool, profile: profile}
}

func (s *PostgresStorage) GetItem(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM local_storage WHERE profile = $1 AND key = $2`,
		s.profile, key).Scan(&value)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("get %q: %w", key, model.ErrItemNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get storage item %q: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStorage) SetItem(ctx context.Context, key string, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO local_storage (profile, key, value, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		s.profile, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set storage item %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM local_storage WHERE profile = $1 AND key = $2`, s.profile, key)
	if err != nil {
		return fmt.Errorf("remove storage item %q: %w", key, err)
	}
	return nil
}
