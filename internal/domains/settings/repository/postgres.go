package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roastery-backend/internal/domains/settings"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) settings.Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Get(ctx context.Context, key string) (*settings.Setting, error) {
	var s settings.Setting
	err := r.pool.QueryRow(ctx,
		`SELECT key, value, updated_by, updated_at FROM app_settings WHERE key = $1`, key,
	).Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settings.ErrSettingNotFound
		}
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	return &s, nil
}

func (r *postgresRepository) Upsert(ctx context.Context, key string, value json.RawMessage, actor *uuid.UUID) (*settings.Setting, error) {
	query := `
		INSERT INTO app_settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = NOW()
		RETURNING key, value, updated_by, updated_at
	`
	var s settings.Setting
	err := r.pool.QueryRow(ctx, query, key, []byte(value), actor).
		Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return &s, nil
}
