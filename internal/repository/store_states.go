package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
)

var _ storage.Backend = (*Repository)(nil)

func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS store_states (
			key        TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			version    INTEGER NOT NULL DEFAULT 1
		)
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query)
	return err
}

func (r *Repository) Load(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT data FROM store_states WHERE key = $1
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var data []byte
	if err := r.dbpool.QueryRowContext(ctx, query, key).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return data, nil
}

func (r *Repository) Save(ctx context.Context, key string, data []byte) error {
	// version 列只记录写入次数，store 的 schema 版本保存在 data 里
	query := `
		INSERT INTO store_states (key, data)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET
			data = EXCLUDED.data,
			updated_at = NOW(),
			version = store_states.version + 1
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, key, data); err != nil {
		return err
	}

	return nil
}

// ListKeys 返回所有已保存的 key 及其最后更新时间，供 seed 工具查看
func (r *Repository) ListKeys(ctx context.Context) (map[string]time.Time, error) {
	query := `
		SELECT key, updated_at FROM store_states ORDER BY key
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]time.Time)
	for rows.Next() {
		var key string
		var updatedAt time.Time
		if err := rows.Scan(&key, &updatedAt); err != nil {
			return nil, err
		}
		keys[key] = updatedAt
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}
