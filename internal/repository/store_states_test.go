package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// 需要设置 TEST_DATABASE_DSN 指向一个可以随意读写的数据库，否则跳过
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("未设置 TEST_DATABASE_DSN")
	}

	dbpool, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { dbpool.Close() })

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5

	repo := NewRepository(cfg, dbpool)
	require.NoError(t, repo.EnsureSchema(context.Background()))

	_, err = dbpool.Exec(`DELETE FROM store_states WHERE key LIKE 'test-%'`)
	require.NoError(t, err)
	return repo
}

func TestStoreStatesRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Load(ctx, "test-jobs")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, repo.Save(ctx, "test-jobs", []byte(`{"state":{"jobs":[]},"version":2}`)))
	require.NoError(t, repo.Save(ctx, "test-jobs", []byte(`{"state":{"jobs":[{"id":"a"}]},"version":2}`)))

	data, err := repo.Load(ctx, "test-jobs")
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"jobs":[{"id":"a"}]},"version":2}`, string(data))

	keys, err := repo.ListKeys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "test-jobs")
}

func TestStoreStatesWithPersisted(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	type state struct {
		Items []string `json:"items"`
	}
	p := storage.NewPersisted[state](repo, "test-items", 1, nil)
	require.NoError(t, p.Save(ctx, state{Items: []string{"灯管"}}))

	loaded, found, err := p.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"灯管"}, loaded.Items)
}
