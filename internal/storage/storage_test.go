package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	Items []string `json:"items"`
	Count int      `json:"count"`
}

func TestPersistedRoundTrip(t *testing.T) {
	backend := NewMemory()
	p := NewPersisted[testState](backend, "test-storage", 1, nil)

	_, found, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)

	want := testState{Items: []string{"a", "b"}, Count: 2}
	require.NoError(t, p.Save(context.Background(), want))

	got, found, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestPersistedMigration(t *testing.T) {
	backend := NewMemory()
	require.NoError(t, backend.Save(context.Background(), "test-storage", []byte(`{"state":{"items":["x"],"legacy":3},"version":1}`)))

	migrated := false
	p := NewPersisted[testState](backend, "test-storage", 2, func(state map[string]any, fromVersion int) (map[string]any, error) {
		migrated = true
		assert.Equal(t, 1, fromVersion)
		state["count"] = state["legacy"]
		delete(state, "legacy")
		return state, nil
	})

	got, found, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, migrated)
	assert.Equal(t, testState{Items: []string{"x"}, Count: 3}, got)

	// 迁移结果已经写回，再次加载不会再迁移
	data, err := backend.Load(context.Background(), "test-storage")
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, 2, env.Version)

	migrated = false
	got, found, err = p.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, migrated)
	assert.Equal(t, testState{Items: []string{"x"}, Count: 3}, got)
}

func TestPersistedMigrationWriteBackError(t *testing.T) {
	backend := NewMemory()
	require.NoError(t, backend.Save(context.Background(), "k", []byte(`{"state":{"items":["x"]},"version":1}`)))
	backend.SaveErr = errors.New("disk full")

	p := NewPersisted[testState](backend, "k", 2, func(state map[string]any, _ int) (map[string]any, error) {
		return state, nil
	})
	_, _, err := p.Load(context.Background())
	assert.Error(t, err)
}

func TestPersistedMigrationError(t *testing.T) {
	backend := NewMemory()
	require.NoError(t, backend.Save(context.Background(), "k", []byte(`{"state":{},"version":0}`)))

	p := NewPersisted[testState](backend, "k", 1, func(map[string]any, int) (map[string]any, error) {
		return nil, errors.New("boom")
	})

	_, _, err := p.Load(context.Background())
	assert.Error(t, err)
}

func TestPersistedRejectsNewerVersion(t *testing.T) {
	backend := NewMemory()
	require.NoError(t, backend.Save(context.Background(), "k", []byte(`{"state":{},"version":5}`)))

	p := NewPersisted[testState](backend, "k", 1, nil)
	_, _, err := p.Load(context.Background())
	assert.Error(t, err)
}

func TestPersistedCorruptData(t *testing.T) {
	backend := NewMemory()
	require.NoError(t, backend.Save(context.Background(), "k", []byte(`not json`)))

	p := NewPersisted[testState](backend, "k", 1, nil)
	_, _, err := p.Load(context.Background())
	assert.Error(t, err)
}

func TestMemorySaveErr(t *testing.T) {
	backend := NewMemory()
	backend.SaveErr = errors.New("disk full")

	err := backend.Save(context.Background(), "k", []byte("x"))
	assert.Error(t, err)

	_, err = backend.Load(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

// fakeRedis 只实现 Get 和 Set，其余方法调用会 panic
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func TestRedisBackend(t *testing.T) {
	client := &fakeRedis{data: map[string]string{}}
	backend := NewRedis(client, "mm:", time.Second)

	_, err := backend.Load(context.Background(), "job-management-storage")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.Save(context.Background(), "job-management-storage", []byte(`{"version":2}`)))
	assert.Contains(t, client.data, "mm:job-management-storage")

	data, err := backend.Load(context.Background(), "job-management-storage")
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, string(data))
}
