// Package storage 提供 store 状态的持久化：每个 store 以一个带版本号的 JSON 块保存在某个 key 下
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("持久化数据不存在")

// Backend 是按 key 读写字节块的持久化后端
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// MigrateFunc 把 fromVersion 版本的原始状态升级到当前版本
type MigrateFunc func(state map[string]any, fromVersion int) (map[string]any, error)

type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Persisted 负责某个 store 状态的编码、版本迁移和读写
type Persisted[S any] struct {
	backend Backend
	key     string
	version int
	migrate MigrateFunc
}

func NewPersisted[S any](backend Backend, key string, version int, migrate MigrateFunc) *Persisted[S] {
	return &Persisted[S]{
		backend: backend,
		key:     key,
		version: version,
		migrate: migrate,
	}
}

func (p *Persisted[S]) Key() string {
	return p.key
}

func (p *Persisted[S]) Version() int {
	return p.version
}

// Load 读取并解码状态，found 为 false 表示后端中还没有这个 key
func (p *Persisted[S]) Load(ctx context.Context) (state S, found bool, err error) {
	data, err := p.backend.Load(ctx, p.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return state, false, nil
		}
		return state, false, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return state, false, fmt.Errorf("无法解析 %s: %w", p.key, err)
	}

	raw := []byte(env.State)
	if env.Version > p.version {
		return state, false, fmt.Errorf("%s 的版本 %d 高于当前支持的版本 %d", p.key, env.Version, p.version)
	}
	if env.Version < p.version && p.migrate != nil {
		generic := map[string]any{}
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &generic); err != nil {
				return state, false, fmt.Errorf("无法解析 %s 的旧版本状态: %w", p.key, err)
			}
		}
		migrated, err := p.migrate(generic, env.Version)
		if err != nil {
			return state, false, fmt.Errorf("%s 从版本 %d 迁移失败: %w", p.key, env.Version, err)
		}
		if raw, err = json.Marshal(migrated); err != nil {
			return state, false, err
		}
	}

	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &state); err != nil {
			return state, false, fmt.Errorf("无法解码 %s: %w", p.key, err)
		}
	}

	// 迁移后立即写回，之后的加载不再重复迁移
	if env.Version < p.version {
		if err := p.Save(ctx, state); err != nil {
			return state, false, fmt.Errorf("无法写回迁移后的 %s: %w", p.key, err)
		}
	}

	return state, true, nil
}

func (p *Persisted[S]) Save(ctx context.Context, state S) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope{State: raw, Version: p.version})
	if err != nil {
		return err
	}

	return p.backend.Save(ctx, p.key, data)
}
