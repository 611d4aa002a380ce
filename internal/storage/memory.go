package storage

import (
	"context"
	"slices"
	"sync"
)

// Memory 是仅存在于进程内的后端，用于测试和 STORAGE_BACKEND=memory
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	// 测试时可以注入写入错误
	SaveErr error
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data[key] = slices.Clone(data)
	return nil
}
