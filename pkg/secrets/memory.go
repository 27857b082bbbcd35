// Copyright 2026 fanjia1024
// In-memory secret store (for development and tests)

package secrets

import (
	"context"
	"fmt"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryStore 创建内存 secret store
func NewMemoryStore() Writer {
	return &memoryStore{
		secrets: make(map[string]string),
	}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.secrets[key]
	if !ok {
		return "", fmt.Errorf("secret not found: %s", key)
	}
	return value, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[key] = value
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, key)
	return nil
}
