// Copyright 2026 fanjia1024
// Environment variable based secret store

package secrets

import (
	"context"
	"fmt"
	"os"
)

type envStore struct{}

// NewEnvStore 创建环境变量 secret store
func NewEnvStore() Writer {
	return &envStore{}
}

func (e *envStore) Get(ctx context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("environment variable not set: %s", key)
	}
	return value, nil
}

func (e *envStore) Set(ctx context.Context, key string, value string) error {
	return os.Setenv(key, value)
}

func (e *envStore) Delete(ctx context.Context, key string) error {
	return os.Unsetenv(key)
}
