// Copyright 2026 fanjia1024
// Secret management abstraction

package secrets

import (
	"context"
	"fmt"
	"strings"
)

// RefPrefix 配置中引用 secret 的前缀，如 api_key: "secret:gemini_api_key"
const RefPrefix = "secret:"

// Store Secret 存储接口
type Store interface {
	// Get 获取 secret 值
	Get(ctx context.Context, key string) (string, error)
}

// Writer 可写的 Store（memory / env）
type Writer interface {
	Store
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// Config Secret Store 配置
type Config struct {
	Provider string      // env | memory | file | vault，空则 env
	Vault    VaultConfig // Provider 为 vault 时使用
	File     FileConfig  // Provider 为 file 时使用
}

// NewStore 创建 Secret Store
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case "", "env":
		return NewEnvStore(), nil
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(config.File)
	case "vault":
		return NewVaultStore(config.Vault)
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", config.Provider)
	}
}

// IsRef 判断配置值是否为 secret 引用
func IsRef(value string) bool {
	return strings.HasPrefix(value, RefPrefix)
}

// Resolve 若 value 为 secret 引用则从 store 读取，否则原样返回
func Resolve(ctx context.Context, store Store, value string) (string, error) {
	if !IsRef(value) {
		return value, nil
	}
	key := strings.TrimSpace(strings.TrimPrefix(value, RefPrefix))
	if key == "" {
		return "", fmt.Errorf("empty secret reference")
	}
	if store == nil {
		return "", fmt.Errorf("secret %q referenced but no secret store configured", key)
	}
	v, err := store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve secret %q: %w", key, err)
	}
	return v, nil
}
