// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultFileDir 容器内 secret 的默认挂载目录（docker / kubernetes）
const DefaultFileDir = "/run/secrets"

// FileConfig 文件 secret store 配置
type FileConfig struct {
	Dir string // 每个 secret 一个文件，文件名即 key；空则 DefaultFileDir
}

// fileStore 从挂载目录读取 secret，读到的值会缓存
type fileStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]string
}

// NewFileStore 创建文件 secret store；目录不存在时返回错误
func NewFileStore(config FileConfig) (Store, error) {
	dir := config.Dir
	if dir == "" {
		dir = DefaultFileDir
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("secrets dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets dir %s is not a directory", dir)
	}
	return &fileStore{dir: dir, cache: make(map[string]string)}, nil
}

func (f *fileStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid secret key: %q", key)
	}
	f.mu.RLock()
	if v, ok := f.cache[key]; ok {
		f.mu.RUnlock()
		return v, nil
	}
	f.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(f.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("secret not found: %s", key)
		}
		return "", err
	}
	// 挂载文件通常带结尾换行
	v := strings.TrimRight(string(data), "\r\n")

	f.mu.Lock()
	f.cache[key] = v
	f.mu.Unlock()
	return v, nil
}
