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

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger 简单封装，供 internal 使用
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// Config 日志配置（可与 config 包对接）
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type ctxKey struct{}

// ParseLevel 将配置中的级别字符串转换为 slog.Level，未知值为 info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger 根据配置创建 Logger，cfg 可为 nil 使用默认；File 非空时追加写入该文件
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	var out io.Writer = os.Stdout
	var closer io.Closer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", cfg.File, err)
		}
		out, closer = f, f
	}
	l := NewWithWriter(out, cfg)
	l.closer = closer
	return l, nil
}

// NewWithWriter 输出到指定 writer，测试中常用
func NewWithWriter(w io.Writer, cfg *Config) *Logger {
	level := slog.LevelInfo
	format := ""
	if cfg != nil {
		level = ParseLevel(cfg.Level)
		format = cfg.Format
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if format == "text" {
		h = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(h)}
}

// Discard 丢弃所有输出的 Logger
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// With 返回附加属性后的 Logger
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Close 关闭日志文件（若有）
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// WithContext 将 Logger 放入 context
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext 取出 context 中的 Logger，没有则返回 fallback（fallback 为 nil 时返回 Discard）
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return Discard()
}
