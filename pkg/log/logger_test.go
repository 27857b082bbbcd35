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
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "info"}).With("request_id", "r-1")
	l.Debug("hidden")
	l.Info("step done", "tool", "draft")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "step done", rec["msg"])
	assert.Equal(t, "r-1", rec["request_id"])
	assert.Equal(t, "draft", rec["tool"])
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewLogger(&Config{Format: "text", File: path})
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "msg=hello")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, nil)
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx, nil))

	fallback := Discard()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))
	assert.NotNil(t, FromContext(context.Background(), nil))
}
