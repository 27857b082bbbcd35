package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mail-genie/internal/app"
	"mail-genie/internal/model/llm/llmtest"
	"mail-genie/pkg/config"
	"mail-genie/pkg/log"
)

func newBootstrap(t *testing.T, cfg *config.Config) *app.Bootstrap {
	t.Helper()
	b, err := app.NewBootstrap(context.Background(), cfg, app.WithCompleter(llmtest.New("stub")), app.WithLogger(log.Discard()))
	require.NoError(t, err)
	return b
}

func TestNewApp(t *testing.T) {
	a, err := NewApp(newBootstrap(t, &config.Config{}), "test")
	require.NoError(t, err)
	assert.NotNil(t, a.router)
	assert.NoError(t, a.Shutdown(context.Background()))
}

func TestNewApp_AuthRequiresKey(t *testing.T) {
	cfg := &config.Config{API: config.APIConfig{Middleware: config.MiddlewareConfig{Auth: true}}}
	_, err := NewApp(newBootstrap(t, cfg), "test")
	assert.Error(t, err)

	cfg.API.Middleware.JWTKey = "k"
	_, err = NewApp(newBootstrap(t, cfg), "test")
	assert.NoError(t, err)
}

func TestNewApp_NilBootstrap(t *testing.T) {
	_, err := NewApp(nil, "test")
	assert.Error(t, err)
}

func TestNewJWTFromConfig_Durations(t *testing.T) {
	cfg := &config.Config{API: config.APIConfig{Middleware: config.MiddlewareConfig{
		JWTKey: "k", JWTTimeout: "15m", JWTMaxRefresh: "bogus",
	}}}
	mw, err := NewJWTFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, mw.Timeout)
	assert.Equal(t, time.Hour, mw.MaxRefresh)
}
