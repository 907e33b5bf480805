package di

import (
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarykit/loan-server/internal/config"
	"github.com/librarykit/loan-server/internal/di/providers"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		App:    config.AppConfig{Environment: "staging", SecretKey: config.DefaultSecretKey},
		Logger: config.LoggerConfig{Level: "error"},
		Store: config.StoreConfig{
			DataPath:    dir,
			Driver:      config.StoreDriverSQLite,
			DatabaseURL: filepath.Join(dir, "library.db"),
		},
		Server: config.ServerConfig{
			Port:         "0",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
		RateLimit: config.RateLimitConfig{RPS: 100, Burst: 100},
	}
}

func TestBootstrap_ServesHealth(t *testing.T) {
	injector := NewContainer()
	do.OverrideValue(injector, testConfig(t))

	require.NoError(t, Bootstrap(injector))

	srv := do.MustInvoke[*providers.HTTPServerHandle](injector)
	_, port, err := net.SplitHostPort(srv.ListenAddr())
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	limiter := do.MustInvoke[*providers.RateLimiterHandle](injector)
	assert.NotNil(t, limiter.Limiter)

	injector.Shutdown()
}

func TestBootstrap_InvalidStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "mysql"

	injector := NewContainer()
	do.OverrideValue(injector, cfg)

	assert.Error(t, Bootstrap(injector))
}
