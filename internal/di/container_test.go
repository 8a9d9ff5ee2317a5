package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/ratelimit"
)

// validConfig is a minimal valid configuration for testing.
const validConfig = `
server:
  listen: "127.0.0.1:0"
  require_https: false
  auth_failure_limit:
    per_minute: 5
logging:
  level: info
  format: json
network_session:
  wiki_id: enwiki
  principals:
    - username: Bot
      token: secret
      ip_ranges: ["127.0.0.1"]
accounts:
  users:
    - name: Bot
      rights: [read]
`

// createTempConfigFile creates a temporary config file for testing.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewContainer(t *testing.T) {
	t.Run("creates container with valid config", func(t *testing.T) {
		container, err := NewContainer(createTempConfigFile(t, validConfig))
		require.NoError(t, err)
		require.NotNil(t, container)
		assert.NotNil(t, container.Injector())

		assert.NoError(t, container.Shutdown())
	})

	t.Run("missing file fails fast", func(t *testing.T) {
		_, err := NewContainer(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})

	t.Run("invalid config fails fast", func(t *testing.T) {
		_, err := NewContainer(createTempConfigFile(t, "server:\n  listen: \"\"\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.listen is required")
	})
}

func TestContainerInvoke(t *testing.T) {
	configPath := createTempConfigFile(t, validConfig)
	container, err := NewContainer(configPath)
	require.NoError(t, err)
	defer container.Shutdown()

	t.Run("Invoke resolves config service", func(t *testing.T) {
		cfgSvc, err := Invoke[*ConfigService](container)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:0", cfgSvc.Get().Server.Listen)
		assert.Equal(t, "enwiki", cfgSvc.Get().NetworkSession.WikiID)
	})

	t.Run("MustInvoke resolves logger service", func(t *testing.T) {
		loggerSvc := MustInvoke[*LoggerService](container)
		assert.NotNil(t, loggerSvc.Logger)
	})

	t.Run("InvokeNamed resolves config path", func(t *testing.T) {
		path, err := InvokeNamed[string](container, ConfigPathKey)
		require.NoError(t, err)
		assert.Equal(t, configPath, path)
	})

	t.Run("limiter follows config", func(t *testing.T) {
		limiterSvc := MustInvoke[*LimiterService](container)
		_, ok := limiterSvc.Limiter.(*ratelimit.BucketLimiter)
		assert.True(t, ok)
	})

	t.Run("services are singletons", func(t *testing.T) {
		assert.Same(t, MustInvoke[*MetricsService](container), MustInvoke[*MetricsService](container))
	})

	t.Run("health check passes", func(t *testing.T) {
		assert.NoError(t, container.HealthCheck())
	})
}

func TestContainer_HandlerAuthenticates(t *testing.T) {
	container, err := NewContainer(createTempConfigFile(t, validConfig))
	require.NoError(t, err)
	defer container.Shutdown()

	handler := MustInvoke[*HandlerService](container).Handler

	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", http.NoBody)
	req.RemoteAddr = "127.0.0.1:5555"
	req.Header.Set("Authorization", "NetworkSession secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"Bot"`)
}

func TestContainer_DisabledLimiter(t *testing.T) {
	content := "server:\n  listen: \"127.0.0.1:0\"\n"
	container, err := NewContainer(createTempConfigFile(t, content))
	require.NoError(t, err)
	defer container.Shutdown()

	limiterSvc := MustInvoke[*LimiterService](container)
	_, ok := limiterSvc.Limiter.(ratelimit.NoopLimiter)
	assert.True(t, ok)
}

func TestConfigService_StartWatching(t *testing.T) {
	configPath := createTempConfigFile(t, validConfig)
	container, err := NewContainer(configPath)
	require.NoError(t, err)
	defer container.Shutdown()

	cfgSvc := MustInvoke[*ConfigService](container)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfgSvc.StartWatching(ctx)

	// Give the watcher goroutine time to enter its loop.
	time.Sleep(50 * time.Millisecond)

	updated := []byte(validConfig + "  autocreate: true\n")
	require.NoError(t, os.WriteFile(configPath, updated, 0o600))

	assert.Eventually(t, func() bool {
		return cfgSvc.Get().Accounts.Autocreate
	}, 2*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, cfgSvc.Runtime.Reloads(), uint64(1))
}

func TestContainerShutdown(t *testing.T) {
	t.Run("shutdown cleans up initialized services", func(t *testing.T) {
		container, err := NewContainer(createTempConfigFile(t, validConfig))
		require.NoError(t, err)

		_ = MustInvoke[*ServerService](container)
		assert.NoError(t, container.Shutdown())
	})

	t.Run("shutdown with context", func(t *testing.T) {
		container, err := NewContainer(createTempConfigFile(t, validConfig))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, container.ShutdownWithContext(ctx))
	})
}
