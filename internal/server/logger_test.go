package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/config"
)

func TestNewLogger_Level(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNewLogger_FileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ns.log")
	logger, err := NewLogger(config.LoggingConfig{Output: path, Format: "json"})
	require.NoError(t, err)

	logger.Info().Str("k", "v").Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestNewLogger_BadOutput(t *testing.T) {
	t.Parallel()

	_, err := NewLogger(config.LoggingConfig{Output: filepath.Join(t.TempDir(), "missing", "ns.log")})
	assert.Error(t, err)
}

func TestUsePretty(t *testing.T) {
	t.Parallel()

	assert.True(t, usePretty(config.LoggingConfig{Pretty: true, Format: "json"}, nil))
	assert.True(t, usePretty(config.LoggingConfig{Format: "pretty"}, nil))
	assert.False(t, usePretty(config.LoggingConfig{Format: "json"}, nil))
	assert.False(t, usePretty(config.LoggingConfig{}, nil))
	assert.False(t, usePretty(config.LoggingConfig{Format: "console"}, nil))
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	ctx := AddRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", GetRequestID(ctx))

	generated := GetRequestID(AddRequestID(context.Background(), ""))
	assert.Len(t, generated, 36)

	assert.Empty(t, GetRequestID(context.Background()))
}
