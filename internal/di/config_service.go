package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/config"
)

// ConfigService holds the live configuration and its file watcher.
type ConfigService struct {
	Runtime *config.Runtime
	watcher *config.Watcher
	path    string
}

// Get returns the current configuration snapshot.
func (c *ConfigService) Get() *config.Config {
	return c.Runtime.Get()
}

// StartWatching swaps in each valid configuration written to the file
// until ctx is canceled. Invalid files are logged and skipped.
func (c *ConfigService) StartWatching(ctx context.Context) {
	if c.watcher == nil {
		return
	}

	c.watcher.OnReload(func(cfg *config.Config) error {
		c.Runtime.Store(cfg)
		log.Info().
			Str("path", c.path).
			Uint64("reloads", c.Runtime.Reloads()).
			Msg("config hot-reloaded")
		return nil
	})

	go func() {
		if err := c.watcher.Watch(ctx); err != nil {
			log.Error().Err(err).Msg("config watcher error")
		}
	}()

	log.Info().Str("path", c.path).Msg("config file watcher started")
}

// Shutdown implements do.Shutdowner.
func (c *ConfigService) Shutdown() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// NewConfig loads and validates the configuration and creates a watcher.
// The watcher is not started; call StartWatching after the container is built.
func NewConfig(i do.Injector) (*ConfigService, error) {
	path := do.MustInvokeNamed[string](i, ConfigPathKey)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	svc := &ConfigService{
		Runtime: config.NewRuntime(cfg),
		path:    path,
	}

	watcher, err := config.NewWatcher(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config watcher creation failed, hot-reload disabled")
	} else {
		svc.watcher = watcher
	}

	return svc, nil
}

var _ config.RuntimeConfig = (*ConfigService)(nil)
