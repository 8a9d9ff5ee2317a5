package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/ratelimit"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/server"
)

// LoggerService wraps the zerolog logger for DI.
type LoggerService struct {
	Logger *zerolog.Logger
}

// NewLogger creates the zerolog logger from configuration.
func NewLogger(i do.Injector) (*LoggerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)

	logger, err := server.NewLogger(cfgSvc.Get().Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &LoggerService{Logger: &logger}, nil
}

// MetricsService wraps the Prometheus counters.
type MetricsService struct {
	Metrics *server.Metrics
}

// NewMetrics creates the metrics registry.
func NewMetrics(_ do.Injector) (*MetricsService, error) {
	return &MetricsService{Metrics: server.NewMetrics()}, nil
}

// LimiterService wraps the authentication failure limiter.
// Its settings are read once at startup.
type LimiterService struct {
	Limiter ratelimit.FailureLimiter
}

// NewLimiter creates the failure limiter from configuration.
func NewLimiter(i do.Injector) (*LimiterService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)

	limiter, err := ratelimit.New(cfgSvc.Get().Server.AuthFailureLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to create failure limiter: %w", err)
	}
	return &LimiterService{Limiter: limiter}, nil
}

// Shutdown implements do.Shutdowner.
func (s *LimiterService) Shutdown() error {
	s.Limiter.Close()
	return nil
}

// HandlerService wraps the HTTP handler.
type HandlerService struct {
	Handler http.Handler
}

// NewHandler creates the HTTP handler with all middleware.
func NewHandler(i do.Injector) (*HandlerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	limiterSvc := do.MustInvoke[*LimiterService](i)
	metricsSvc := do.MustInvoke[*MetricsService](i)

	return &HandlerService{
		Handler: server.SetupRoutes(cfgSvc, limiterSvc.Limiter, metricsSvc.Metrics),
	}, nil
}

// ServerService wraps the HTTP server.
type ServerService struct {
	Server *server.Server
}

// NewHTTPServer creates the HTTP server.
func NewHTTPServer(i do.Injector) (*ServerService, error) {
	cfg := do.MustInvoke[*ConfigService](i).Get()
	handlerSvc := do.MustInvoke[*HandlerService](i)

	return &ServerService{
		Server: server.NewServer(
			cfg.Server.Listen,
			handlerSvc.Handler,
			cfg.Server.EnableHTTP2,
			cfg.Server.GetTimeoutOption().OrElse(0),
		),
	}, nil
}

// Shutdown implements do.Shutdowner for graceful server shutdown.
func (s *ServerService) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Server.Shutdown(ctx)
}
