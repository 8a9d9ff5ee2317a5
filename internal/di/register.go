package di

import "github.com/samber/do/v2"

// RegisterSingletons registers all service providers as singletons.
// Dependency order:
// 1. Config (no dependencies)
// 2. Logger (Config)
// 3. Metrics (no dependencies)
// 4. Limiter (Config)
// 5. Handler (Config, Limiter, Metrics)
// 6. Server (Config, Handler).
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewConfig)
	do.Provide(i, NewLogger)
	do.Provide(i, NewMetrics)
	do.Provide(i, NewLimiter)
	do.Provide(i, NewHandler)
	do.Provide(i, NewHTTPServer)
}
