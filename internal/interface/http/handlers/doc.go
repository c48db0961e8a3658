// Package handlers contains reusable HTTP pieces: health checks and middleware.
//
// # Health Checks
//
// Named checks run in parallel. Optional checks (the Redis lock, for
// instance) degrade /health without failing /ready:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewPingCheck(db))
//	checker.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
//
//	status := checker.Check(ctx)
//
// # Middleware
//
//	auth := handlers.NewAPIKeyAuth("X-API-Key", keys)
//	h := handlers.Chain(handlers.RequestSizeLimitMiddleware(1<<20), auth.Middleware)(mux)
package handlers
