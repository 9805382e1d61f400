// Package httpserver wraps net/http with graceful shutdown, signal
// handling, functional options, and probe handlers.
//
// Typical use:
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run blocks until the context is cancelled, SIGINT/SIGTERM arrives, or
// the listener fails. Shutdown is bounded by the configured shutdown
// timeout.
package httpserver
