// Package logger builds slog loggers with per-environment defaults,
// static service attributes, and context extractors that surface
// request-scoped values (request IDs, user IDs) on every record.
package logger
