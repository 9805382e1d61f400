// Package pg manages the PostgreSQL connection pool: pgx pool setup with
// startup retries, goose migrations routed through the application
// logger, error classification helpers, and a health check closure.
package pg
