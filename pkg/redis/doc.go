// Package redis connects to Redis with startup retries and exposes a
// health check closure. The webhook deduper in modules/billing is the
// primary consumer.
package redis
