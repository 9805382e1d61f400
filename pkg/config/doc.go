// Package config loads typed configuration structs from environment
// variables (and an optional .env file in development) using caarlos0/env
// struct tags. Loaded configs are cached per type so repeated loads are
// cheap and consistent.
package config
