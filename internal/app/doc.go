// Package app provides the application service layer.
//
// Orchestrates use cases: scoring and storing analyses, per-user history and
// statistics, the cached public counters, and user upserts on login.
// Sits between HTTP handlers and domain repositories. Depends on domain interfaces, not concrete implementations.
package app
