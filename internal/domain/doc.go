// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (emotion.go, user.go, analysis.go, stats.go, errors.go) hold
// shared types and the repository contracts. No implementation code - just contracts.
// Interfaces live here so adapters and the app layer never import each other.
package domain
