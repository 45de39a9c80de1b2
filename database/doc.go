// Package database opens the GORM connection that backs the account store.
//
// Two drivers are supported: sqlite (the default, a file or ":memory:") and
// postgres. The connection is retried with linear backoff on startup, pooled
// per Config, and logged through careerauth's logger. Component wires it
// into the lifecycle registry and runs AutoMigrate for registered models.
package database
