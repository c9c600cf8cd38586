// Package store persists master catalog records and review queue items in
// SQLite. All timestamps are stored as UTC RFC3339Nano strings.
package store
