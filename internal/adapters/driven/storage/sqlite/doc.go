// Package sqlite provides the durable store backing the cache and
// repository records. It uses modernc.org/sqlite (pure Go, no cgo) with WAL
// mode and versioned migrations embedded at compile time.
package sqlite
