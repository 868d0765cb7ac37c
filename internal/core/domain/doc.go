// Package domain defines the core business entities for repokeeper.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Repository: A remote repository and its classification
//   - Category: A classification bucket with a rendered index document
//   - IndexEntry: One repository line inside a document's marker region
//   - MonitoredFile: Per-file change-detection state machine
//   - CommitResult: Outcome of a commit-and-push run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
