// Package services implements the core engine logic: remote repository
// detection with cached listings, marker-region document merging, debounced
// file watching and the orchestrator tying them to version control.
package services
