// Package git implements the version control port by shelling out to the
// git binary through a pluggable command executor, so the commit and push
// pipeline can run against mocked commands in tests.
package git
