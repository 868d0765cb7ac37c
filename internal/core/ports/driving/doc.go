// Package driving defines the interfaces through which outer adapters
// (CLI, service wrappers) drive the core engine.
package driving
