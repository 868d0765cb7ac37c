// Package driven defines the interfaces the core services require from
// infrastructure: persistence, the remote hosting provider and version
// control. Adapters under internal/adapters/driven implement them.
package driven
