// Package file loads repokeeper configuration from a TOML file, applying
// defaults for everything the file leaves unset.
package file
