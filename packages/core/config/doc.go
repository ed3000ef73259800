// Package config handles configuration loading and management for nbtest.
//
// It provides functionality for:
//   - Loading configuration from .nbtest.yaml, .nbtest.json or .nbtest.toml files
//   - Validating configuration documents against an embedded JSON schema
//   - Default configuration values and merging CLI overrides
package config
