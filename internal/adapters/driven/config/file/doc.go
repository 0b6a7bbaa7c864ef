// Package file provides file-based configuration for sercha-kb.
//
// Adapters:
//   - Config: TOML or YAML application configuration with environment secrets
//   - PromptStore: user-editable prompt templates with embedded defaults
package file
