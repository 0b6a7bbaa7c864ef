// Package driving lists what the front ends may ask of the core.
//
// The CLI, the HTTP API, the MCP server and the TUI hold these interfaces
// and nothing else from the core. internal/core/services implements them.
package driving
