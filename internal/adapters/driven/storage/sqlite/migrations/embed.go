// Package migrations holds the numbered up/down scripts applied by the sqlite store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
