// Package migrations embeds the SQL schema migrations so the binaries carry
// them and need no migrations directory at runtime.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
