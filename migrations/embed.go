// Package migrations embeds the SQL schema migrations so the migrate binary
// and the API server can apply them without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
