// Package migrations embeds the goose SQL migrations so the api and worker
// binaries can self-migrate on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Dir is the path passed to goose within the embedded filesystem.
const Dir = "."
