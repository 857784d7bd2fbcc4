// Package migrations embeds the goose SQL migrations for the fleet schema.
// cmd/hosctl applies them; repo integration tests run them in TestMain.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
