// Package migrations embeds the goose SQL migrations for the refresh-token
// schema. Apply them with goose.SetBaseFS(migrations.FS) followed by
// goose.UpContext.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
