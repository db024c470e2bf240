// Package migrations embeds the goose SQL migrations for the on-device
// SQLite store (local/) and the remote Postgres sync target (remote/).
package migrations

import "embed"

//go:embed local/*.sql
var Local embed.FS

//go:embed remote/*.sql
var Remote embed.FS
