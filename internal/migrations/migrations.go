// Package migrations embeds the goose SQL migrations for the Postgres
// backends (accounts, feed and the acknowledgement ledger).
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
