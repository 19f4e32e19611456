// Package migrations embeds the PostgreSQL schema of the payment store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
