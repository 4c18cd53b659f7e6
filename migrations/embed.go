// Package migrations embeds the versioned postgres schema of the catalog
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files
//
//go:embed *.sql
var FS embed.FS
