// Package migrations embeds the SQL migrations for every supported dialect.
package migrations

import "embed"

// FS holds one directory per driver: mysql/ and sqlite/.
//
//go:embed mysql/*.sql sqlite/*.sql
var FS embed.FS
