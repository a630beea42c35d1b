// Package migrations contains the embedded SQL schema, one directory per driver.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
