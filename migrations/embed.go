// Package migrations provides the embedded migration SQL files applied on
// gateway startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
