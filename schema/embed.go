// Package schema provides embedded JSON schemas for closeness configuration,
// fixture tensors and comparison cases.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS
