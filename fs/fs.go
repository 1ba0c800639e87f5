// Package appfs holds assets shipped with the application binary.
package appfs

import "embed"

//go:embed migrations
var Migrations embed.FS

//go:embed all:templates
var Templates embed.FS
