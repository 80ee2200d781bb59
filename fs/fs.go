// Package appfs embeds the SQL migrations and the email templates into the binaries.
// "all:" keeps the "_base" layouts, which embed would otherwise skip.
package appfs

import "embed"

//go:embed migrations all:templates
var FS embed.FS
