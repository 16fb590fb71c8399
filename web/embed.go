package web

import "embed"

// TemplatesFS embeds the upload and dashboard pages.
//go:embed templates/*.html
var TemplatesFS embed.FS
