// Package web embeds the page templates and static assets served by the
// ledger and analyzer pages.
package web

import "embed"

// TemplatesFS holds the page and partial templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the small HTMX glue script.
//
//go:embed static/*
var StaticFS embed.FS
