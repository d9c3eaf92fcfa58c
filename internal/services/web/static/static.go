// Package static embeds the web surface's client assets.
package static

import "embed"

// FS holds the embedded static assets served under /static/.
//
//go:embed app.js app.css
var FS embed.FS
