// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files holds the browser viewer served at "/". The viewer opens an
// orthographic session on /api/globe/ws and draws the frames it receives.
//
//go:embed viewer
var Files embed.FS
