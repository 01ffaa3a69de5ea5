// Package web embeds the dashboard page served by the API server.
//
// The page lists stored runs, shows the charts of the selected run and
// follows new runs over the websocket.
//
//	import "github.com/Tarini2005/Financial-News-Impact-Analyzer/web"
//	fs := web.DistFS() // io/fs.FS rooted at static/
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed all:static
var dist embed.FS

// DistFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func DistFS() fs.FS {
	sub, err := fs.Sub(dist, "static")
	if err != nil {
		log.Fatalf("web.DistFS: %v", err)
	}
	return sub
}
