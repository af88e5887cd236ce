// Package webui embeds the upload page served at / by glb serve.
package webui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFS embed.FS

// StaticFS returns an http.FileSystem for the embedded static files.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The embed path is fixed at compile time.
		panic(err)
	}
	return http.FS(sub)
}
