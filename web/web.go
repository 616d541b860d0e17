// Package web embeds the server-rendered admin pages and their assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

// Templates is the file system the html view engine loads from.
func Templates() http.FileSystem {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func Static() http.FileSystem {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
