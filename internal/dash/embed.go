package dash

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var staticFiles embed.FS

// staticFS returns the embedded UI rooted at static/, so index.html serves at /.
func staticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
