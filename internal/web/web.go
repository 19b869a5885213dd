package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
)

//go:embed ui
var content embed.FS

// Handler returns an http.Handler that serves the web UI.
//
// When dir is non-empty and exists, assets are served from disk so the UI
// can be edited without a rebuild. Otherwise the embedded copy is used.
// Requests for files that do not exist receive index.html.
// Panics if the embedded assets cannot be loaded (build error).
func Handler(dir string) http.Handler {
	var fileSystem http.FileSystem

	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			fileSystem = http.Dir(dir)
		}
	}

	if fileSystem == nil {
		uiFS, err := fs.Sub(content, "ui")
		if err != nil {
			panic(fmt.Sprintf("web: failed to load embedded assets: %v", err))
		}
		fileSystem = http.FS(uiFS)
	}

	fileServer := http.FileServer(fileSystem)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		upath := path.Clean("/" + r.URL.Path)
		if upath == "/" {
			fileServer.ServeHTTP(w, r)
			return
		}

		f, err := fileSystem.Open(upath)
		if err != nil {
			serveIndex(w, r, fileServer)
			return
		}
		info, statErr := f.Stat()
		f.Close()
		if statErr != nil || info.IsDir() {
			serveIndex(w, r, fileServer)
			return
		}

		fileServer.ServeHTTP(w, r)
	})
}

// serveIndex answers with index.html for client-side routes.
func serveIndex(w http.ResponseWriter, r *http.Request, fileServer http.Handler) {
	r2 := r.Clone(r.Context())
	r2.URL.Path = "/"
	fileServer.ServeHTTP(w, r2)
}
