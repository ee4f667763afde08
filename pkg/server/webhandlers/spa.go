// Package webhandlers serves the single-page frontend and proxies the
// document comparison service it talks to.
package webhandlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/lexalign/concordance/internal"
)

var log = internal.GetLogger()

const indexFile = "index.html"

// SPARoutes are client-side routes answered with index.html.
var SPARoutes = []string{"/", "/home", "/newcheck", "/concordance-check*"}

// IndexHandler always serves the frontend's index.html.
func IndexHandler(staticDir string) http.HandlerFunc {
	index := filepath.Join(staticDir, indexFile)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, index)
	}
}

// StaticHandler serves files below staticDir. Unknown paths without an
// extension fall back to index.html so that deep links into the SPA work.
func StaticHandler(staticDir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(staticDir))
	index := IndexHandler(staticDir)
	return func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		info, err := os.Stat(filepath.Join(staticDir, filepath.FromSlash(clean)))
		switch {
		case err == nil && !info.IsDir():
			files.ServeHTTP(w, r)
		case path.Ext(clean) == "" && (r.Method == http.MethodGet || r.Method == http.MethodHead):
			index(w, r)
		default:
			log.Debugf("static file not found: %s", clean)
			http.NotFound(w, r)
		}
	}
}
