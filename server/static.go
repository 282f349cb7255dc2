package server

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const indexFile = "index.html"

// staticUI serves the built browser UI as a single page application:
// existing files are served as they are, any other path gets index.html
// so the client can route it.
type staticUI struct {
	root string
}

func newStaticUI(root string) *staticUI {
	if root != "" {
		root = filepath.Clean(root)
	}
	return &staticUI{root: root}
}

// available reports whether the UI has been built.
func (s *staticUI) available() bool {
	if s.root == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.root, indexFile))
	return err == nil
}

func (s *staticUI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.available() {
		s.serveHint(w)
		return
	}

	urlPath := path.Clean("/" + r.URL.Path)
	filePath := filepath.Join(s.root, filepath.FromSlash(urlPath))

	info, err := os.Stat(filePath)
	if err == nil && !info.IsDir() {
		http.ServeFile(w, r, filePath)
		return
	}
	if err == nil && info.IsDir() {
		if _, err := os.Stat(filepath.Join(filePath, indexFile)); err == nil {
			http.ServeFile(w, r, filepath.Join(filePath, indexFile))
			return
		}
	}

	// Paths that look like assets are not routed client-side.
	if ext := path.Ext(urlPath); ext != "" && ext != ".html" {
		http.NotFound(w, r)
		return
	}
	s.serveIndex(w, r)
}

func (s *staticUI) serveIndex(w http.ResponseWriter, r *http.Request) {
	if !s.available() {
		s.serveHint(w)
		return
	}
	// ServeFile redirects requests ending in /index.html; serve the content
	// directly instead.
	f, err := os.Open(filepath.Join(s.root, indexFile))
	if err != nil {
		http.Error(w, "index not readable", http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, "index not readable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, indexFile, info.ModTime(), f)
}

func (s *staticUI) serveHint(w http.ResponseWriter) {
	var b strings.Builder
	b.WriteString("The editor UI is not available.\n")
	if s.root != "" {
		fmt.Fprintf(&b, "Build it into %s or pass --ui-dir.\n", s.root)
	} else {
		b.WriteString("Pass --ui-dir to serve it.\n")
	}
	b.WriteString("The JSON API is served under /api.\n")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}
