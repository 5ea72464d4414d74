package site

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Page maps a URL path to a single file
type Page struct {
	Path string
	File string
}

// Mount serves a directory under a URL prefix
type Mount struct {
	Prefix string
	Dir    string
}

// Table is the static route table of the site
type Table struct {
	Pages  []Page
	Mounts []Mount
}

// NewTable builds the route table for a content directory and a public directory
func NewTable(contentDir, publicDir string) Table {
	pages := filepath.Join(contentDir, "main-website-pages")
	projects := filepath.Join(pages, "project-files")

	return Table{
		Pages: []Page{
			{Path: "/", File: filepath.Join(pages, "home.html")},
			{Path: "/services", File: filepath.Join(pages, "services.html")},
			{Path: "/game", File: filepath.Join(pages, "game.html")},

			{Path: "/blinkit-project", File: filepath.Join(projects, "blinkit-project.html")},
			{Path: "/smart-glasses-project", File: filepath.Join(projects, "smart-glasses-project.html")},
			{Path: "/doodle-story", File: filepath.Join(projects, "doodle-story.html")},
			{Path: "/sanket", File: filepath.Join(projects, "sanket-project.html")},
			{Path: "/assistive-wearables", File: filepath.Join(projects, "assistive-wearables.html")},
			{Path: "/handtracking", File: filepath.Join(projects, "handtracking.html")},

			{Path: "/robots.txt", File: filepath.Join(publicDir, "robots.txt")},
			{Path: "/sitemap.xml", File: filepath.Join(publicDir, "sitemap.xml")},
		},
		Mounts: []Mount{
			{Prefix: "/public", Dir: publicDir},
			{Prefix: "/partials-home", Dir: filepath.Join(contentDir, "partials-home")},
			{Prefix: "/partials-constants", Dir: filepath.Join(contentDir, "partials-constants")},
			{Prefix: "/partials-services", Dir: filepath.Join(contentDir, "partials-services")},
		},
	}
}

// Register adds every page and mount of the table to r. A bare mount
// prefix redirects to the prefix with a trailing slash.
func (t Table) Register(r chi.Router) {
	for _, page := range t.Pages {
		r.Get(page.Path, fileHandler(page.File))
	}
	for _, mount := range t.Mounts {
		prefix := strings.TrimSuffix(mount.Prefix, "/")
		r.Get(prefix, http.RedirectHandler(prefix+"/", http.StatusMovedPermanently).ServeHTTP)
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(noListingFS{http.Dir(mount.Dir)})))
	}
}

// noListingFS hides directories that have no index.html, so a mount never
// lists its contents.
type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.IsDir() {
		return f, nil
	}

	index, err := n.fs.Open(path.Join(name, "index.html"))
	if err != nil {
		f.Close()
		return nil, os.ErrNotExist
	}
	index.Close()
	return f, nil
}

// fileHandler serves a single file. A missing file gets the default 404.
func fileHandler(file string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, file)
	}
}
