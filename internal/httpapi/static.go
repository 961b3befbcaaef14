package httpapi

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"chatd/internal/common/fsutil"
)

// mountUI serves the browser client from opts.StaticDir. The directory is an
// external collaborator; missing pages answer 404 without revealing paths.
func (s *Server) mountUI(r chi.Router) {
	dir, err := fsutil.ExpandHome(s.opts.StaticDir)
	if err != nil {
		s.log.Warn().Err(err).Msg("static dir not usable")
		dir = ""
	}
	r.Get("/", s.servePage(dir, "index.html"))
	r.Get("/dashboard", s.servePage(dir, "dashboard.html"))

	assets := filepath.Join(dir, "static")
	if dir != "" && fsutil.IsDir(assets) {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(assets))))
	}
}

func (s *Server) servePage(dir, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dir == "" {
			writeJSONError(w, http.StatusNotFound, name+" not found")
			return
		}
		log := s.requestLogger(r)
		p := filepath.Join(dir, "templates", name)
		if !fsutil.IsFile(p) {
			log.Warn().Str("file", p).Msg("page not found")
			writeJSONError(w, http.StatusNotFound, name+" not found")
			return
		}
		f, err := os.Open(p)
		if err != nil {
			log.Error().Err(err).Msg("open page")
			writeJSONError(w, http.StatusNotFound, name+" not found")
			return
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil {
			writeJSONError(w, http.StatusNotFound, name+" not found")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, name, st.ModTime(), f)
	}
}
