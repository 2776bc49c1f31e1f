package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux registers the health check and, when staticDir is set, serves its
// files under /static/. Feature routes are added by the caller.
func NewMux(db *sql.DB, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	if staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	return mux
}
