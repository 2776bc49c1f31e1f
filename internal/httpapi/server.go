package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/config"
)

func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(withCORS(cfg.CORSAllowedOrigins, handler)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// withCORS lets browser clients on other origins call the JSON API. With no
// origins configured the handler is returned unchanged.
func withCORS(origins []string, next http.Handler) http.Handler {
	if len(origins) == 0 {
		return next
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(next)
}
