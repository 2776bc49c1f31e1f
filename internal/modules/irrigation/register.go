package irrigation

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/cache"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/controller"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/repository"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/service"
)

type Options struct {
	TimeColumn     string
	MaxUploadBytes int64
	BannerURL      string
	// Publisher receives the most recent recommendation after each upload.
	// Nil disables publishing.
	Publisher service.Publisher
	Logger    *slog.Logger
}

// RegisterFeature wires the upload store, parse cache and analysis service
// into the dashboard and JSON routes on mux.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, opts Options) *service.Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loadOpts := analysis.LoadOptions{TimeColumn: opts.TimeColumn}
	tables := cache.New(func(raw []byte) (*analysis.Table, error) {
		return analysis.LoadBytes(raw, loadOpts)
	}, logger.With("component", "cache"))

	irrigationRepository := repository.NewRepository(db)
	irrigationService := service.NewService(irrigationRepository, tables, opts.Publisher, logger.With("component", "service"))
	irrigationController := controller.NewIrrigationController(irrigationService, controller.Options{
		MaxUploadBytes: opts.MaxUploadBytes,
		BannerURL:      opts.BannerURL,
	})
	irrigationController.RegisterRoutes(mux)
	return irrigationService
}
