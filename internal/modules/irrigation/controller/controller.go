package controller

import (
	"net/http"
	"time"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/types"
)

// IrrigationService is what the handlers need from the service layer.
type IrrigationService interface {
	Upload(sessionID, filename string, raw []byte) (types.Upload, *analysis.Table, error)
	Current(sessionID string) (types.Session, types.Upload, *analysis.Table, error)
	Lookup(key string) (types.Upload, *analysis.Table, error)
	SelectDate(sessionID string, date time.Time) error
}

type IrrigationController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type Options struct {
	MaxUploadBytes int64
	// BannerURL is shown at the top of the dashboard when set.
	BannerURL string
}

type irrigationControllerImpl struct {
	service        IrrigationService
	maxUploadBytes int64
	bannerURL      string
}

func NewIrrigationController(service IrrigationService, opts Options) IrrigationController {
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &irrigationControllerImpl{
		service:        service,
		maxUploadBytes: maxBytes,
		bannerURL:      opts.BannerURL,
	}
}

func (c *irrigationControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("POST /upload", c.handleUpload)
	mux.HandleFunc("GET /partials/hourly", c.handleHourlyPartial)
	mux.HandleFunc("GET /charts/{metric}", c.handleChart)

	mux.HandleFunc("POST /api/v1/uploads", c.handleAPIUpload)
	mux.HandleFunc("GET /api/v1/uploads/{key}/summary", c.handleAPISummary)
	mux.HandleFunc("GET /api/v1/uploads/{key}/days/{date}", c.handleAPIDay)
	mux.HandleFunc("GET /api/v1/recommendation", c.handleAPIRecommendation)
}
