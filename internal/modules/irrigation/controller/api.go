package controller

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/repository"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/types"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/utils"
)

type dateRange struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

type recentRecommendation struct {
	Date string `json:"date"`
	types.Recommendation
}

type summaryResponse struct {
	Upload         types.Upload            `json:"upload"`
	DateRange      *dateRange              `json:"dateRange"`
	Summary        []types.DailySummaryRow `json:"summary"`
	Recommendation *recentRecommendation   `json:"recommendation"`
	Message        string                  `json:"message,omitempty"`
}

type dayResponse struct {
	Date            string                 `json:"date"`
	Rows            []types.ObservationRow `json:"rows"`
	MeanTemperature *float64               `json:"meanTemperature"`
	MeanHumidity    *float64               `json:"meanHumidity"`
	MeanLightLevel  *float64               `json:"meanLightLevel"`
	Recommendation  *types.Recommendation  `json:"recommendation"`
	Message         string                 `json:"message,omitempty"`
}

func (c *irrigationControllerImpl) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadBytes)
	id := sessionID(w, r)

	var (
		raw      []byte
		filename string
		err      error
	)
	if isMultipart(r) {
		raw, filename, err = readUploadedFile(r, c.maxUploadBytes)
	} else {
		raw, err = io.ReadAll(r.Body)
		filename = strings.TrimSpace(r.URL.Query().Get("filename"))
		if filename == "" {
			filename = defaultUploadName
		}
	}
	if err != nil {
		if isTooLarge(err) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", c.maxUploadBytes))
			return
		}
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	upload, table, err := c.service.Upload(id, filename, raw)
	if err != nil {
		if errors.Is(err, analysis.ErrMalformedInput) {
			utils.WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("api upload: store failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	writeSummary(w, http.StatusCreated, upload, table)
}

func (c *irrigationControllerImpl) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	upload, table, ok := c.lookup(w, r)
	if !ok {
		return
	}
	writeSummary(w, http.StatusOK, upload, table)
}

func (c *irrigationControllerImpl) handleAPIDay(w http.ResponseWriter, r *http.Request) {
	_, table, ok := c.lookup(w, r)
	if !ok {
		return
	}

	date, err := parseDateParam(r.PathValue("date"), table)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := dayResponse{Date: date.Format(analysis.DateLayout), Rows: []types.ObservationRow{}}
	day, err := table.Day(date)
	if errors.Is(err, analysis.ErrEmptySelection) {
		resp.Message = emptySelectionMessage
		utils.WriteJSON(w, http.StatusOK, resp)
		return
	}

	resp.Rows = apiObservations(day.Rows)
	resp.MeanTemperature = day.MeanTemperature
	resp.MeanHumidity = day.MeanHumidity
	resp.MeanLightLevel = day.MeanLightLevel
	if rec, err := day.Recommendation(); err != nil {
		resp.Message = insufficientDataMessage
	} else {
		apiRec := apiRecommendation(rec)
		resp.Recommendation = &apiRec
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (c *irrigationControllerImpl) handleAPIRecommendation(w http.ResponseWriter, r *http.Request) {
	temperature, humidity, light, err := parseRecommendationQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec := analysis.RecommendIrrigation(temperature, humidity, light)
	utils.WriteJSON(w, http.StatusOK, apiRecommendation(rec))
}

func (c *irrigationControllerImpl) lookup(w http.ResponseWriter, r *http.Request) (types.Upload, *analysis.Table, bool) {
	key := r.PathValue("key")
	if key == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing upload key")
		return types.Upload{}, nil, false
	}
	upload, table, err := c.service.Lookup(key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "upload not found")
			return types.Upload{}, nil, false
		}
		slog.Error("api: lookup upload failed", "key", key, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load upload")
		return types.Upload{}, nil, false
	}
	return upload, table, true
}

func writeSummary(w http.ResponseWriter, status int, upload types.Upload, table *analysis.Table) {
	resp, err := buildSummaryResponse(upload, table)
	if err != nil {
		slog.Error("api: daily summary failed", "key", upload.Key, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to summarize upload")
		return
	}
	utils.WriteJSON(w, status, resp)
}

func buildSummaryResponse(upload types.Upload, table *analysis.Table) (summaryResponse, error) {
	summary, err := table.DailySummary()
	if err != nil {
		return summaryResponse{}, err
	}
	resp := summaryResponse{
		Upload:  upload,
		Summary: apiSummary(summary),
	}
	if first, last, ok := table.DateRange(); ok {
		resp.DateRange = &dateRange{
			First: first.Format(analysis.DateLayout),
			Last:  last.Format(analysis.DateLayout),
		}
	}

	day, rec, err := analysis.MostRecentRecommendation(summary)
	switch {
	case errors.Is(err, analysis.ErrEmptyTable):
		resp.Message = "No valid dates available in the data."
	case err != nil:
		resp.Message = insufficientDataMessage
	default:
		resp.Recommendation = &recentRecommendation{
			Date:           day.Date.Format(analysis.DateLayout),
			Recommendation: apiRecommendation(rec),
		}
	}
	return resp, nil
}
