package controller

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/charts"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/service"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/types"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/views"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/utils"
)

func (c *irrigationControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	id := sessionID(w, r)
	c.writeDashboard(w, id, r.URL.Query().Get("date"), http.StatusOK, "")
}

func (c *irrigationControllerImpl) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadBytes)
	id := sessionID(w, r)

	raw, filename, err := readUploadedFile(r, c.maxUploadBytes)
	if err != nil {
		if isTooLarge(err) {
			c.writeDashboard(w, id, "", http.StatusRequestEntityTooLarge,
				fmt.Sprintf("The file exceeds the %d byte upload limit.", c.maxUploadBytes))
			return
		}
		slog.Warn("upload: read form failed", "error", err)
		c.writeDashboard(w, id, "", http.StatusBadRequest, "Choose a CSV file to upload.")
		return
	}

	if _, _, err := c.service.Upload(id, filename, raw); err != nil {
		if errors.Is(err, analysis.ErrMalformedInput) {
			slog.Info("upload: malformed csv", "filename", filename, "error", err)
			c.writeDashboard(w, id, "", http.StatusUnprocessableEntity, "Could not read "+filename+": "+err.Error())
			return
		}
		slog.Error("upload: store failed", "filename", filename, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *irrigationControllerImpl) handleHourlyPartial(w http.ResponseWriter, r *http.Request) {
	id := sessionID(w, r)
	_, _, table, err := c.service.Current(id)
	if err != nil {
		if errors.Is(err, service.ErrNoUpload) {
			c.writeHourly(w, http.StatusNotFound, &views.HourlyData{Error: "Upload a CSV file first."})
			return
		}
		slog.Error("hourly: load upload failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load upload")
		return
	}

	dateParam := r.URL.Query().Get("date")
	data, status := hourlyData(table, dateParam)
	if status == http.StatusOK {
		c.rememberDate(id, table, dateParam)
	}
	c.writeHourly(w, status, data)
}

func (c *irrigationControllerImpl) handleChart(w http.ResponseWriter, r *http.Request) {
	metric, err := charts.ParseMetric(r.PathValue("metric"))
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	id := sessionID(w, r)
	_, _, table, err := c.service.Current(id)
	if err != nil {
		if errors.Is(err, service.ErrNoUpload) {
			utils.WriteError(w, http.StatusNotFound, "no file uploaded")
			return
		}
		slog.Error("chart: load upload failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load upload")
		return
	}

	date, err := parseDateParam(r.URL.Query().Get("date"), table)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := table.Day(date)
	if errors.Is(err, analysis.ErrEmptySelection) {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderSVG(&buf, day, metric); err != nil {
		slog.Error("chart render failed", "metric", metric, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Cache-Control", "private, no-cache")
	utils.WriteBytes(w, http.StatusOK, "image/svg+xml", buf.Bytes())
}

// writeDashboard renders the full page for the session's current file.
// dateParam overrides the session's remembered date.
func (c *irrigationControllerImpl) writeDashboard(w http.ResponseWriter, id, dateParam string, status int, errMsg string) {
	data := views.DashboardData{
		BannerURL: c.bannerURL,
		Resources: views.Resources,
		Error:     errMsg,
	}

	session, upload, table, err := c.service.Current(id)
	switch {
	case errors.Is(err, service.ErrNoUpload):
	case err != nil:
		slog.Error("dashboard: load upload failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load upload")
		return
	default:
		if s := c.fillDashboard(&data, session, upload, table, dateParam); s != http.StatusOK && status == http.StatusOK {
			status = s
		}
	}

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, &data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, status, buf.Bytes())
}

func (c *irrigationControllerImpl) fillDashboard(data *views.DashboardData, session types.Session, upload types.Upload, table *analysis.Table, dateParam string) int {
	data.HasUpload = true
	data.Filename = upload.Filename
	data.Rows = observationRows(table.Observations())

	first, last, ok := table.DateRange()
	if !ok {
		data.NoDates = true
		return http.StatusOK
	}
	data.MinDate = first.Format(analysis.DateLayout)
	data.MaxDate = last.Format(analysis.DateLayout)

	selected := dateParam
	if selected == "" {
		selected = session.SelectedDate
	}
	if selected == "" {
		selected = data.MinDate
	}
	data.SelectedDate = selected

	hourly, status := hourlyData(table, selected)
	data.Hourly = hourly
	if status == http.StatusOK && dateParam != "" {
		c.rememberDate(session.ID, table, dateParam)
	}

	summary, err := table.DailySummary()
	if err != nil {
		slog.Error("dashboard: daily summary failed", "error", err)
		data.RecentInfo = insufficientDataMessage
		return http.StatusInternalServerError
	}
	data.Summary = summaryRows(summary)
	day, rec, err := analysis.MostRecentRecommendation(summary)
	if err != nil {
		data.RecentInfo = insufficientDataMessage
	} else {
		data.RecentDate = day.Date.Format(analysis.DateLayout)
		data.Recent = recommendationView(rec)
	}
	return status
}

// hourlyData builds the per-day view. The status is 400 for a date that is
// invalid or outside the data range.
func hourlyData(table *analysis.Table, dateParam string) (*views.HourlyData, int) {
	date, err := parseDateParam(dateParam, table)
	if err != nil {
		return &views.HourlyData{Date: dateParam, Error: err.Error()}, http.StatusBadRequest
	}

	data := &views.HourlyData{Date: date.Format(analysis.DateLayout)}
	day, err := table.Day(date)
	if errors.Is(err, analysis.ErrEmptySelection) {
		data.Empty = true
		return data, http.StatusOK
	}

	data.Rows = hourlyRows(day.Rows)
	data.MeanTemperature = day.MeanTemperature
	data.MeanHumidity = day.MeanHumidity
	data.MeanLightLevel = day.MeanLightLevel
	data.Charts = chartLinks(data.Date)

	rec, err := day.Recommendation()
	if err != nil {
		data.RecommendationInfo = insufficientDataMessage
	} else {
		data.Recommendation = recommendationView(rec)
	}
	return data, http.StatusOK
}

func (c *irrigationControllerImpl) rememberDate(id string, table *analysis.Table, dateParam string) {
	date, err := parseDateParam(dateParam, table)
	if err != nil {
		return
	}
	if err := c.service.SelectDate(id, date); err != nil {
		slog.Warn("remember selected date failed", "error", err)
	}
}

func (c *irrigationControllerImpl) writeHourly(w http.ResponseWriter, status int, data *views.HourlyData) {
	var buf bytes.Buffer
	if err := views.RenderHourlyPartial(&buf, data); err != nil {
		slog.Error("hourly partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, status, buf.Bytes())
}
