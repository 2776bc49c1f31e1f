package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/charts"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/types"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/views"
)

const (
	defaultMaxUploadBytes = 10 << 20
	defaultUploadName     = "upload.csv"
	uploadFormField       = "file"

	insufficientDataMessage = "Not enough temperature or humidity data to make a recommendation."
	emptySelectionMessage   = "No data available for the selected date."
)

var errMissingFile = errors.New("missing 'file' in upload form")

// parseDateParam parses a YYYY-MM-DD date and checks it against the table's
// date range.
func parseDateParam(s string, table *analysis.Table) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing 'date' (expected YYYY-MM-DD)")
	}
	date, err := analysis.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid 'date' %q (expected YYYY-MM-DD)", s)
	}
	first, last, ok := table.DateRange()
	if !ok {
		return time.Time{}, errors.New("no valid dates available in the data")
	}
	if !table.InRange(date) {
		return time.Time{}, fmt.Errorf("date %s is outside the data range %s to %s",
			s, first.Format(analysis.DateLayout), last.Format(analysis.DateLayout))
	}
	return date, nil
}

func parseRecommendationQuery(r *http.Request) (temperature, humidity, light float64, err error) {
	q := r.URL.Query()
	temperature, err = parseFloatParam(q, "temperature", true)
	if err != nil {
		return 0, 0, 0, err
	}
	humidity, err = parseFloatParam(q, "humidity", true)
	if err != nil {
		return 0, 0, 0, err
	}
	light, err = parseFloatParam(q, "light", false)
	if err != nil {
		return 0, 0, 0, err
	}
	return temperature, humidity, light, nil
}

func parseFloatParam(q url.Values, name string, required bool) (float64, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		if required {
			return 0, fmt.Errorf("missing '%s'", name)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid '%s' (expected number)", name)
	}
	return v, nil
}

// readUploadedFile returns the content and name of the multipart "file" field.
func readUploadedFile(r *http.Request, maxBytes int64) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, "", err
	}
	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		return nil, "", errMissingFile
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	name := header.Filename
	if name == "" {
		name = defaultUploadName
	}
	return raw, name, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func observationRows(obs []analysis.Observation) []views.ObservationRow {
	out := make([]views.ObservationRow, 0, len(obs))
	for _, o := range obs {
		out = append(out, views.ObservationRow{
			Time:        o.Timestamp,
			TimeSlot:    string(o.Slot()),
			Temperature: o.Temperature,
			Humidity:    o.Humidity,
			LightLevel:  o.LightLevel,
		})
	}
	return out
}

func hourlyRows(rows []analysis.HourlyRow) []views.ObservationRow {
	out := make([]views.ObservationRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, views.ObservationRow{
			Time:        r.Timestamp,
			TimeSlot:    string(r.TimeSlot),
			Temperature: r.Temperature,
			Humidity:    r.Humidity,
			LightLevel:  r.LightLevel,
		})
	}
	return out
}

func summaryRows(summary []analysis.DailySummary) []views.SummaryRow {
	out := make([]views.SummaryRow, 0, len(summary))
	for _, d := range summary {
		out = append(out, views.SummaryRow{
			Date:            d.Date.Format(analysis.DateLayout),
			MeanTemperature: d.MeanTemperature,
			MeanHumidity:    d.MeanHumidity,
			MeanLightLevel:  d.MeanLightLevel,
			Samples:         d.Samples,
		})
	}
	return out
}

func recommendationView(rec analysis.Recommendation) *views.RecommendationView {
	return &views.RecommendationView{
		Code:      rec.Category.Code(),
		Headline:  rec.Headline,
		Rationale: rec.Rationale,
	}
}

func chartLinks(date string) []views.ChartLink {
	out := make([]views.ChartLink, 0, len(charts.Metrics()))
	for _, m := range charts.Metrics() {
		out = append(out, views.ChartLink{
			Title: m.Title(),
			URL:   "/charts/" + string(m) + ".svg?date=" + url.QueryEscape(date),
		})
	}
	return out
}

func apiRecommendation(rec analysis.Recommendation) types.Recommendation {
	return types.Recommendation{
		Category:  rec.Category.String(),
		Code:      rec.Category.Code(),
		Headline:  rec.Headline,
		Rationale: rec.Rationale,
	}
}

func apiSummary(summary []analysis.DailySummary) []types.DailySummaryRow {
	out := make([]types.DailySummaryRow, 0, len(summary))
	for _, d := range summary {
		out = append(out, types.DailySummaryRow{
			Date:            d.Date.Format(analysis.DateLayout),
			MeanTemperature: d.MeanTemperature,
			MeanHumidity:    d.MeanHumidity,
			MeanLightLevel:  d.MeanLightLevel,
			Samples:         d.Samples,
		})
	}
	return out
}

func apiObservations(rows []analysis.HourlyRow) []types.ObservationRow {
	out := make([]types.ObservationRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.ObservationRow{
			Time:        r.Timestamp,
			TimeSlot:    string(r.TimeSlot),
			Temperature: r.Temperature,
			Humidity:    r.Humidity,
			LightLevel:  r.LightLevel,
		})
	}
	return out
}
