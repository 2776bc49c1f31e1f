package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/repository"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/service"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/types"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/views"
)

// 2024-03-02 has no rows.
const sampleCSV = `Time,temperature,humidity,light level
3/1/24 6:00:00 AM,20,50,100
3/1/24 1:00:00 PM,24,50,300
3/3/24 7:00:00 AM,28,33,600
`

const testSessionID = "4d3c2b1a-0000-4000-8000-000000000001"

type mockService struct {
	session    types.Session
	upload     types.Upload
	table      *analysis.Table
	currentErr error
	lookupErr  error
	uploadErr  error

	uploadedSession  string
	uploadedFilename string
	uploadedRaw      []byte
	selected         []time.Time
}

func (m *mockService) Upload(sessionID, filename string, raw []byte) (types.Upload, *analysis.Table, error) {
	m.uploadedSession = sessionID
	m.uploadedFilename = filename
	m.uploadedRaw = raw
	if m.uploadErr != nil {
		return types.Upload{}, nil, m.uploadErr
	}
	return m.upload, m.table, nil
}

func (m *mockService) Current(sessionID string) (types.Session, types.Upload, *analysis.Table, error) {
	if m.currentErr != nil {
		return types.Session{ID: sessionID}, types.Upload{}, nil, m.currentErr
	}
	return m.session, m.upload, m.table, nil
}

func (m *mockService) Lookup(key string) (types.Upload, *analysis.Table, error) {
	if m.lookupErr != nil {
		return types.Upload{}, nil, m.lookupErr
	}
	return m.upload, m.table, nil
}

func (m *mockService) SelectDate(sessionID string, date time.Time) error {
	m.selected = append(m.selected, date)
	return nil
}

func loadedService(t *testing.T) *mockService {
	t.Helper()
	table, err := analysis.LoadBytes([]byte(sampleCSV), analysis.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	return &mockService{
		session: types.Session{ID: testSessionID, UploadKey: "abc"},
		upload:  types.Upload{Key: "abc", Filename: "field.csv", Rows: table.Len()},
		table:   table,
	}
}

func emptyService() *mockService {
	return &mockService{currentErr: service.ErrNoUpload, lookupErr: repository.ErrNotFound}
}

func newTestMux(t *testing.T, svc IrrigationService, opts Options) *http.ServeMux {
	t.Helper()
	if err := views.LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	mux := http.NewServeMux()
	NewIrrigationController(svc, opts).RegisterRoutes(mux)
	return mux
}

func serve(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: testSessionID})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func Test_handleDashboard(t *testing.T) {
	t.Run("returns 404 when path is not /", func(t *testing.T) {
		ctrl := NewIrrigationController(emptyService(), Options{}).(*irrigationControllerImpl)
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		rec := httptest.NewRecorder()

		ctrl.handleDashboard(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("no upload shows the form and issues a session cookie", func(t *testing.T) {
		mux := newTestMux(t, emptyService(), Options{BannerURL: "/static/logo.svg"})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Choose a CSV file") || !strings.Contains(body, "/static/logo.svg") {
			t.Errorf("body missing upload form or banner")
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != sessionCookieName || cookies[0].Value == "" {
			t.Errorf("cookies = %v; want one %s cookie", cookies, sessionCookieName)
		}
	})

	t.Run("with upload defaults to the first date", func(t *testing.T) {
		mux := newTestMux(t, loadedService(t), Options{})
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{
			"field.csv",
			"Hourly Data for 2024-03-01",
			"Mean Temperature: 22.00 °C",
			"Daily Averages",
			"Recent Recommendation (2024-03-03)",
			"Irrigation is recommended early in the morning",
		} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %q", want)
			}
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Error("valid session cookie was replaced")
		}
	})

	t.Run("remembered date is used", func(t *testing.T) {
		svc := loadedService(t)
		svc.session.SelectedDate = "2024-03-03"
		mux := newTestMux(t, svc, Options{})
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/", nil))

		if !strings.Contains(rec.Body.String(), "Hourly Data for 2024-03-03") {
			t.Error("remembered date not shown")
		}
	})

	t.Run("explicit date is remembered", func(t *testing.T) {
		svc := loadedService(t)
		mux := newTestMux(t, svc, Options{})
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/?date=2024-03-03", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		if len(svc.selected) != 1 || svc.selected[0].Format(analysis.DateLayout) != "2024-03-03" {
			t.Errorf("selected = %v", svc.selected)
		}
	})

	t.Run("date outside range is 400", func(t *testing.T) {
		mux := newTestMux(t, loadedService(t), Options{})
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/?date=2024-04-01", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "outside the data range") {
			t.Error("body missing range error")
		}
	})

	t.Run("header-only upload reports no dates", func(t *testing.T) {
		table, err := analysis.LoadBytes([]byte("Time,temperature,humidity,light level\n"), analysis.LoadOptions{})
		if err != nil {
			t.Fatalf("LoadBytes: %v", err)
		}
		svc := &mockService{session: types.Session{ID: testSessionID}, upload: types.Upload{Filename: "empty.csv"}, table: table}
		mux := newTestMux(t, svc, Options{})
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/", nil))

		if !strings.Contains(rec.Body.String(), "No valid dates available in the data.") {
			t.Error("body missing no-dates message")
		}
	})
}

func Test_handleUpload(t *testing.T) {
	t.Run("stores the file and redirects", func(t *testing.T) {
		svc := loadedService(t)
		mux := newTestMux(t, svc, Options{})
		body, ct := multipartBody(t, "file", "field.csv", sampleCSV)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := serve(mux, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d; want 303", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/" {
			t.Errorf("Location = %q; want /", loc)
		}
		if svc.uploadedSession != testSessionID || svc.uploadedFilename != "field.csv" || string(svc.uploadedRaw) != sampleCSV {
			t.Errorf("upload = %q %q %d bytes", svc.uploadedSession, svc.uploadedFilename, len(svc.uploadedRaw))
		}
	})

	t.Run("malformed csv is 422", func(t *testing.T) {
		svc := emptyService()
		svc.uploadErr = &analysis.MalformedInputError{Line: 2, Column: "Time", Value: "yesterday", Reason: "bad time"}
		mux := newTestMux(t, svc, Options{})
		body, ct := multipartBody(t, "file", "bad.csv", "whatever")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := serve(mux, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d; want 422", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Could not read bad.csv") {
			t.Error("body missing error banner")
		}
	})

	t.Run("missing file is 400", func(t *testing.T) {
		mux := newTestMux(t, emptyService(), Options{})
		body, ct := multipartBody(t, "", "", "")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := serve(mux, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want 400", rec.Code)
		}
	})

	t.Run("too large is 413", func(t *testing.T) {
		svc := emptyService()
		mux := newTestMux(t, svc, Options{MaxUploadBytes: 64})
		body, ct := multipartBody(t, "file", "big.csv", strings.Repeat("x", 4096))
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := serve(mux, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d; want 413", rec.Code)
		}
		if svc.uploadedRaw != nil {
			t.Error("service called for oversized upload")
		}
	})
}

func Test_handleHourlyPartial(t *testing.T) {
	tests := []struct {
		name       string
		svc        func(t *testing.T) *mockService
		query      string
		wantStatus int
		wantBody   string
	}{
		{name: "no upload", svc: func(*testing.T) *mockService { return emptyService() }, query: "?date=2024-03-01", wantStatus: http.StatusNotFound, wantBody: "Upload a CSV file first."},
		{name: "valid date", svc: loadedService, query: "?date=2024-03-03", wantStatus: http.StatusOK, wantBody: "Hourly Data for 2024-03-03"},
		{name: "gap inside range", svc: loadedService, query: "?date=2024-03-02", wantStatus: http.StatusOK, wantBody: "No data available for the selected date."},
		{name: "out of range", svc: loadedService, query: "?date=2023-12-31", wantStatus: http.StatusBadRequest, wantBody: "outside the data range"},
		{name: "bad format", svc: loadedService, query: "?date=03/01/24", wantStatus: http.StatusBadRequest, wantBody: "expected YYYY-MM-DD"},
		{name: "missing date", svc: loadedService, query: "", wantStatus: http.StatusBadRequest, wantBody: "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(t, tt.svc(t), Options{})
			rec := serve(mux, httptest.NewRequest(http.MethodGet, "/partials/hourly"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
		})
	}
}

func Test_handleChart(t *testing.T) {
	mux := newTestMux(t, loadedService(t), Options{})

	t.Run("svg for a valid day", func(t *testing.T) {
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/charts/temperature.svg?date=2024-03-01", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200 (%s)", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
			t.Errorf("Content-Type = %q", ct)
		}
		if !strings.Contains(rec.Body.String(), "<svg") {
			t.Error("body is not svg")
		}
	})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/charts/pressure.svg?date=2024-03-01", wantStatus: http.StatusNotFound},
		{path: "/charts/humidity.svg", wantStatus: http.StatusBadRequest},
		{path: "/charts/humidity.svg?date=2025-01-01", wantStatus: http.StatusBadRequest},
		{path: "/charts/light.svg?date=2024-03-02", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(mux, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func Test_handleAPIUpload(t *testing.T) {
	t.Run("raw body", func(t *testing.T) {
		svc := loadedService(t)
		mux := newTestMux(t, svc, Options{})
		rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/uploads?filename=field.csv", strings.NewReader(sampleCSV)))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d; want 201 (%s)", rec.Code, rec.Body.String())
		}
		if svc.uploadedFilename != "field.csv" {
			t.Errorf("filename = %q", svc.uploadedFilename)
		}

		var resp summaryResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.DateRange == nil || resp.DateRange.First != "2024-03-01" || resp.DateRange.Last != "2024-03-03" {
			t.Errorf("DateRange = %+v", resp.DateRange)
		}
		if len(resp.Summary) != 2 {
			t.Fatalf("len(Summary) = %d; want 2", len(resp.Summary))
		}
		if resp.Recommendation == nil || resp.Recommendation.Code != "irrigate_early_morning" || resp.Recommendation.Date != "2024-03-03" {
			t.Errorf("Recommendation = %+v", resp.Recommendation)
		}
	})

	t.Run("multipart body", func(t *testing.T) {
		svc := loadedService(t)
		mux := newTestMux(t, svc, Options{})
		body, ct := multipartBody(t, "file", "m.csv", sampleCSV)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
		req.Header.Set("Content-Type", ct)
		rec := serve(mux, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d; want 201", rec.Code)
		}
		if svc.uploadedFilename != "m.csv" {
			t.Errorf("filename = %q", svc.uploadedFilename)
		}
	})

	t.Run("malformed is 422", func(t *testing.T) {
		svc := emptyService()
		svc.uploadErr = fmt.Errorf("parse: %w", &analysis.MalformedInputError{Line: 1, Reason: "missing column"})
		mux := newTestMux(t, svc, Options{})
		rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/uploads", strings.NewReader("a,b\n")))

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d; want 422", rec.Code)
		}
	})

	t.Run("too large is 413", func(t *testing.T) {
		mux := newTestMux(t, emptyService(), Options{MaxUploadBytes: 16})
		rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/uploads", strings.NewReader(sampleCSV)))

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d; want 413", rec.Code)
		}
	})
}

func Test_handleAPISummaryAndDay(t *testing.T) {
	t.Run("unknown key is 404", func(t *testing.T) {
		mux := newTestMux(t, emptyService(), Options{})
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/uploads/nope/summary", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want 404", rec.Code)
		}
	})

	mux := newTestMux(t, loadedService(t), Options{})

	t.Run("summary", func(t *testing.T) {
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/uploads/abc/summary", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		var resp summaryResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Upload.Key != "abc" || len(resp.Summary) != 2 {
			t.Errorf("resp = %+v", resp)
		}
		first := resp.Summary[0]
		if first.Date != "2024-03-01" || first.MeanTemperature == nil || *first.MeanTemperature != 22 || first.Samples != 2 {
			t.Errorf("first row = %+v", first)
		}
	})

	t.Run("day", func(t *testing.T) {
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/uploads/abc/days/2024-03-01", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		var resp dayResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp.Rows) != 2 || resp.Rows[0].TimeSlot != string(analysis.Morning) {
			t.Errorf("rows = %+v", resp.Rows)
		}
		if resp.Recommendation == nil || resp.Recommendation.Code != "no_irrigation" {
			t.Errorf("Recommendation = %+v", resp.Recommendation)
		}
	})

	t.Run("empty day", func(t *testing.T) {
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/uploads/abc/days/2024-03-02", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		var resp dayResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp.Rows) != 0 || resp.Message != emptySelectionMessage {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("day out of range", func(t *testing.T) {
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/uploads/abc/days/2024-05-01", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want 400", rec.Code)
		}
	})
}

func Test_handleAPIRecommendation(t *testing.T) {
	mux := newTestMux(t, emptyService(), Options{})

	tests := []struct {
		query      string
		wantStatus int
		wantCode   string
	}{
		{query: "?temperature=30&humidity=35", wantStatus: http.StatusOK, wantCode: "irrigate_early_morning"},
		{query: "?temperature=22&humidity=45&light=100", wantStatus: http.StatusOK, wantCode: "irrigate_early_morning_or_late_afternoon"},
		{query: "?temperature=18&humidity=60", wantStatus: http.StatusOK, wantCode: "no_irrigation"},
		{query: "?temperature=30", wantStatus: http.StatusBadRequest},
		{query: "?temperature=hot&humidity=10", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/recommendation"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode == "" {
				return
			}
			var rec2 types.Recommendation
			if err := json.Unmarshal(rec.Body.Bytes(), &rec2); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if rec2.Code != tt.wantCode {
				t.Errorf("Code = %q; want %q", rec2.Code, tt.wantCode)
			}
		})
	}
}

func TestSessionID(t *testing.T) {
	t.Run("reuses a valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: testSessionID})
		rec := httptest.NewRecorder()

		if got := sessionID(rec, req); got != testSessionID {
			t.Errorf("sessionID = %q; want %q", got, testSessionID)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Error("cookie re-issued")
		}
	})

	t.Run("replaces an invalid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "not-a-uuid"})
		rec := httptest.NewRecorder()

		got := sessionID(rec, req)
		if got == "not-a-uuid" || got == "" {
			t.Errorf("sessionID = %q", got)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Value != got || !cookies[0].HttpOnly {
			t.Errorf("cookies = %+v", cookies)
		}
	})
}
