package charts

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
)

func fptr(v float64) *float64 { return &v }

func sampleDay() analysis.DayView {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	row := func(hour int, temp, hum, light *float64) analysis.HourlyRow {
		ts := day.Add(time.Duration(hour) * time.Hour)
		return analysis.HourlyRow{
			Observation: analysis.Observation{Timestamp: ts, Temperature: temp, Humidity: hum, LightLevel: light},
			TimeSlot:    analysis.TimeSlotOf(ts),
		}
	}
	return analysis.DayView{
		Date: day,
		Rows: []analysis.HourlyRow{
			row(6, fptr(18), fptr(60), fptr(100)),
			row(12, fptr(24), nil, fptr(800)),
			row(18, fptr(21), fptr(55), nil),
		},
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{in: "temperature", want: Temperature},
		{in: "humidity.svg", want: Humidity},
		{in: " Light.SVG ", want: Light},
		{in: "pressure", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMetric(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMetric(%q) = %q; want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMetric(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMetric(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	for _, m := range Metrics() {
		t.Run(string(m), func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderSVG(&buf, sampleDay(), m); err != nil {
				t.Fatalf("RenderSVG: %v", err)
			}
			out := buf.String()
			if !strings.Contains(out, "<svg") {
				t.Fatalf("output is not SVG: %.80q", out)
			}
		})
	}
}

func TestRenderSVG_noValues(t *testing.T) {
	day := sampleDay()
	for i := range day.Rows {
		day.Rows[i].Humidity = nil
	}
	var buf bytes.Buffer
	if err := RenderSVG(&buf, day, Humidity); err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatal("output is not SVG")
	}
}

func TestRenderSVG_unknownMetric(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSVG(&buf, sampleDay(), Metric("pressure")); err == nil {
		t.Fatal("RenderSVG(pressure) = nil; want error")
	}
}
