// Package charts renders one day of observations as SVG line charts.
package charts

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
)

type Metric string

const (
	Temperature Metric = "temperature"
	Humidity    Metric = "humidity"
	Light       Metric = "light"
)

const (
	width  = 6 * vg.Inch
	height = 3 * vg.Inch
)

type metricInfo struct {
	title string
	unit  string
	color color.Color
	value func(analysis.Observation) *float64
}

var metrics = map[Metric]metricInfo{
	Temperature: {
		title: "Temperature",
		unit:  "°C",
		color: color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
		value: func(o analysis.Observation) *float64 { return o.Temperature },
	},
	Humidity: {
		title: "Humidity",
		unit:  "%",
		color: color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
		value: func(o analysis.Observation) *float64 { return o.Humidity },
	},
	Light: {
		title: "Light Level",
		unit:  "lux",
		color: color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
		value: func(o analysis.Observation) *float64 { return o.LightLevel },
	},
}

// Metrics lists the chartable metrics in display order.
func Metrics() []Metric {
	return []Metric{Temperature, Humidity, Light}
}

// ParseMetric accepts a metric name with or without a trailing ".svg".
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".svg"))
	if _, ok := metrics[m]; !ok {
		return "", fmt.Errorf("unknown metric %q (allowed: temperature, humidity, light)", s)
	}
	return m, nil
}

func (m Metric) Title() string {
	return metrics[m].title
}

// RenderSVG writes a line chart of metric over the day's rows. Missing cells
// leave no point; a day without any value still renders empty axes.
func RenderSVG(w io.Writer, day analysis.DayView, m Metric) error {
	info, ok := metrics[m]
	if !ok {
		return fmt.Errorf("unknown metric %q", m)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s on %s", info.title, day.Date.Format(analysis.DateLayout))
	p.X.Label.Text = "Time"
	p.Y.Label.Text = fmt.Sprintf("%s (%s)", info.title, info.unit)
	p.X.Tick.Marker = plot.TimeTicks{Format: "15:04"}
	p.Add(plotter.NewGrid())

	points := make(plotter.XYs, 0, len(day.Rows))
	for _, r := range day.Rows {
		v := info.value(r.Observation)
		if v == nil {
			continue
		}
		points = append(points, plotter.XY{X: float64(r.Timestamp.Unix()), Y: *v})
	}

	if len(points) > 0 {
		line, scatter, err := plotter.NewLinePoints(points)
		if err != nil {
			return fmt.Errorf("%s line: %w", m, err)
		}
		line.Color = info.color
		line.Width = vg.Points(1.5)
		scatter.Color = info.color
		scatter.Shape = draw.CircleGlyph{}
		scatter.Radius = vg.Points(2)
		p.Add(line, scatter)
	}

	canvas := vgsvg.New(width, height)
	p.Draw(draw.New(canvas))
	if _, err := canvas.WriteTo(w); err != nil {
		return fmt.Errorf("write %s chart: %w", m, err)
	}
	return nil
}
