package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/stat"
)

// Observation is one sensor row. A nil reading means the cell was empty or
// not a number.
type Observation struct {
	Timestamp   time.Time
	Temperature *float64
	Humidity    *float64
	LightLevel  *float64
}

// Slot returns the time slot of the observation's hour.
func (o Observation) Slot() TimeSlot {
	return TimeSlotOf(o.Timestamp)
}

// Table is an immutable, parsed sensor upload.
type Table struct {
	frame      dataframe.DataFrame
	rows       []Observation
	timeColumn string
}

// Len reports the number of observations.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// TimeColumn is the name of the source time column.
func (t *Table) TimeColumn() string {
	return t.timeColumn
}

// Observations returns a copy of all rows in input order.
func (t *Table) Observations() []Observation {
	if t == nil {
		return nil
	}
	out := make([]Observation, len(t.rows))
	copy(out, t.rows)
	return out
}

// Dates returns each distinct calendar date present, ascending.
func (t *Table) Dates() []time.Time {
	if t.Len() == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var out []time.Time
	for _, o := range t.rows {
		key := o.Timestamp.Format(DateLayout)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, dateOf(o.Timestamp))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// DateRange returns the first and last calendar date in the table. ok is
// false when the table is empty.
func (t *Table) DateRange() (first, last time.Time, ok bool) {
	dates := t.Dates()
	if len(dates) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return dates[0], dates[len(dates)-1], true
}

// InRange reports whether date lies within DateRange, inclusive.
func (t *Table) InRange(date time.Time) bool {
	first, last, ok := t.DateRange()
	if !ok {
		return false
	}
	d := dateOf(date)
	return !d.Before(first) && !d.After(last)
}

// HourlyRow is an observation of the selected day with its time slot.
type HourlyRow struct {
	Observation
	TimeSlot TimeSlot
}

// DayView holds the observations of a single date ordered by timestamp and
// their means.
type DayView struct {
	Date            time.Time
	Rows            []HourlyRow
	MeanTemperature *float64
	MeanHumidity    *float64
	MeanLightLevel  *float64
}

// Recommendation applies the irrigation rules to the day's means.
func (d DayView) Recommendation() (Recommendation, error) {
	return recommendFromMeans(d.MeanTemperature, d.MeanHumidity, d.MeanLightLevel)
}

// Day selects the observations that fall on date's calendar day. It returns
// ErrEmptySelection when there are none.
func (t *Table) Day(date time.Time) (DayView, error) {
	day := dateOf(date)
	view := DayView{Date: day}
	if t.Len() == 0 {
		return view, ErrEmptySelection
	}

	key := day.Format(DateLayout)
	var temps, hums, lights []float64
	for _, o := range t.rows {
		if o.Timestamp.Format(DateLayout) != key {
			continue
		}
		view.Rows = append(view.Rows, HourlyRow{Observation: o, TimeSlot: o.Slot()})
		temps = append(temps, valueOrNaN(o.Temperature))
		hums = append(hums, valueOrNaN(o.Humidity))
		lights = append(lights, valueOrNaN(o.LightLevel))
	}
	if len(view.Rows) == 0 {
		return view, ErrEmptySelection
	}

	sort.SliceStable(view.Rows, func(i, j int) bool {
		return view.Rows[i].Timestamp.Before(view.Rows[j].Timestamp)
	})
	view.MeanTemperature = meanSkipMissing(temps)
	view.MeanHumidity = meanSkipMissing(hums)
	view.MeanLightLevel = meanSkipMissing(lights)
	return view, nil
}

// DailySummary is shorthand for ComputeDailySummary(t).
func (t *Table) DailySummary() ([]DailySummary, error) {
	return ComputeDailySummary(t)
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// meanSkipMissing is the arithmetic mean of the non-NaN values, or nil when
// there are none.
func meanSkipMissing(values []float64) *float64 {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	m := stat.Mean(valid, nil)
	return &m
}
