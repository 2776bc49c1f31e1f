package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	// TimeLayout is the Go equivalent of "%m/%d/%y %I:%M:%S %p". Month, day
	// and hour accept one or two digits.
	TimeLayout = "1/2/06 3:04:05 PM"

	// DateLayout formats calendar dates used as group keys and in URLs.
	DateLayout = "2006-01-02"

	// timestampLayout is how parsed timestamps are stored in the frame.
	timestampLayout = "2006-01-02 15:04:05"
)

const (
	DefaultTimeColumn = "Time"
	TemperatureColumn = "temperature"
	HumidityColumn    = "humidity"
	LightLevelColumn  = "light level"
	TimestampColumn   = "Timestamp"
	DateColumn        = "Date"
	TimeSlotColumn    = "Time Slot"
)

const utf8BOM = "\ufeff"

// LoadOptions tunes how a CSV upload is read.
type LoadOptions struct {
	// TimeColumn names the timestamp column. Empty means DefaultTimeColumn.
	TimeColumn string
}

func (o LoadOptions) timeColumn() string {
	if c := strings.TrimSpace(o.TimeColumn); c != "" {
		return c
	}
	return DefaultTimeColumn
}

// LoadBytes parses an in-memory CSV upload.
func LoadBytes(raw []byte, opts LoadOptions) (*Table, error) {
	return Load(bytes.NewReader(raw), opts)
}

// Load parses a sensor CSV with a header row into a Table. Rows keep their
// input order. Any structural problem, missing required column or
// unparseable timestamp aborts the load with a *MalformedInputError.
// Numeric cells that are empty or not numbers are kept as missing values.
func Load(r io.Reader, opts LoadOptions) (*Table, error) {
	timeCol := opts.timeColumn()

	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &MalformedInputError{Line: pe.Line, Reason: pe.Err.Error()}
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, &MalformedInputError{Reason: "missing header row"}
	}

	idx, err := requiredColumns(records[0], timeCol)
	if err != nil {
		return nil, err
	}

	rows := records[1:]
	if len(rows) == 0 {
		return &Table{timeColumn: timeCol}, nil
	}

	timestamps := make([]string, len(rows))
	dates := make([]string, len(rows))
	slots := make([]string, len(rows))
	temps := make([]string, len(rows))
	hums := make([]string, len(rows))
	lights := make([]string, len(rows))
	parsed := make([]time.Time, len(rows))

	for i, rec := range rows {
		raw := rec[idx.time]
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return nil, &MalformedInputError{
				Line:   i + 2,
				Column: timeCol,
				Value:  raw,
				Reason: "expected format MM/DD/YY hh:mm:ss AM|PM",
			}
		}
		parsed[i] = ts
		timestamps[i] = ts.Format(timestampLayout)
		dates[i] = ts.Format(DateLayout)
		slots[i] = string(TimeSlotOf(ts))
		temps[i] = strings.TrimSpace(rec[idx.temperature])
		hums[i] = strings.TrimSpace(rec[idx.humidity])
		lights[i] = strings.TrimSpace(rec[idx.light])
	}

	frame := dataframe.New(
		series.New(timestamps, series.String, TimestampColumn),
		series.New(temps, series.Float, TemperatureColumn),
		series.New(hums, series.Float, HumidityColumn),
		series.New(lights, series.Float, LightLevelColumn),
		series.New(dates, series.String, DateColumn),
		series.New(slots, series.String, TimeSlotColumn),
	)
	if frame.Err != nil {
		return nil, fmt.Errorf("build frame: %w", frame.Err)
	}

	tempVals := frame.Col(TemperatureColumn).Float()
	humVals := frame.Col(HumidityColumn).Float()
	lightVals := frame.Col(LightLevelColumn).Float()

	observations := make([]Observation, len(rows))
	for i := range observations {
		observations[i] = Observation{
			Timestamp:   parsed[i],
			Temperature: optional(tempVals[i]),
			Humidity:    optional(humVals[i]),
			LightLevel:  optional(lightVals[i]),
		}
	}

	return &Table{frame: frame, rows: observations, timeColumn: timeCol}, nil
}

// ParseTimestamp parses a single time cell in TimeLayout. The hour must be
// 1 to 12; time.Parse alone also takes 0 and 00 for the 12-hour field.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	ts, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if fields := strings.Fields(s); len(fields) == 3 {
		hour, _, _ := strings.Cut(fields[1], ":")
		if strings.TrimLeft(hour, "0") == "" {
			return time.Time{}, fmt.Errorf("parsing time %q: hour %q out of range 1-12", s, hour)
		}
	}
	return ts, nil
}

type columnIndex struct {
	time        int
	temperature int
	humidity    int
	light       int
}

func requiredColumns(header []string, timeCol string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}
	idx := columnIndex{
		time:        lookup(timeCol),
		temperature: lookup(TemperatureColumn),
		humidity:    lookup(HumidityColumn),
		light:       lookup(LightLevelColumn),
	}
	if len(missing) > 0 {
		return columnIndex{}, &MalformedInputError{
			Line:   1,
			Reason: fmt.Sprintf("missing required column(s): %s", strings.Join(missing, ", ")),
		}
	}
	return idx, nil
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
