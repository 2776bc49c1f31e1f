package analysis

import (
	"fmt"
	"sort"
	"time"
)

// DailySummary holds the means of one calendar date. A nil mean means every
// value of that column was missing on that date.
type DailySummary struct {
	Date            time.Time
	MeanTemperature *float64
	MeanHumidity    *float64
	MeanLightLevel  *float64
	Samples         int
}

// Recommendation applies the irrigation rules to the day's means.
func (d DailySummary) Recommendation() (Recommendation, error) {
	return recommendFromMeans(d.MeanTemperature, d.MeanHumidity, d.MeanLightLevel)
}

// ComputeDailySummary groups the table by calendar date and averages each
// sensor column, skipping missing cells. Rows are ordered by ascending date;
// dates absent from the input are not synthesized. An empty table yields an
// empty, non-nil slice.
func ComputeDailySummary(t *Table) ([]DailySummary, error) {
	out := []DailySummary{}
	if t.Len() == 0 {
		return out, nil
	}

	groups := t.frame.GroupBy(DateColumn)
	if groups.Err != nil {
		return nil, fmt.Errorf("group by %s: %w", DateColumn, groups.Err)
	}

	for _, g := range groups.GetGroups() {
		if g.Err != nil || g.Nrow() == 0 {
			continue
		}
		date, err := ParseDate(g.Col(DateColumn).Elem(0).String())
		if err != nil {
			return nil, fmt.Errorf("group date: %w", err)
		}
		out = append(out, DailySummary{
			Date:            date,
			MeanTemperature: meanSkipMissing(g.Col(TemperatureColumn).Float()),
			MeanHumidity:    meanSkipMissing(g.Col(HumidityColumn).Float()),
			MeanLightLevel:  meanSkipMissing(g.Col(LightLevelColumn).Float()),
			Samples:         g.Nrow(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// MostRecentRecommendation returns the last day of the summary and the
// recommendation for its means. It returns ErrEmptyTable for an empty
// summary and ErrInsufficientData when that day lacks a temperature or
// humidity mean.
func MostRecentRecommendation(summary []DailySummary) (DailySummary, Recommendation, error) {
	if len(summary) == 0 {
		return DailySummary{}, Recommendation{}, ErrEmptyTable
	}
	last := summary[len(summary)-1]
	rec, err := last.Recommendation()
	if err != nil {
		return last, Recommendation{}, fmt.Errorf("%s: %w", last.Date.Format(DateLayout), err)
	}
	return last, rec, nil
}
