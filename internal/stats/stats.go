package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"

	"github.com/lox/forecastdash/internal/models"
)

// InsufficientDataError is returned when a statistic is not computable
// from the rows given.
type InsufficientDataError struct {
	Op     string
	Need   int
	Have   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: insufficient data: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: insufficient data: need %d rows, have %d", e.Op, e.Need, e.Have)
}

// Field selects one numeric column from a row.
type Field func(models.ForecastRow) float64

func TempF(r models.ForecastRow) float64     { return r.TemperatureF }
func Humidity(r models.ForecastRow) float64  { return r.Humidity }
func WindSpeed(r models.ForecastRow) float64 { return r.WindSpeed }

func column(rows []models.ForecastRow, field Field) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = field(r)
	}
	return out
}

type DailyRange struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
	Min   float64   `json:"min"`
	Mean  float64   `json:"mean"`
	Max   float64   `json:"max"`
}

// DailyRanges groups rows by their Date column and returns min/mean/max of
// field for each date, oldest first. Every row lands in exactly one group.
func DailyRanges(rows []models.ForecastRow, field Field) []DailyRange {
	groups := make(map[time.Time][]float64)
	var dates []time.Time
	for _, r := range rows {
		if _, ok := groups[r.Date]; !ok {
			dates = append(dates, r.Date)
		}
		groups[r.Date] = append(groups[r.Date], field(r))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]DailyRange, 0, len(dates))
	for _, d := range dates {
		vals := groups[d]
		out = append(out, DailyRange{
			Date:  d,
			Count: len(vals),
			Min:   floats.Min(vals),
			Mean:  stat.Mean(vals, nil),
			Max:   floats.Max(vals),
		})
	}
	return out
}

// MeanTempF is the mean Fahrenheit temperature across all rows.
func MeanTempF(rows []models.ForecastRow) (float64, error) {
	if len(rows) == 0 {
		return 0, &InsufficientDataError{Op: "mean temperature", Need: 1, Have: 0}
	}
	return stat.Mean(column(rows, TempF), nil), nil
}

// Pearson returns the Pearson correlation coefficient of x and y. Fewer than
// two points, or a constant series, is an InsufficientDataError rather than
// a NaN.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("pearson: length mismatch %d != %d", len(x), len(y))
	}
	if len(x) < 2 {
		return 0, &InsufficientDataError{Op: "correlation", Need: 2, Have: len(x)}
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, &InsufficientDataError{Op: "correlation", Need: 2, Have: len(x), Reason: "zero variance"}
	}
	return r, nil
}

// Correlation is the Pearson coefficient between Fahrenheit temperature
// and humidity.
func Correlation(rows []models.ForecastRow) (float64, error) {
	return Pearson(column(rows, TempF), column(rows, Humidity))
}

type ColumnSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type Summary struct {
	Count       int           `json:"count"`
	Temperature ColumnSummary `json:"temperature_f"`
	Humidity    ColumnSummary `json:"humidity"`
	WindSpeed   ColumnSummary `json:"wind_speed"`
}

// Summarize computes mean, sample standard deviation, min and max for the
// Fahrenheit temperature, humidity and wind speed columns, each rounded to
// two decimal places. A single row has a standard deviation of 0.
func Summarize(rows []models.ForecastRow) (Summary, error) {
	if len(rows) == 0 {
		return Summary{}, &InsufficientDataError{Op: "summary", Need: 1, Have: 0}
	}
	return Summary{
		Count:       len(rows),
		Temperature: summarizeColumn(column(rows, TempF)),
		Humidity:    summarizeColumn(column(rows, Humidity)),
		WindSpeed:   summarizeColumn(column(rows, WindSpeed)),
	}, nil
}

func summarizeColumn(vals []float64) ColumnSummary {
	var sd float64
	if len(vals) > 1 {
		sd = stat.StdDev(vals, nil)
	}
	return ColumnSummary{
		Mean:   round2(stat.Mean(vals, nil)),
		StdDev: round2(sd),
		Min:    round2(floats.Min(vals)),
		Max:    round2(floats.Max(vals)),
	}
}

func round2(v float64) float64 {
	return scalar.RoundEven(v, 2)
}
