package ingest

import (
	"math"
	"time"

	"github.com/lox/forecastdash/internal/models"
)

// Normalize flattens forecast buckets into rows, in input order. The first
// bucket missing a required key aborts with a MalformedResponseError; absent
// rain or snow is not an error and yields 0.
func Normalize(buckets []Bucket) ([]models.ForecastRow, error) {
	rows := make([]models.ForecastRow, 0, len(buckets))
	for i, b := range buckets {
		row, err := normalizeBucket(i, b)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeBucket(i int, b Bucket) (models.ForecastRow, error) {
	switch {
	case b.Dt == nil:
		return models.ForecastRow{}, missingKey(i, "dt")
	case b.Main == nil:
		return models.ForecastRow{}, missingKey(i, "main")
	case b.Main.Temp == nil:
		return models.ForecastRow{}, missingKey(i, "main.temp")
	case b.Main.Humidity == nil:
		return models.ForecastRow{}, missingKey(i, "main.humidity")
	case b.Wind == nil:
		return models.ForecastRow{}, missingKey(i, "wind")
	case b.Wind.Speed == nil:
		return models.ForecastRow{}, missingKey(i, "wind.speed")
	case b.Weather == nil:
		return models.ForecastRow{}, missingKey(i, "weather")
	case len(b.Weather) == 0:
		return models.ForecastRow{}, missingKey(i, "weather[0]")
	case b.Weather[0].Description == nil:
		return models.ForecastRow{}, missingKey(i, "weather[0].description")
	}

	row := models.ForecastRow{
		Timestamp:   time.Unix(*b.Dt, 0).UTC(),
		Temperature: *b.Main.Temp,
		Humidity:    *b.Main.Humidity,
		WindSpeed:   *b.Wind.Speed,
		Description: *b.Weather[0].Description,
		Rain:        precip3h(b.Rain),
		Snow:        precip3h(b.Snow),
	}
	deriveColumns(&row)
	return row, nil
}

func precip3h(p *Precip) float64 {
	if p == nil || p.ThreeHour == nil {
		return 0
	}
	return *p.ThreeHour
}

// deriveColumns fills Date, Hour, Month and TemperatureF from the UTC
// timestamp and the Celsius temperature.
func deriveColumns(row *models.ForecastRow) {
	ts := row.Timestamp.UTC()
	row.Date = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	row.Hour = ts.Hour()
	row.Month = int(ts.Month())
	row.TemperatureF = CelsiusToFahrenheit(row.Temperature)
}

// CelsiusToFahrenheit converts and rounds to the nearest whole degree,
// halves to even.
func CelsiusToFahrenheit(c float64) float64 {
	return math.RoundToEven(c*9/5 + 32)
}
