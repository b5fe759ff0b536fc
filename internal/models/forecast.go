package models

import "time"

// ForecastRow is one 3-hour forecast bucket, flattened and with derived
// columns filled in. Timestamp and Date are always UTC.
type ForecastRow struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // percent
	WindSpeed   float64   `json:"wind_speed"`  // m/s
	Description string    `json:"description"`
	Rain        float64   `json:"rain"` // mm over 3h
	Snow        float64   `json:"snow"` // mm over 3h

	Date         time.Time `json:"date"`
	Hour         int       `json:"hour"`
	Month        int       `json:"month"`
	TemperatureF float64   `json:"temperature_f"`
}
