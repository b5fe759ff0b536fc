package ingest

import (
	"encoding/json"
	"sort"

	"github.com/lox/forecastdash/internal/models"
)

const (
	FlagTempOutOfRange    = "temp_out_of_range"
	FlagHumidityInvalid   = "humidity_invalid"
	FlagWindSpeedNegative = "wind_speed_negative"
	FlagWindSpeedUnlikely = "wind_speed_unlikely"
	FlagPrecipNegative    = "precip_negative"
)

// ValidateRow returns quality flags for implausible values. Flags are
// advisory: rows are never dropped or altered.
func ValidateRow(row models.ForecastRow) []string {
	var flags []string

	if row.Temperature < -90 || row.Temperature > 60 {
		flags = append(flags, FlagTempOutOfRange)
	}
	if row.Humidity < 0 || row.Humidity > 100 {
		flags = append(flags, FlagHumidityInvalid)
	}
	if row.WindSpeed < 0 {
		flags = append(flags, FlagWindSpeedNegative)
	} else if row.WindSpeed > 115 {
		flags = append(flags, FlagWindSpeedUnlikely)
	}
	if row.Rain < 0 || row.Snow < 0 {
		flags = append(flags, FlagPrecipNegative)
	}

	return flags
}

// ValidateRows returns the distinct flags raised by any row, sorted.
func ValidateRows(rows []models.ForecastRow) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, f := range ValidateRow(row) {
			seen[f] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	flags := make([]string, 0, len(seen))
	for f := range seen {
		flags = append(flags, f)
	}
	sort.Strings(flags)
	return flags
}

func QualityFlagsToJSON(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	b, _ := json.Marshal(flags)
	return string(b)
}
