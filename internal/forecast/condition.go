package forecast

import (
	"fmt"
	"strings"
	"time"
)

// WeatherCondition is a coarse weather category used to pick a palette and
// a banner image.
type WeatherCondition string

const (
	ConditionClearWarm    WeatherCondition = "clear_warm"
	ConditionClearCool    WeatherCondition = "clear_cool"
	ConditionPartlyCloudy WeatherCondition = "partly_cloudy"
	ConditionMostlyCloudy WeatherCondition = "mostly_cloudy"
	ConditionLightRain    WeatherCondition = "light_rain"
	ConditionHeavyRain    WeatherCondition = "heavy_rain"
	ConditionStorm        WeatherCondition = "storm"
	ConditionSnow         WeatherCondition = "snow"
	ConditionFog          WeatherCondition = "fog"
	ConditionHot          WeatherCondition = "hot"
	ConditionFrost        WeatherCondition = "frost"
)

// Conditions lists every category, in a stable order.
var Conditions = []WeatherCondition{
	ConditionClearWarm, ConditionClearCool, ConditionPartlyCloudy, ConditionMostlyCloudy,
	ConditionLightRain, ConditionHeavyRain, ConditionStorm, ConditionSnow,
	ConditionFog, ConditionHot, ConditionFrost,
}

func ParseCondition(s string) (WeatherCondition, bool) {
	for _, c := range Conditions {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type TimeOfDay string

const (
	TimeDay   TimeOfDay = "day"
	TimeDusk  TimeOfDay = "dusk"
	TimeNight TimeOfDay = "night"
	TimeDawn  TimeOfDay = "dawn"
)

func ParseTimeOfDay(s string) (TimeOfDay, bool) {
	switch tod := TimeOfDay(s); tod {
	case TimeDay, TimeDusk, TimeNight, TimeDawn:
		return tod, true
	}
	return "", false
}

// GetTimeOfDay buckets the wall-clock hour of t. Pass t already converted to
// the display timezone.
func GetTimeOfDay(t time.Time) TimeOfDay {
	hour := t.Hour()
	switch {
	case hour >= 5 && hour < 7:
		return TimeDawn
	case hour >= 7 && hour < 17:
		return TimeDay
	case hour >= 17 && hour < 20:
		return TimeDusk
	default:
		return TimeNight
	}
}

// ExtractCondition maps a forecast description such as "light rain" or
// "broken clouds" to a category. highF and lowF are the day's range in °F;
// extremes override the description.
func ExtractCondition(description string, highF, lowF float64) WeatherCondition {
	lower := strings.ToLower(description)

	if highF >= 95 {
		return ConditionHot
	}
	if lowF <= 32 && !strings.Contains(lower, "snow") {
		return ConditionFrost
	}

	switch {
	case strings.Contains(lower, "thunder") || strings.Contains(lower, "storm"):
		return ConditionStorm
	case strings.Contains(lower, "snow") || strings.Contains(lower, "sleet"):
		return ConditionSnow
	case strings.Contains(lower, "heavy") && strings.Contains(lower, "rain"),
		strings.Contains(lower, "extreme rain"):
		return ConditionHeavyRain
	case strings.Contains(lower, "rain") || strings.Contains(lower, "shower") ||
		strings.Contains(lower, "drizzle"):
		return ConditionLightRain
	case strings.Contains(lower, "fog") || strings.Contains(lower, "mist") ||
		strings.Contains(lower, "haze") || strings.Contains(lower, "smoke"):
		return ConditionFog
	case strings.Contains(lower, "overcast") || strings.Contains(lower, "broken clouds"):
		return ConditionMostlyCloudy
	case strings.Contains(lower, "clouds"):
		return ConditionPartlyCloudy
	}

	if highF >= 77 {
		return ConditionClearWarm
	}
	return ConditionClearCool
}

// ConditionWithTime joins a condition and time of day, e.g. "storm_night".
// Used as the palette key and the banner cache key.
func ConditionWithTime(condition WeatherCondition, tod TimeOfDay) string {
	return fmt.Sprintf("%s_%s", condition, tod)
}

const baseStylePrompt = `Serene watercolor landscape painting of %s.
Calm lake shoreline framed by tall evergreen forest, distant snow-capped volcanic peak in soft haze.
Style: impressionistic watercolor, soft gradients, muted natural tones, peaceful and minimal.
Wide panoramic composition suitable for a website header banner.
No text, no people, no buildings, no animals.`

var conditionPrompts = map[WeatherCondition]string{
	ConditionClearWarm:    "Warm summer day, clear sky, sparkling water, vivid green trees.",
	ConditionClearCool:    "Cool crisp air, clear pale sky, still water.",
	ConditionPartlyCloudy: "Scattered clouds drifting across the sky, patches of blue between them.",
	ConditionMostlyCloudy: "Heavy grey cloud cover, soft diffused light, muted colors.",
	ConditionLightRain:    "Light rain falling on the lake, wet glistening foliage, grey sky.",
	ConditionHeavyRain:    "Heavy rain, dark low clouds, rain streaks over the water.",
	ConditionStorm:        "Dramatic storm, dark threatening clouds, wind bending the trees, choppy water.",
	ConditionSnow:         "Snow falling softly, white-dusted evergreens, hushed winter scene.",
	ConditionFog:          "Thick mist over the water, trees fading into fog, ethereal atmosphere.",
	ConditionHot:          "Very hot day, hazy bright sky, sun glare on the water.",
	ConditionFrost:        "Cold frosty morning, icy edges on the shore, cold blue tones.",
}

var timePrompts = map[TimeOfDay]string{
	TimeDawn:  "Early dawn, soft pink and orange glow on the horizon, cool blue shadows.",
	TimeDay:   "Bright daylight, sun high in the sky, clear visibility.",
	TimeDusk:  "Sunset, golden hour, warm orange and pink sky reflected on the water, long shadows.",
	TimeNight: "NIGHTTIME SCENE. Dark sky, no sunlight. Stars over deep blue-black sky. Landscape lit only by soft moonlight. Dark silhouettes of trees.",
}

// BuildPrompt assembles the image prompt for a city, condition and time of
// day. The time of day leads so the model weights the lighting.
func BuildPrompt(city string, condition WeatherCondition, tod TimeOfDay) string {
	conditionDesc, ok := conditionPrompts[condition]
	if !ok {
		conditionDesc = conditionPrompts[ConditionClearCool]
	}
	timeDesc, ok := timePrompts[tod]
	if !ok {
		timeDesc = timePrompts[TimeDay]
	}
	place := cityName(city)
	if place == "" {
		place = "a Pacific Northwest lakeside town"
	}
	return fmt.Sprintf("%s\n\n%s\n\nWeather conditions: %s", timeDesc, fmt.Sprintf(baseStylePrompt, place), conditionDesc)
}

// cityName strips the country suffix from a "City,CC" query string.
func cityName(city string) string {
	name, _, _ := strings.Cut(city, ",")
	return strings.TrimSpace(name)
}
