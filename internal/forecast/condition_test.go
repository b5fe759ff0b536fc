package forecast

import (
	"strings"
	"testing"
	"time"
)

func TestExtractCondition(t *testing.T) {
	tests := []struct {
		name        string
		description string
		highF       float64
		lowF        float64
		want        WeatherCondition
	}{
		{"hot day overrides description", "scattered clouds", 99, 70, ConditionHot},
		{"frost overrides description", "clear sky", 45, 30, ConditionFrost},
		{"snow below freezing stays snow", "light snow", 34, 28, ConditionSnow},
		{"thunderstorm", "thunderstorm with light rain", 80, 60, ConditionStorm},
		{"heavy rain", "heavy intensity rain", 60, 50, ConditionHeavyRain},
		{"extreme rain", "extreme rain", 60, 50, ConditionHeavyRain},
		{"light rain", "light rain", 55, 45, ConditionLightRain},
		{"moderate rain", "moderate rain", 55, 45, ConditionLightRain},
		{"drizzle", "light intensity drizzle", 55, 45, ConditionLightRain},
		{"shower", "shower rain", 55, 45, ConditionLightRain},
		{"snow", "snow", 36, 33, ConditionSnow},
		{"sleet", "sleet", 36, 33, ConditionSnow},
		{"mist", "mist", 52, 44, ConditionFog},
		{"smoke", "smoke", 70, 55, ConditionFog},
		{"overcast", "overcast clouds", 60, 48, ConditionMostlyCloudy},
		{"broken clouds", "broken clouds", 60, 48, ConditionMostlyCloudy},
		{"few clouds", "few clouds", 65, 50, ConditionPartlyCloudy},
		{"scattered clouds", "scattered clouds", 65, 50, ConditionPartlyCloudy},
		{"clear warm", "clear sky", 82, 60, ConditionClearWarm},
		{"clear cool", "clear sky", 58, 42, ConditionClearCool},
		{"case insensitive", "Light Rain", 55, 45, ConditionLightRain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCondition(tt.description, tt.highF, tt.lowF)
			if got != tt.want {
				t.Errorf("ExtractCondition(%q, %v, %v) = %v, want %v", tt.description, tt.highF, tt.lowF, got, tt.want)
			}
		})
	}
}

func TestGetTimeOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want TimeOfDay
	}{
		{0, TimeNight},
		{4, TimeNight},
		{5, TimeDawn},
		{6, TimeDawn},
		{7, TimeDay},
		{16, TimeDay},
		{17, TimeDusk},
		{19, TimeDusk},
		{20, TimeNight},
		{23, TimeNight},
	}

	for _, tt := range tests {
		ts := time.Date(2024, 7, 1, tt.hour, 30, 0, 0, time.UTC)
		if got := GetTimeOfDay(ts); got != tt.want {
			t.Errorf("GetTimeOfDay(%02d:30) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestParseConditionAndTimeOfDay(t *testing.T) {
	for _, c := range Conditions {
		got, ok := ParseCondition(string(c))
		if !ok || got != c {
			t.Errorf("ParseCondition(%q) = %v, %v", c, got, ok)
		}
	}
	if _, ok := ParseCondition("sunny"); ok {
		t.Error("ParseCondition(sunny) should fail")
	}
	if _, ok := ParseTimeOfDay("dusk"); !ok {
		t.Error("ParseTimeOfDay(dusk) should succeed")
	}
	if _, ok := ParseTimeOfDay("noon"); ok {
		t.Error("ParseTimeOfDay(noon) should fail")
	}
}

func TestConditionWithTime(t *testing.T) {
	if got := ConditionWithTime(ConditionStorm, TimeNight); got != "storm_night" {
		t.Errorf("ConditionWithTime = %q, want storm_night", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Kirkland,US", ConditionStorm, TimeNight)

	if !strings.HasPrefix(prompt, "NIGHTTIME SCENE.") {
		t.Errorf("prompt should lead with time of day, got %q", prompt[:40])
	}
	if !strings.Contains(prompt, "Kirkland") {
		t.Error("prompt should name the city")
	}
	if strings.Contains(prompt, ",US") {
		t.Error("prompt should not include the country suffix")
	}
	if !strings.Contains(prompt, conditionPrompts[ConditionStorm]) {
		t.Error("prompt should include the condition description")
	}
}

func TestBuildPrompt_Fallbacks(t *testing.T) {
	prompt := BuildPrompt("", WeatherCondition("unknown"), TimeOfDay("noon"))
	if !strings.Contains(prompt, conditionPrompts[ConditionClearCool]) {
		t.Error("unknown condition should fall back to clear_cool")
	}
	if !strings.Contains(prompt, timePrompts[TimeDay]) {
		t.Error("unknown time of day should fall back to day")
	}
	if strings.Contains(prompt, "%!") {
		t.Errorf("prompt has a formatting error: %q", prompt)
	}
}

func TestGetPalette(t *testing.T) {
	for _, c := range Conditions {
		p := GetPalette(c, TimeDay)
		if p == DefaultPalette {
			t.Errorf("GetPalette(%s, day) fell back to default", c)
		}
		if p.Background == "" || p.Text == "" || p.Accent == "" {
			t.Errorf("GetPalette(%s, day) has empty colors: %+v", c, p)
		}
	}

	if got := GetPalette(ConditionClearWarm, TimeNight); got != nightPalette {
		t.Errorf("night palette = %+v, want %+v", got, nightPalette)
	}

	dusk := GetPalette(ConditionStorm, TimeDusk)
	if dusk.Background != twilightBackgrounds[TimeDusk] {
		t.Errorf("dusk background = %s, want %s", dusk.Background, twilightBackgrounds[TimeDusk])
	}
	if dusk.Accent != dayPalettes[ConditionStorm].Accent {
		t.Errorf("dusk should keep the condition accent")
	}

	if got := GetPalette(WeatherCondition("bogus"), TimeDay); got != DefaultPalette {
		t.Errorf("unknown condition = %+v, want default", got)
	}
}
