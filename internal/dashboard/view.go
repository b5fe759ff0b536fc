package dashboard

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lox/forecastdash/internal/forecast"
	"github.com/lox/forecastdash/internal/stats"
)

var titleCaser = cases.Title(language.English)

// Title upper-cases the first letter of every word: "light rain" becomes
// "Light Rain".
func Title(s string) string {
	return titleCaser.String(s)
}

type Current struct {
	Description  string
	TemperatureF float64
	LowF         float64
	HighF        float64
	HasRange     bool
	Humidity     float64
	WindSpeed    float64
}

func (c Current) Temperature() string { return fmt.Sprintf("%.0f°F", c.TemperatureF) }
func (c Current) LowHigh() string {
	return fmt.Sprintf("%.0f°F/%.0f°F", c.LowF, c.HighF)
}
func (c Current) HumidityText() string { return fmt.Sprintf("%.0f%%", c.Humidity) }
func (c Current) WindText() string {
	return strconv.FormatFloat(c.WindSpeed, 'f', -1, 64) + " m/s"
}

type NextSlot struct {
	Time         string
	TemperatureF float64
	Description  string
}

type SummaryRow struct {
	Label       string
	Temperature float64
	Humidity    float64
	WindSpeed   float64
}

// Page is everything the dashboard template renders.
type Page struct {
	Title     string
	City      string
	UpdatedAt string

	Current Current
	Next    *NextSlot

	AverageTemp     string
	CorrelationText string
	SummaryRows     []SummaryRow
	Charts          []Chart
	QualityFlags    []string

	Condition forecast.WeatherCondition
	TimeOfDay forecast.TimeOfDay
	Palette   forecast.Palette
	BannerURL string
	ShareURL  string
}

// NewPage builds the view of snap, localizing times to loc. Charts are not
// rendered; call RenderCharts and assign Page.Charts when they are needed.
func NewPage(snap *Snapshot, loc *time.Location) *Page {
	first := snap.Rows[0]
	local := first.Timestamp.In(loc)

	p := &Page{
		Title:     "5-Day Weather Forecast for " + snap.City,
		City:      snap.City,
		UpdatedAt: local.Format("2006-01-02 15:04:05"),
		Current: Current{
			Description:  Title(first.Description),
			TemperatureF: first.TemperatureF,
			Humidity:     first.Humidity,
			WindSpeed:    first.WindSpeed,
		},
		AverageTemp:     fmt.Sprintf("%.0f°F", snap.MeanTempF),
		CorrelationText: CorrelationText(snap),
		SummaryRows:     SummaryRows(snap.Summary),
		QualityFlags:    snap.QualityFlags,
	}

	if len(snap.DailyTemp) > 0 {
		p.Current.LowF = snap.DailyTemp[0].Min
		p.Current.HighF = snap.DailyTemp[0].Max
		p.Current.HasRange = true
	}

	if len(snap.Rows) > 1 {
		next := snap.Rows[1]
		p.Next = &NextSlot{
			Time:         first.Timestamp.Add(3 * time.Hour).In(loc).Format("15:04:05"),
			TemperatureF: next.TemperatureF,
			Description:  Title(next.Description),
		}
	}

	p.Condition = forecast.ExtractCondition(first.Description, p.Current.HighF, p.Current.LowF)
	p.TimeOfDay = forecast.GetTimeOfDay(local)
	p.Palette = forecast.GetPalette(p.Condition, p.TimeOfDay)
	return p
}

// CorrelationText is the sentence shown under the scatter plot.
func CorrelationText(snap *Snapshot) string {
	if !snap.CorrelationOK {
		return "Correlation: not computable (" + snap.CorrelationNote + ")."
	}
	return fmt.Sprintf("Correlation: %.2f. A strong negative correlation indicates that as temperature increases, humidity tends to decrease.", snap.Correlation)
}

func SummaryRows(s stats.Summary) []SummaryRow {
	return []SummaryRow{
		{"Average", s.Temperature.Mean, s.Humidity.Mean, s.WindSpeed.Mean},
		{"Standard Deviation", s.Temperature.StdDev, s.Humidity.StdDev, s.WindSpeed.StdDev},
		{"Lowest", s.Temperature.Min, s.Humidity.Min, s.WindSpeed.Min},
		{"Highest", s.Temperature.Max, s.Humidity.Max, s.WindSpeed.Max},
	}
}
