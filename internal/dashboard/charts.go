package dashboard

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/lox/forecastdash/internal/models"
	"github.com/lox/forecastdash/internal/stats"
)

var (
	colorMean = drawing.ColorFromHex("a6d8f7")
	colorLow  = drawing.ColorFromHex("272727")
	colorHigh = drawing.ColorFromHex("E07A5F")
)

// Chart is one rendered PNG. When rendering is impossible (for example a
// single day of data) PNG is nil and Note explains why.
type Chart struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	PNG   []byte `json:"-"`
	Note  string `json:"note,omitempty"`
}

func (c Chart) DataURI() template.URL {
	if len(c.PNG) == 0 {
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(c.PNG))
}

// RenderCharts draws the four dashboard charts. Timestamps on the trend
// chart are shown in loc; daily charts are labelled by calendar date.
func RenderCharts(snap *Snapshot, loc *time.Location) []Chart {
	return []Chart{
		renderChart("temperature-range", "Daily Temperature Range", func() chart.Chart {
			return rangeChart(snap.DailyTemp, "Temperature (°F)")
		}),
		renderChart("wind-range", "Daily Wind Speed Range", func() chart.Chart {
			return rangeChart(snap.DailyWind, "Wind Speed (m/s)")
		}),
		renderChart("temp-humidity", "Temperature vs. Humidity Correlation", func() chart.Chart {
			return scatterChart(snap.Rows)
		}),
		renderChart("temperature-trend", "Temperature Trend Over 5 Days", func() chart.Chart {
			return trendChart(snap.Rows, loc)
		}),
	}
}

func renderChart(id, title string, build func() chart.Chart) Chart {
	c := Chart{ID: id, Title: title}
	png, err := renderPNG(build())
	if err != nil {
		log.Printf("dashboard: chart %s: %v", id, err)
		c.Note = "Not enough data to draw this chart."
		return c
	}
	c.PNG = png
	return c
}

func renderPNG(c chart.Chart) (b []byte, err error) {
	// go-chart panics on some degenerate inputs instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("render panic: %v", r)
		}
	}()

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rangeChart(ranges []stats.DailyRange, yName string) chart.Chart {
	dates := make([]time.Time, len(ranges))
	mins := make([]float64, len(ranges))
	means := make([]float64, len(ranges))
	maxs := make([]float64, len(ranges))
	for i, r := range ranges {
		dates[i] = r.Date
		mins[i] = r.Min
		means[i] = r.Mean
		maxs[i] = r.Max
	}

	c := chart.Chart{
		Width:      1000,
		Height:     500,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 20, Right: 20, Bottom: 10}},
		XAxis:      chart.XAxis{ValueFormatter: dateFormatter},
		YAxis:      chart.YAxis{Name: yName},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Average",
				Style:   chart.Style{StrokeColor: colorMean, StrokeWidth: 2, FillColor: colorMean.WithAlpha(160)},
				XValues: dates,
				YValues: means,
			},
			chart.TimeSeries{
				Name:    "Lowest",
				Style:   chart.Style{StrokeColor: colorLow, StrokeWidth: 2, DotColor: colorLow, DotWidth: 4},
				XValues: dates,
				YValues: mins,
			},
			chart.TimeSeries{
				Name:    "Highest",
				Style:   chart.Style{StrokeColor: colorHigh, StrokeWidth: 2, DotColor: colorHigh, DotWidth: 4},
				XValues: dates,
				YValues: maxs,
			},
		},
	}
	c.Elements = []chart.Renderable{chart.Legend(&c)}
	return c
}

func scatterChart(rows []models.ForecastRow) chart.Chart {
	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, r := range rows {
		xs[i] = r.TemperatureF
		ys[i] = r.Humidity
	}

	return chart.Chart{
		Width:      800,
		Height:     600,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 20, Right: 20, Bottom: 10}},
		XAxis:      chart.XAxis{Name: "Temperature (°F)"},
		YAxis:      chart.YAxis{Name: "Humidity (%)"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
					DotColor:    colorMean,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}
}

func trendChart(rows []models.ForecastRow, loc *time.Location) chart.Chart {
	ts := make([]time.Time, len(rows))
	temps := make([]float64, len(rows))
	for i, r := range rows {
		ts[i] = r.Timestamp
		temps[i] = r.TemperatureF
	}

	return chart.Chart{
		Width:      1000,
		Height:     500,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 20, Right: 20, Bottom: 10}},
		XAxis:      chart.XAxis{ValueFormatter: timeFormatter(loc)},
		YAxis:      chart.YAxis{Name: "Temperature (°F)"},
		Series: []chart.Series{
			chart.TimeSeries{
				Style:   chart.Style{StrokeColor: colorMean, StrokeWidth: 3},
				XValues: ts,
				YValues: temps,
			},
		},
	}
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case float64:
		return chart.TimeFromFloat64(t), true
	}
	return time.Time{}, false
}

// dateFormatter labels calendar dates, which are stored as UTC midnight.
func dateFormatter(v interface{}) string {
	t, ok := asTime(v)
	if !ok {
		return ""
	}
	return t.UTC().Format("Jan 02")
}

func timeFormatter(loc *time.Location) chart.ValueFormatter {
	return func(v interface{}) string {
		t, ok := asTime(v)
		if !ok {
			return ""
		}
		return t.In(loc).Format("Jan 02 15h")
	}
}
