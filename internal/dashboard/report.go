package dashboard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

// WriteReport prints the dashboard as plain text: the same figures as the
// HTML page, without charts.
func WriteReport(w io.Writer, snap *Snapshot, loc *time.Location) error {
	p := NewPage(snap, loc)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n", p.Title)
	fmt.Fprintf(tw, "%s\n\n", strings.Repeat("=", len(p.Title)))
	fmt.Fprintf(tw, "Updated at:\t%s (fetched %s)\n", p.UpdatedAt, humanize.Time(snap.FetchedAt))
	fmt.Fprintf(tw, "Current weather:\t%s\n", p.Current.Description)
	fmt.Fprintf(tw, "Temperature:\t%s\n", p.Current.Temperature())
	fmt.Fprintf(tw, "Lowest/Highest:\t%s\n", p.Current.LowHigh())
	fmt.Fprintf(tw, "Humidity:\t%s\n", p.Current.HumidityText())
	fmt.Fprintf(tw, "Wind speed:\t%s\n", p.Current.WindText())
	if p.Next != nil {
		fmt.Fprintf(tw, "Next 3 hours (%s):\t%.0f°F, %s\n", p.Next.Time, p.Next.TemperatureF, p.Next.Description)
	}
	fmt.Fprintf(tw, "Average over %d readings:\t%s\n\n", len(snap.Rows), p.AverageTemp)

	fmt.Fprintln(tw, "Date\tLow °F\tMean °F\tHigh °F\tLow wind\tMean wind\tHigh wind")
	for i, t := range snap.DailyTemp {
		fmt.Fprintf(tw, "%s\t%.0f\t%.1f\t%.0f", t.Date.Format("2006-01-02"), t.Min, t.Mean, t.Max)
		if i < len(snap.DailyWind) {
			wd := snap.DailyWind[i]
			fmt.Fprintf(tw, "\t%.2f\t%.2f\t%.2f", wd.Min, wd.Mean, wd.Max)
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, p.CorrelationText)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "\tTemperature (°F)\tHumidity (%)\tWind Speed (m/s)")
	for _, r := range p.SummaryRows {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\n", r.Label, r.Temperature, r.Humidity, r.WindSpeed)
	}

	if len(p.QualityFlags) > 0 {
		fmt.Fprintf(tw, "\nData quality flags:\t%s\n", strings.Join(p.QualityFlags, ", "))
	}
	return tw.Flush()
}
