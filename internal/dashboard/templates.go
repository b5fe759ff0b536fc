package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/lox/forecastdash/internal/ingest"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"join": strings.Join,
	"fmt2": func(f float64) string { return fmt.Sprintf("%.2f", f) },
}).ParseFS(templateFS, "templates/*.html"))

// RenderPage writes the full dashboard HTML.
func RenderPage(w io.Writer, p *Page) error {
	return templates.ExecuteTemplate(w, "dashboard.html", p)
}

// ErrorPage is the only thing rendered when a load fails.
type ErrorPage struct {
	Title   string
	Message string
}

func RenderError(w io.Writer, e ErrorPage) error {
	return templates.ExecuteTemplate(w, "error.html", e)
}

// UserMessage turns a load error into the text shown to the reader, one
// message per failure kind.
func UserMessage(err error) string {
	switch FailureKind(err) {
	case ingest.KindTransport, ingest.KindHTTPStatus:
		return fmt.Sprintf("Error fetching data: %v", err)
	case ingest.KindMalformed:
		return fmt.Sprintf("Error parsing JSON: %v", err)
	case KindInsufficientData:
		return fmt.Sprintf("Not enough forecast data to build the dashboard: %v", err)
	default:
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}
