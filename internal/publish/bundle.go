package publish

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lox/forecastdash/internal/dashboard"
	"github.com/lox/forecastdash/internal/imagegen"
)

// Files maps a relative file name to its contents.
type Files map[string][]byte

// Names returns the file names in sorted order.
func (f Files) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options controls what goes into a static bundle.
type Options struct {
	Location *time.Location
	// Banner is an optional PNG shown above the title and behind the share card.
	Banner []byte
	// SiteURL, when set, is used to build the absolute og:image URL.
	SiteURL string
}

// Bundle renders a static copy of the dashboard: index.html with inline
// charts, og-image.png, forecast.json and report.txt, plus banner.png when
// a banner is given.
func Bundle(snap *dashboard.Snapshot, opts Options) (Files, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	page := dashboard.NewPage(snap, loc)
	page.Charts = dashboard.RenderCharts(snap, loc)
	files := Files{}

	if len(opts.Banner) > 0 {
		files["banner.png"] = opts.Banner
		page.BannerURL = "banner.png"
	}
	if opts.SiteURL != "" {
		page.ShareURL = strings.TrimRight(opts.SiteURL, "/") + "/og-image.png"
	}

	var html bytes.Buffer
	if err := dashboard.RenderPage(&html, page); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	files["index.html"] = html.Bytes()

	card, err := imagegen.GenerateCard(opts.Banner, CardData(page))
	if err != nil {
		return nil, fmt.Errorf("render card: %w", err)
	}
	files["og-image.png"] = card

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	files["forecast.json"] = data

	var report bytes.Buffer
	if err := dashboard.WriteReport(&report, snap, loc); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	files["report.txt"] = report.Bytes()

	return files, nil
}

// CardData is the share card content for a page.
func CardData(p *dashboard.Page) imagegen.CardData {
	city, _, _ := strings.Cut(p.City, ",")
	return imagegen.CardData{
		City:         city,
		TemperatureF: p.Current.TemperatureF,
		Condition:    p.Current.Description,
		LowF:         p.Current.LowF,
		HighF:        p.Current.HighF,
		HasRange:     p.Current.HasRange,
		Footer:       "Updated " + p.UpdatedAt,
		// Page backgrounds are too light under white text.
		Background: p.Palette.Accent,
		Accent:     p.Palette.AccentAlt,
	}
}

// WriteDir writes files into dir, creating it if needed. Each file is
// written to a temporary name and renamed so readers never see a partial
// file.
func WriteDir(dir string, files Files) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	var total uint64
	for _, name := range files.Names() {
		data := files[name]
		path := filepath.Join(dir, name)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", name, err)
		}
		total += uint64(len(data))
	}

	log.Printf("publish: wrote %d files (%s) to %s", len(files), humanize.Bytes(total), dir)
	return nil
}
