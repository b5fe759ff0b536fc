package api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lox/forecastdash/internal/api"
	"github.com/lox/forecastdash/internal/dashboard"
	"github.com/lox/forecastdash/internal/imagegen"
	"github.com/lox/forecastdash/internal/ingest"
	"github.com/lox/forecastdash/internal/store"

	_ "modernc.org/sqlite"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	if err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	return s
}

// forecastBody builds n buckets, 3 hours apart.
func forecastBody(n int) string {
	var b strings.Builder
	b.WriteString(`{"list":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"dt":%d,"main":{"temp":%d,"humidity":%d},"wind":{"speed":%g},"weather":[{"description":"light rain"}]}`,
			1700000000+i*3*3600, 10+i%6, 90-i%6*5, 1+float64(i%3))
	}
	b.WriteString(`]}`)
	return b.String()
}

type fakeOWM struct {
	*httptest.Server
	calls atomic.Int32
}

func newFakeOWM(t *testing.T, status int, body string) *fakeOWM {
	t.Helper()
	f := &fakeOWM{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(f.Close)
	return f
}

func newServer(t *testing.T, owm *fakeOWM, opts api.Options) *api.Server {
	t.Helper()
	client := ingest.NewClient(ingest.Config{
		Endpoint: owm.URL,
		City:     "Kirkland,US",
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
	})
	var recorder dashboard.Recorder
	if opts.Store != nil {
		recorder = opts.Store
	}
	pipeline := dashboard.NewPipeline(client, "Kirkland,US", recorder)
	return api.NewServer(pipeline, "8080", time.UTC, opts)
}

func get(t *testing.T, srv *api.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func solidPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{10, 20, 30, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	cache := imagegen.NewCache(t.TempDir(), 0)
	if err := cache.Set("fog_dawn", solidPNG(t)); err != nil {
		t.Fatal(err)
	}
	srv := newServer(t, newFakeOWM(t, 200, forecastBody(8)), api.Options{Store: setupTestStore(t), ImageCache: cache})

	w := get(t, srv, "/health")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["city"] != "Kirkland,US" {
		t.Errorf("city = %v", resp["city"])
	}
	if v, ok := resp["schema_version"].(float64); !ok || v < 1 {
		t.Errorf("schema_version = %v, want the applied migration", resp["schema_version"])
	}
	banners, _ := resp["cached_banners"].([]any)
	if len(banners) != 1 || banners[0] != "fog_dawn" {
		t.Errorf("cached_banners = %v, want [fog_dawn]", resp["cached_banners"])
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()
	owm := newFakeOWM(t, 200, forecastBody(16))
	srv := newServer(t, owm, api.Options{})

	w := get(t, srv, "/")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "<h1>5-Day Weather Forecast for Kirkland,US</h1>") {
		t.Error("expected title h1")
	}
	if !strings.Contains(body, "data:image/png;base64,") {
		t.Error("expected inline chart images")
	}
	if !strings.Contains(body, "http://example.com/og-image.png") {
		t.Error("expected absolute og:image URL")
	}
	if strings.Contains(body, "banner.png") {
		t.Error("expected no banner without a generator or cached image")
	}
	if owm.calls.Load() != 1 {
		t.Errorf("forecast fetched %d times, want 1", owm.calls.Load())
	}
}

func TestIndex_CachedBanner(t *testing.T) {
	t.Parallel()
	cache := imagegen.NewCache(t.TempDir(), 0)
	// Every bucket is "light rain" at 10-15°C; the first is at 22:13 UTC.
	if err := cache.Set("light_rain_night", solidPNG(t)); err != nil {
		t.Fatal(err)
	}
	srv := newServer(t, newFakeOWM(t, 200, forecastBody(16)), api.Options{ImageCache: cache})

	w := get(t, srv, "/")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/banner.png?condition=light_rain") {
		t.Error("expected banner for the cached condition")
	}
}

func TestIndex_Failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   int
		wantPrefix string
	}{
		{"unauthorized", 401, `{"cod":401,"message":"Invalid API key"}`, http.StatusBadGateway, "Error fetching data:"},
		{"server error", 500, `oops`, http.StatusBadGateway, "Error fetching data:"},
		{"not json", 200, `not json`, http.StatusBadGateway, "Error parsing JSON:"},
		{"missing key", 200, `{"list":[{"dt":1700000000}]}`, http.StatusBadGateway, "Error parsing JSON:"},
		{"empty list", 200, `{"list":[]}`, http.StatusInternalServerError, "Not enough forecast data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, newFakeOWM(t, tt.status, tt.body), api.Options{})
			w := get(t, srv, "/")

			if w.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", w.Code, tt.wantCode)
			}
			body := w.Body.String()
			if !strings.Contains(body, tt.wantPrefix) {
				t.Errorf("body missing %q:\n%s", tt.wantPrefix, body)
			}
			if strings.Contains(body, "data:image/png") || strings.Contains(body, "Temperature") {
				t.Error("error page should not render dashboard content")
			}
			if strings.Contains(body, "test-key") {
				t.Error("error page leaked the API key")
			}
		})
	}
}

func TestIndex_NotFound(t *testing.T) {
	t.Parallel()
	owm := newFakeOWM(t, 200, forecastBody(8))
	srv := newServer(t, owm, api.Options{})

	if w := get(t, srv, "/nope"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if owm.calls.Load() != 0 {
		t.Error("unknown path should not fetch")
	}
}

func TestAPIForecast(t *testing.T) {
	t.Parallel()
	srv := newServer(t, newFakeOWM(t, 200, forecastBody(16)), api.Options{})

	w := get(t, srv, "/api/forecast")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var snap dashboard.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Rows) != 16 {
		t.Errorf("rows = %d, want 16", len(snap.Rows))
	}
	if snap.Rows[0].TemperatureF != 50 {
		t.Errorf("first TemperatureF = %v, want 50", snap.Rows[0].TemperatureF)
	}
	if len(snap.DailyTemp) == 0 || !snap.CorrelationOK {
		t.Errorf("aggregates missing: %+v", snap)
	}
}

func TestAPIForecast_Error(t *testing.T) {
	t.Parallel()
	srv := newServer(t, newFakeOWM(t, 404, `{"cod":"404","message":"city not found"}`), api.Options{})

	w := get(t, srv, "/api/forecast")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != ingest.KindHTTPStatus {
		t.Errorf("kind = %q, want %q", resp.Kind, ingest.KindHTTPStatus)
	}
	if !strings.Contains(resp.Error, "404") {
		t.Errorf("error = %q, want status code", resp.Error)
	}
}

func TestAPIRuns(t *testing.T) {
	t.Parallel()
	st := setupTestStore(t)

	okSrv := newServer(t, newFakeOWM(t, 200, forecastBody(8)), api.Options{Store: st})
	badSrv := newServer(t, newFakeOWM(t, 503, `down`), api.Options{Store: st})
	get(t, okSrv, "/api/forecast")
	get(t, badSrv, "/api/forecast")

	type runsResp struct {
		Runs []struct {
			City        string `json:"city"`
			Success     bool   `json:"success"`
			HTTPStatus  *int64 `json:"http_status"`
			RowsParsed  *int64 `json:"rows_parsed"`
			FailureKind string `json:"failure_kind"`
		} `json:"runs"`
		Health []store.RunHealthSummary `json:"health"`
	}

	w := get(t, okSrv, "/api/runs")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var all runsResp
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all.Runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(all.Runs))
	}
	if len(all.Health) != 1 || all.Health[0].TotalRuns != 2 || all.Health[0].TotalRows != 8 {
		t.Errorf("health = %+v", all.Health)
	}

	w = get(t, okSrv, "/api/runs?failed=1")
	var failed runsResp
	if err := json.Unmarshal(w.Body.Bytes(), &failed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(failed.Runs) != 1 {
		t.Fatalf("failed runs = %d, want 1", len(failed.Runs))
	}
	run := failed.Runs[0]
	if run.Success || run.FailureKind != ingest.KindHTTPStatus {
		t.Errorf("failed run = %+v", run)
	}
	if run.HTTPStatus == nil || *run.HTTPStatus != 503 {
		t.Errorf("http_status = %v, want 503", run.HTTPStatus)
	}
	if run.RowsParsed != nil {
		t.Errorf("rows_parsed = %v, want absent", *run.RowsParsed)
	}
}

func TestAPIRuns_BadRequests(t *testing.T) {
	t.Parallel()
	owm := newFakeOWM(t, 200, forecastBody(8))

	noStore := newServer(t, owm, api.Options{})
	if w := get(t, noStore, "/api/runs"); w.Code != http.StatusNotFound {
		t.Errorf("without store: expected 404, got %d", w.Code)
	}

	withStore := newServer(t, owm, api.Options{Store: setupTestStore(t)})
	for _, limit := range []string{"0", "-1", "abc"} {
		if w := get(t, withStore, "/api/runs?limit="+limit); w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected 400, got %d", limit, w.Code)
		}
	}
}

func TestBanner(t *testing.T) {
	t.Parallel()
	cache := imagegen.NewCache(t.TempDir(), 0)
	banner := solidPNG(t)
	if err := cache.Set("fog_dawn", banner); err != nil {
		t.Fatal(err)
	}
	srv := newServer(t, newFakeOWM(t, 200, forecastBody(8)), api.Options{ImageCache: cache})

	tests := []struct {
		name     string
		query    string
		wantCode int
	}{
		{"cached", "condition=fog&tod=dawn", http.StatusOK},
		{"not cached, no generator", "condition=storm&tod=night", http.StatusServiceUnavailable},
		{"unknown condition", "condition=sunny", http.StatusBadRequest},
		{"missing condition", "", http.StatusBadRequest},
		{"unknown time of day", "condition=fog&tod=noon", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, srv, "/banner.png?"+tt.query)
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				if !bytes.Equal(w.Body.Bytes(), banner) {
					t.Error("expected cached banner bytes")
				}
				if w.Header().Get("Content-Type") != "image/png" {
					t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
				}
			}
		})
	}
}

func TestOGImage(t *testing.T) {
	t.Parallel()
	owm := newFakeOWM(t, 200, forecastBody(8))
	srv := newServer(t, owm, api.Options{})

	w := get(t, srv, "/og-image.png")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode card: %v", err)
	}
	if b := img.Bounds(); b.Dx() != imagegen.CardWidth || b.Dy() != imagegen.CardHeight {
		t.Errorf("card size = %v", b)
	}

	// Served from the card cache.
	if w := get(t, srv, "/og-image.png"); w.Code != 200 {
		t.Fatalf("second request: %d", w.Code)
	}
	if owm.calls.Load() != 1 {
		t.Errorf("forecast fetched %d times, want 1", owm.calls.Load())
	}
}

func TestOGImage_UpstreamFailure(t *testing.T) {
	t.Parallel()
	srv := newServer(t, newFakeOWM(t, 500, `boom`), api.Options{})

	if w := get(t, srv, "/og-image.png"); w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv := newServer(t, newFakeOWM(t, 200, forecastBody(8)), api.Options{})
	get(t, srv, "/api/forecast")

	w := get(t, srv, "/metrics")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"forecastdash_dashboard_renders_total", "forecastdash_forecast_api_calls_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics missing %s", name)
		}
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()
	srv := newServer(t, newFakeOWM(t, 200, forecastBody(8)), api.Options{})

	w := get(t, srv, "/health")
	if id := w.Header().Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("X-Request-ID = %q, want a UUID", id)
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if id := w.Header().Get("X-Request-ID"); id != "abc-123" {
		t.Errorf("X-Request-ID = %q, want caller's id", id)
	}
}
