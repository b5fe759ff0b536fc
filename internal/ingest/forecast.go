package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/lox/forecastdash/internal/httputil"
	"github.com/lox/forecastdash/internal/metrics"
)

const DefaultEndpoint = "https://api.openweathermap.org/data/2.5/forecast"

// MaxBodyBytes caps a forecast payload. A full 40-bucket response is well
// under 64 KiB.
const MaxBodyBytes int64 = 4 << 20

// Config is everything the forecast client needs for one city.
type Config struct {
	Endpoint string
	City     string
	APIKey   string
	Timeout  time.Duration

	// RateLimit caps outbound calls per second; zero disables the limiter.
	RateLimit float64
	Burst     int
}

type Client struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	c := &Client{
		cfg:    cfg,
		client: httputil.NewClient(cfg.Timeout),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// City returns the configured city identifier.
func (c *Client) City() string {
	return c.cfg.City
}

// Response is the subset of the 5 day / 3 hour forecast payload we read.
// Pointer fields distinguish an absent key from a zero value.
type Response struct {
	List []Bucket      `json:"list"`
	City *ResponseCity `json:"city"`

	// StatusCode is the HTTP status the payload arrived with; zero when the
	// response was decoded from bytes rather than fetched.
	StatusCode int `json:"-"`
}

type ResponseCity struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	Timezone int    `json:"timezone"` // seconds east of UTC
}

type Bucket struct {
	Dt      *int64          `json:"dt"`
	Main    *BucketMain     `json:"main"`
	Wind    *BucketWind     `json:"wind"`
	Weather []BucketWeather `json:"weather"`
	Rain    *Precip         `json:"rain"`
	Snow    *Precip         `json:"snow"`
}

type BucketMain struct {
	Temp     *float64 `json:"temp"`
	Humidity *float64 `json:"humidity"`
}

type BucketWind struct {
	Speed *float64 `json:"speed"`
}

type BucketWeather struct {
	Description *string `json:"description"`
}

type Precip struct {
	ThreeHour *float64 `json:"3h"`
}

// FetchForecast performs one GET against the forecast endpoint. It never
// retries; every failure comes back as one of the package's error types.
func (c *Client) FetchForecast(ctx context.Context) (*Response, error) {
	start := time.Now()
	resp, err := c.fetch(ctx)

	outcome := "ok"
	if err != nil {
		outcome = ErrorKind(err)
	}
	metrics.ForecastAPICallsTotal.WithLabelValues(c.cfg.City, outcome).Inc()
	metrics.ForecastAPILatency.WithLabelValues(c.cfg.City).Observe(time.Since(start).Seconds())
	return resp, err
}

func (c *Client) fetch(ctx context.Context) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &UnexpectedError{Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	u, err := c.requestURL()
	if err != nil {
		return nil, &UnexpectedError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", "forecastdash/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// *url.Error embeds the full URL, API key included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = fmt.Errorf("%s forecast: %w", uerr.Op, uerr.Err)
		}
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	// One extra byte tells an oversized body apart from one exactly at the cap.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The status is the failure; a body that breaks off mid-read is only context.
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > MaxBodyBytes {
		return nil, &MalformedResponseError{Index: -1, Err: fmt.Errorf("body exceeds %d bytes", MaxBodyBytes)}
	}

	data, err := DecodeResponse(body)
	if err != nil {
		return nil, err
	}
	data.StatusCode = resp.StatusCode
	return data, nil
}

func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("parse endpoint: %q is not an absolute URL", c.cfg.Endpoint)
	}
	q := u.Query()
	q.Set("q", c.cfg.City)
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DecodeResponse parses a forecast payload. A body that is not JSON, or
// whose "list" key is absent or null, is a MalformedResponseError.
func DecodeResponse(body []byte) (*Response, error) {
	var data Response
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &MalformedResponseError{Index: -1, Err: fmt.Errorf("unmarshal: %w", err)}
	}
	if data.List == nil {
		return nil, missingKey(-1, "list")
	}
	return &data, nil
}
