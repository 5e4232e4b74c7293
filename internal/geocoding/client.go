package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// StatusError is returned for a non-200 response from the geocoder
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geocoder returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying may help
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ClientConfig configures the Nominatim client
type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	RequestsPerMinute int
	Timeout           time.Duration
	Language          string
}

// DefaultClientConfig returns settings within the public Nominatim usage policy
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           "https://nominatim.openstreetmap.org",
		UserAgent:         "trailglass/1.0",
		RequestsPerMinute: 60,
		Timeout:           10 * time.Second,
		Language:          "en",
	}
}

// Client reverse geocodes coordinates with a Nominatim compatible API
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rateLimiter
	logger  *zap.Logger
}

// NewClient creates a Nominatim client. Requests are spaced according to
// RequestsPerMinute; call Close to release the limiter.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{cfg: cfg, logger: logger.Named("nominatim")}

	var rt http.RoundTripper = http.DefaultTransport
	if cfg.RequestsPerMinute > 0 {
		c.limiter = newRateLimiter(cfg.RequestsPerMinute, 1)
		rt = rateLimitedRoundTripper{RoundTripper: rt, token: c.limiter.token}
	}
	c.http = &http.Client{Transport: rt, Timeout: cfg.Timeout}
	return c
}

// Close stops the rate limiter
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.stop()
	}
}

type nominatimResponse struct {
	Error       string `json:"error"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Hamlet      string `json:"hamlet"`
		Postcode    string `json:"postcode"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// ReverseGeocode resolves a coordinate. Nothing found is (nil, nil).
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*models.GeocodedLocation, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("addressdetails", "1")
	if c.cfg.Language != "" {
		q.Set("accept-language", c.cfg.Language)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/reverse?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var r nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if r.Error != "" {
		c.logger.Debug("no geocode result", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.String("reason", r.Error))
		return nil, nil
	}

	loc := &models.GeocodedLocation{
		Latitude:         lat,
		Longitude:        lon,
		FormattedAddress: r.DisplayName,
		POIName:          r.Name,
		PostalCode:       r.Address.Postcode,
		CountryCode:      strings.ToUpper(r.Address.CountryCode),
	}
	for _, city := range []string{r.Address.City, r.Address.Town, r.Address.Village, r.Address.Hamlet} {
		if city != "" {
			loc.City = city
			break
		}
	}
	return loc, nil
}

// rateLimiter hands out one token per interval, up to burst tokens banked.
type rateLimiter struct {
	ticker *time.Ticker
	token  chan struct{}
	done   chan struct{}
	once   sync.Once
}

const minInterval = 100 * time.Millisecond

func newRateLimiter(perMinute, burst int) *rateLimiter {
	interval := time.Minute / time.Duration(perMinute)
	if interval < minInterval {
		interval = minInterval
	}
	if burst < 1 {
		burst = 1
	}

	rl := &rateLimiter{
		ticker: time.NewTicker(interval),
		token:  make(chan struct{}, burst),
		done:   make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		rl.token <- struct{}{}
	}
	go func() {
		for {
			select {
			case <-rl.done:
				return
			case <-rl.ticker.C:
				select {
				case rl.token <- struct{}{}:
				default:
				}
			}
		}
	}()
	return rl
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() {
		rl.ticker.Stop()
		close(rl.done)
	})
}

type rateLimitedRoundTripper struct {
	http.RoundTripper
	token <-chan struct{}
}

func (rt rateLimitedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	select {
	case <-rt.token:
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
	return rt.RoundTripper.RoundTrip(req)
}
