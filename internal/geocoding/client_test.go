package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/po4yka/trailglass-sub007/internal/retry"
)

const nominatimBody = `{
	"lat": "48.8583701", "lon": "2.2944813",
	"name": "Tour Eiffel",
	"display_name": "Tour Eiffel, 5, Avenue Anatole France, Paris, 75007, France",
	"address": {"town": "", "city": "Paris", "postcode": "75007", "country_code": "fr"}
}`

func testClient(url string) *Client {
	cfg := DefaultClientConfig()
	cfg.BaseURL = url
	cfg.RequestsPerMinute = 0
	return NewClient(cfg, nil)
}

func TestClientReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "48.858400", r.URL.Query().Get("lat"))
		assert.Equal(t, "trailglass/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(nominatimBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()

	loc, err := c.ReverseGeocode(context.Background(), 48.8584, 2.2945)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Tour Eiffel", loc.POIName)
	assert.Equal(t, "Paris", loc.City)
	assert.Equal(t, "FR", loc.CountryCode)
	assert.Equal(t, "75007", loc.PostalCode)
	assert.Contains(t, loc.FormattedAddress, "Avenue Anatole France")
}

func TestClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	loc, err := testClient(srv.URL).ReverseGeocode(context.Background(), 0, -150)
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), 1, 1)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.True(t, Retryable(err))
	assert.False(t, Retryable(&StatusError{StatusCode: http.StatusBadRequest}))
	assert.True(t, Retryable(&StatusError{StatusCode: http.StatusBadGateway}))
}

func TestRateLimitedTransportSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(nominatimBody))
	}))
	defer srv.Close()

	cfg := DefaultClientConfig()
	cfg.BaseURL = srv.URL
	cfg.RequestsPerMinute = 600 // one every 100 ms
	c := NewClient(cfg, nil)
	defer c.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.ReverseGeocode(context.Background(), 1, 1)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)
}

func TestServiceRetriesAndCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(nominatimBody))
	}))
	defer srv.Close()

	policy := RetryPolicy()
	policy.InitialDelay = time.Millisecond
	svc := NewService(NewCache(DefaultCacheConfig(), nil, nil), testClient(srv.URL), retry.NewNetworkAware(policy, nil), nil)

	loc, err := svc.ReverseGeocode(context.Background(), 48.8584, 2.2945)
	require.NoError(t, err)
	assert.Equal(t, "Paris", loc.City)

	_, err = svc.ReverseGeocode(context.Background(), 48.8585, 2.2945)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "second lookup is served from the cache")
}

func TestServiceGivesUpOnPermanentError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	svc := NewService(NewCache(DefaultCacheConfig(), nil, nil), testClient(srv.URL), nil, nil)
	_, err := svc.ReverseGeocode(context.Background(), 1, 1)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
