package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeResolvesAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Empire State Building", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "20 W 34th St, New York, NY 10001, USA",
				"geometry": {"location": {"lat": 40.7484405, "lng": -73.9878584}}
			}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 2*time.Second)
	res, err := c.Geocode(context.Background(), "Empire State Building")
	require.NoError(t, err)
	assert.Equal(t, 40.7484405, res.Lat)
	assert.Equal(t, -73.9878584, res.Lng)
	assert.Equal(t, "20 W 34th St, New York, NY 10001, USA", res.FormattedAddress)
}

func TestGeocodeZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 2*time.Second)
	_, err := c.Geocode(context.Background(), "gibberish address that does not exist")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestGeocodeProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 2*time.Second)
	_, err := c.Geocode(context.Background(), "Empire State Building")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoResults)
}

func TestGeocodeDeniedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "results": [{"formatted_address": "x"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 2*time.Second)
	_, err := c.Geocode(context.Background(), "Empire State Building")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoResults)
}
