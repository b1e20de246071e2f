package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrNoResults is returned when the provider cannot resolve the address.
var ErrNoResults = errors.New("no location found for address")

// Result is the resolved coordinate pair plus the provider's canonical
// formatted address. The formatted address, not the raw client string, is
// what gets persisted on a place.
type Result struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
}

// Client calls the Google Geocoding API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves a postal address to a coordinate and formatted address.
// A ZERO_RESULTS answer maps to ErrNoResults; transport and non-200
// failures surface as-is so callers can treat them as upstream failures.
func (c *Client) Geocode(ctx context.Context, address string) (Result, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("geocoding provider returned status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, err
	}
	if body.Status == "ZERO_RESULTS" || len(body.Results) == 0 {
		return Result{}, ErrNoResults
	}
	if body.Status != "OK" {
		return Result{}, fmt.Errorf("geocoding provider status %q", body.Status)
	}

	first := body.Results[0]
	return Result{
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}, nil
}
