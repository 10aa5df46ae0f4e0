// Copyright 2025 TripFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tripflow/platform/planner/trip"
)

// HTTPClient allows injecting a mock transport in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Geocoder resolves free-text place names to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (trip.Coordinates, error)
}

// NominatimGeocoder queries a Nominatim-compatible search endpoint. Lookup
// failures are reported to the caller but must never fail a planning run;
// enrichment treats every geocoding error as "no coordinates".
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    HTTPClient
}

// NewNominatimGeocoder creates a geocoder against the given base URL
// (defaults to the public Nominatim instance).
func NewNominatimGeocoder(baseURL string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &NominatimGeocoder{
		baseURL:   baseURL,
		userAgent: "tripflow-planner/1.0",
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetHTTPClient replaces the underlying HTTP client (test helper).
func (g *NominatimGeocoder) SetHTTPClient(client HTTPClient) {
	g.client = client
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves a place name to coordinates using the first search hit.
func (g *NominatimGeocoder) Geocode(ctx context.Context, place string) (trip.Coordinates, error) {
	endpoint := fmt.Sprintf("%s/search?format=json&limit=1&q=%s", g.baseURL, url.QueryEscape(place))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return trip.Coordinates{}, fmt.Errorf("building geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return trip.Coordinates{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return trip.Coordinates{}, fmt.Errorf("geocode returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return trip.Coordinates{}, fmt.Errorf("reading geocode response: %w", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return trip.Coordinates{}, fmt.Errorf("parsing geocode response: %w", err)
	}
	if len(results) == 0 {
		return trip.Coordinates{}, fmt.Errorf("no geocode results for %q", place)
	}

	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return trip.Coordinates{}, fmt.Errorf("malformed coordinates for %q", place)
	}
	return trip.Coordinates{Lat: lat, Lon: lon}, nil
}
