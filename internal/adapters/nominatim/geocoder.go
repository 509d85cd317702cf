// Package nominatim implements ports.Geocoder and ports.LocationSearcher
// against OpenStreetMap's Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/posterforge/posterforge/internal/core/domain"
	"github.com/posterforge/posterforge/internal/pkg/metrics"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org/search"

// userAgent identifies this service per the Nominatim usage policy:
// https://operations.osmfoundation.org/policies/nominatim/
const userAgent = "PosterForge/1.0 (https://github.com/posterforge/posterforge)"

// HTTPClient is the request surface the geocoder needs. *http.Client
// satisfies it; tests substitute a stub.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Geocoder resolves city/country pairs through Nominatim. The public API
// allows one request per second; the shared rate limiter upstream of this
// adapter enforces that.
type Geocoder struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

// New creates a geocoder against the public Nominatim endpoint.
func New(timeout time.Duration, log *slog.Logger) *Geocoder {
	return &Geocoder{
		client:  &http.Client{Timeout: timeout},
		baseURL: defaultBaseURL,
		log:     log,
	}
}

// NewWithClient creates a geocoder with a custom HTTP client and base URL,
// used by tests.
func NewWithClient(client HTTPClient, baseURL string, log *slog.Logger) *Geocoder {
	return &Geocoder{client: client, baseURL: baseURL, log: log}
}

type searchResult struct {
	Lat         string        `json:"lat"`
	Lon         string        `json:"lon"`
	DisplayName string        `json:"display_name"`
	Address     searchAddress `json:"address"`
}

type searchAddress struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	Country string `json:"country"`
}

// locality picks the most specific populated-place name present.
func (a searchAddress) locality() string {
	switch {
	case a.City != "":
		return a.City
	case a.Town != "":
		return a.Town
	default:
		return a.Village
	}
}

// Geocode resolves "city, country" to coordinates. An empty result set maps
// to domain.ErrNotFound; transport and server failures map to
// domain.ErrUpstream.
func (g *Geocoder) Geocode(ctx context.Context, city, country string) (domain.GeoPoint, error) {
	results, err := g.query(ctx, city+", "+country, 1)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	if len(results) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("location %q, %q: %w", city, country, domain.ErrNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, domain.ErrUpstream)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, domain.ErrUpstream)
	}

	g.log.Debug("geocoded location",
		"query", city+", "+country, "display_name", results[0].DisplayName,
		"lat", lat, "lon", lon)
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// Search returns up to limit candidate places for a free-text query.
// Results with unparseable coordinates are skipped.
func (g *Geocoder) Search(ctx context.Context, query string, limit int) ([]domain.Location, error) {
	results, err := g.query(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	locations := make([]domain.Location, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			g.log.Warn("skipping result with bad coordinates",
				"display_name", r.DisplayName, "lat", r.Lat, "lon", r.Lon)
			continue
		}
		locations = append(locations, domain.Location{
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lon:         lon,
			City:        r.Address.locality(),
			Country:     r.Address.Country,
		})
	}
	return locations, nil
}

func (g *Geocoder) query(ctx context.Context, q string, limit int) ([]searchResult, error) {
	reqURL, err := url.Parse(g.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	params := reqURL.Query()
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("nominatim", "error").Inc()
		return nil, fmt.Errorf("nominatim request: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues("nominatim", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.log.Error("nominatim error response", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim returned status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w: %w", domain.ErrUpstream, err)
	}
	return results, nil
}
