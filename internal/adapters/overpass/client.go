// Package overpass implements ports.FeatureFetcher against the Overpass
// API, the query frontend for OpenStreetMap data.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/posterforge/posterforge/internal/core/domain"
	"github.com/posterforge/posterforge/internal/pkg/metrics"
	"github.com/posterforge/posterforge/internal/pkg/ratelimit"
)

const defaultBaseURL = "https://overpass-api.de/api/interpreter"

const userAgent = "PosterForge/1.0 (https://github.com/posterforge/posterforge)"

// roadClassPattern selects the highway tags worth drawing. Footways, paths
// and construction are deliberately excluded.
const roadClassPattern = "^(motorway|motorway_link|trunk|primary|primary_link|secondary|secondary_link|tertiary|tertiary_link|residential|living_street|service|unclassified)$"

// HTTPClient is the request surface the client needs; tests substitute a
// stub.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches road and area geometry around a point. Requests pass
// through a shared rate limiter to respect the public API's fair-use
// policy.
type Client struct {
	client  HTTPClient
	baseURL string
	limiter *ratelimit.Limiter
	log     *slog.Logger
}

// New creates a client against the public Overpass endpoint.
func New(httpClient HTTPClient, limiter *ratelimit.Limiter, log *slog.Logger) *Client {
	return &Client{client: httpClient, baseURL: defaultBaseURL, limiter: limiter, log: log}
}

// NewWithBaseURL creates a client against a custom endpoint, used by tests.
func NewWithBaseURL(httpClient HTTPClient, baseURL string, limiter *ratelimit.Limiter, log *slog.Logger) *Client {
	return &Client{client: httpClient, baseURL: baseURL, limiter: limiter, log: log}
}

// overpassResponse is the wire format: a flat element list where ways
// reference node IDs and nodes carry the coordinates.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

// FetchRoads retrieves the drawable street network within radius meters of
// center.
func (c *Client) FetchRoads(ctx context.Context, center domain.GeoPoint, radius int) ([]domain.RoadSegment, error) {
	query := fmt.Sprintf(`[out:json][timeout:90];
(
  way["highway"~"%s"](around:%d,%f,%f);
);
out body;
>;
out skel qt;`, roadClassPattern, radius, center.Lat, center.Lon)

	resp, err := c.execute(ctx, query)
	if err != nil {
		return nil, err
	}

	nodes := nodeTable(resp)
	var segments []domain.RoadSegment
	for _, el := range resp.Elements {
		if el.Type != "way" {
			continue
		}
		points := resolvePoints(nodes, el.Nodes)
		if len(points) < 2 {
			continue
		}
		segments = append(segments, domain.RoadSegment{
			Points: points,
			Class:  domain.ParseRoadClass(el.Tags["highway"]),
		})
	}
	c.log.Debug("overpass roads fetched", "count", len(segments))
	return segments, nil
}

// FetchAreas retrieves water or park polygons within radius meters of
// center.
func (c *Client) FetchAreas(ctx context.Context, center domain.GeoPoint, radius int, kind domain.AreaKind) ([]domain.AreaFeature, error) {
	var clauses []string
	switch kind {
	case domain.AreaWater:
		clauses = []string{
			`way["natural"="water"]`,
			`way["waterway"="riverbank"]`,
			`relation["natural"="water"]`,
		}
	case domain.AreaPark:
		clauses = []string{
			`way["leisure"="park"]`,
			`way["landuse"="grass"]`,
			`way["landuse"="forest"]`,
			`relation["leisure"="park"]`,
		}
	default:
		return nil, fmt.Errorf("unknown area kind %q", kind)
	}

	var b strings.Builder
	b.WriteString("[out:json][timeout:60];\n(\n")
	for _, clause := range clauses {
		fmt.Fprintf(&b, "  %s(around:%d,%f,%f);\n", clause, radius, center.Lat, center.Lon)
	}
	b.WriteString(");\nout body;\n>;\nout skel qt;")

	resp, err := c.execute(ctx, b.String())
	if err != nil {
		return nil, err
	}

	nodes := nodeTable(resp)
	var features []domain.AreaFeature
	for _, el := range resp.Elements {
		if el.Type != "way" {
			continue
		}
		ring := resolvePoints(nodes, el.Nodes)
		if len(ring) < 3 {
			continue
		}
		features = append(features, domain.AreaFeature{Ring: ring, Kind: kind})
	}
	c.log.Debug("overpass areas fetched", "kind", kind, "count", len(features))
	return features, nil
}

func (c *Client) execute(ctx context.Context, query string) (*overpassResponse, error) {
	if err := c.limiter.Wait(ctx, "overpass"); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("overpass", "error").Inc()
		return nil, fmt.Errorf("overpass request: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues("overpass", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("overpass error response", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("overpass returned status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w: %w", domain.ErrUpstream, err)
	}
	return &parsed, nil
}

// nodeTable indexes node coordinates by ID for way resolution.
func nodeTable(resp *overpassResponse) map[int64]domain.GeoPoint {
	nodes := make(map[int64]domain.GeoPoint)
	for _, el := range resp.Elements {
		if el.Type == "node" {
			nodes[el.ID] = domain.GeoPoint{Lat: el.Lat, Lon: el.Lon}
		}
	}
	return nodes
}

// resolvePoints maps a way's node references to coordinates, skipping
// references missing from the response.
func resolvePoints(nodes map[int64]domain.GeoPoint, ids []int64) []domain.GeoPoint {
	points := make([]domain.GeoPoint, 0, len(ids))
	for _, id := range ids {
		if pt, ok := nodes[id]; ok {
			points = append(points, pt)
		}
	}
	return points
}
