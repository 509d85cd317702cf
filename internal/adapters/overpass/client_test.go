package overpass

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/posterforge/posterforge/internal/core/domain"
	"github.com/posterforge/posterforge/internal/pkg/ratelimit"
)

type stubClient struct {
	status    int
	body      string
	err       error
	lastQuery string
	calls     int
}

func (s *stubClient) Do(req *http.Request) (*http.Response, error) {
	s.calls++
	if req.Body != nil {
		q, _ := io.ReadAll(req.Body)
		s.lastQuery = string(q)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

func testClient(stub *stubClient) *Client {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWithBaseURL(stub, "https://overpass.example/api", ratelimit.New(0), log)
}

const roadsResponse = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 43.26, "lon": -2.93},
    {"type": "node", "id": 2, "lat": 43.27, "lon": -2.94},
    {"type": "node", "id": 3, "lat": 43.28, "lon": -2.95},
    {"type": "way", "id": 10, "nodes": [1, 2, 3], "tags": {"highway": "primary"}},
    {"type": "way", "id": 11, "nodes": [1, 99], "tags": {"highway": "residential"}},
    {"type": "way", "id": 12, "nodes": [1, 2], "tags": {"highway": "corridor"}}
  ]
}`

func TestClient_FetchRoads(t *testing.T) {
	stub := &stubClient{status: 200, body: roadsResponse}
	c := testClient(stub)

	segs, err := c.FetchRoads(context.Background(), domain.GeoPoint{Lat: 43.26, Lon: -2.93}, 15000)
	if err != nil {
		t.Fatalf("fetch roads: %v", err)
	}
	// Way 11 collapses to a single resolvable point and is dropped.
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Class != domain.RoadPrimary {
		t.Errorf("class = %q, want primary", segs[0].Class)
	}
	if len(segs[0].Points) != 3 {
		t.Errorf("points = %d, want 3", len(segs[0].Points))
	}
	// Unmatched highway values resolve to the catch-all class.
	if segs[1].Class != domain.RoadOther {
		t.Errorf("unknown tag class = %q, want %q", segs[1].Class, domain.RoadOther)
	}

	if !strings.Contains(stub.lastQuery, "around:15000,43.26") {
		t.Errorf("radius/center missing from query: %q", stub.lastQuery)
	}
	if !strings.Contains(stub.lastQuery, `way["highway"~`) {
		t.Errorf("highway filter missing from query: %q", stub.lastQuery)
	}
}

func TestClient_FetchAreas(t *testing.T) {
	body := `{
  "elements": [
    {"type": "node", "id": 1, "lat": 43.26, "lon": -2.93},
    {"type": "node", "id": 2, "lat": 43.27, "lon": -2.94},
    {"type": "node", "id": 3, "lat": 43.28, "lon": -2.95},
    {"type": "node", "id": 4, "lat": 43.29, "lon": -2.96},
    {"type": "way", "id": 20, "nodes": [1, 2, 3, 4]},
    {"type": "way", "id": 21, "nodes": [1, 2]}
  ]
}`
	stub := &stubClient{status: 200, body: body}
	c := testClient(stub)

	features, err := c.FetchAreas(context.Background(), domain.GeoPoint{Lat: 43.26, Lon: -2.93}, 10000, domain.AreaWater)
	if err != nil {
		t.Fatalf("fetch areas: %v", err)
	}
	// Way 21 has too few points for a ring.
	if len(features) != 1 {
		t.Fatalf("got %d features, want 1", len(features))
	}
	if features[0].Kind != domain.AreaWater {
		t.Errorf("kind = %q, want water", features[0].Kind)
	}

	if !strings.Contains(stub.lastQuery, `way["natural"="water"]`) {
		t.Errorf("water clause missing: %q", stub.lastQuery)
	}

	if _, err := c.FetchAreas(context.Background(), domain.GeoPoint{}, 10000, domain.AreaPark); err != nil {
		t.Fatalf("fetch parks: %v", err)
	}
	if !strings.Contains(stub.lastQuery, `way["leisure"="park"]`) {
		t.Errorf("park clause missing: %q", stub.lastQuery)
	}
}

func TestClient_ServerErrorIsUpstream(t *testing.T) {
	c := testClient(&stubClient{status: 504, body: "timeout"})
	_, err := c.FetchRoads(context.Background(), domain.GeoPoint{}, 15000)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("err = %v, want upstream", err)
	}
}

func TestClient_RateLimiterSpacing(t *testing.T) {
	stub := &stubClient{status: 200, body: `{"elements": []}`}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewWithBaseURL(stub, "https://overpass.example/api", ratelimit.New(30*time.Millisecond), log)

	start := time.Now()
	if _, err := c.FetchAreas(context.Background(), domain.GeoPoint{}, 5000, domain.AreaWater); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := c.FetchAreas(context.Background(), domain.GeoPoint{}, 5000, domain.AreaPark); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("second request not delayed: %v", elapsed)
	}
}

func TestClient_ContextCancelDuringWait(t *testing.T) {
	stub := &stubClient{status: 200, body: `{"elements": []}`}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewWithBaseURL(stub, "https://overpass.example/api", ratelimit.New(time.Hour), log)

	if _, err := c.FetchRoads(context.Background(), domain.GeoPoint{}, 5000); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.FetchRoads(ctx, domain.GeoPoint{}, 5000)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if stub.calls != 1 {
		t.Errorf("request executed despite cancelled wait: calls = %d", stub.calls)
	}
}
