package ports

import (
	"context"

	"github.com/posterforge/posterforge/internal/core/domain"
)

// Geocoder resolves a city/country pair to coordinates.
// Implementations return an error wrapping domain.ErrNotFound when the
// location cannot be resolved.
type Geocoder interface {
	Geocode(ctx context.Context, city, country string) (domain.GeoPoint, error)
}

// LocationSearcher performs free-text place lookup for interactive search
// boxes. Distinct from Geocoder: it returns multiple ranked candidates.
type LocationSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Location, error)
}

// FeatureFetcher retrieves geographic vector data around a center point.
// Road and area fetches may fail independently; the pipeline decides which
// failures are fatal.
type FeatureFetcher interface {
	FetchRoads(ctx context.Context, center domain.GeoPoint, radius int) ([]domain.RoadSegment, error)
	FetchAreas(ctx context.Context, center domain.GeoPoint, radius int, kind domain.AreaKind) ([]domain.AreaFeature, error)
}

// ThemeSource loads named themes.
type ThemeSource interface {
	Load(name string) (*domain.Theme, error)
	List() ([]*domain.Theme, error)
}

// CacheService provides read-through caching for small serialisable values
// (geocoding results). It is optional: a nil CacheService disables caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher mirrors job progress events onto a message broker for
// external consumers. Optional: a nil publisher means events stay in-process.
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, ev domain.ProgressEvent) error
}
