package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/posterforge/posterforge/internal/core/domain"
	"github.com/posterforge/posterforge/internal/core/ports"
	"github.com/posterforge/posterforge/internal/pkg/metrics"
	"github.com/posterforge/posterforge/internal/render"
)

// geocodeCacheTTL bounds how long a resolved location stays valid in the
// shared cache. Coordinates of a city do not move; a day is generous.
const geocodeCacheTTLSeconds = 24 * 60 * 60

// reportFunc receives each pipeline step transition. The message may carry
// a degradation warning from the previous optional step.
type reportFunc func(step, message string)

// pipeline executes the generation steps for one job. It is stateless
// across jobs; all per-job state travels through run's arguments.
type pipeline struct {
	geocoder ports.Geocoder
	fetcher  ports.FeatureFetcher
	themes   ports.ThemeSource
	renderer *render.Renderer
	geoCache ports.CacheService
	features *FeatureCache
	outDir   string
	log      *slog.Logger
}

// run drives a full generation: geocode, fetch, render, save. It returns
// the fetched feature set so the caller can cache it for rerenders.
func (p *pipeline) run(ctx context.Context, job *domain.Job, report reportFunc) (*domain.FeatureSet, error) {
	theme, err := p.themes.Load(job.Request.Theme)
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}

	report(domain.StepGeocoding, "Geocoding location...")
	center, err := p.geocode(ctx, job.Request.City, job.Request.Country)
	if err != nil {
		return nil, err
	}
	p.log.Info("geocoded location",
		"job_id", job.ID, "city", job.Request.City,
		"lat", center.Lat, "lon", center.Lon)

	report(domain.StepFetchingStreets, "Fetching street network...")
	roads, err := p.fetcher.FetchRoads(ctx, center, job.Request.Distance)
	if err != nil {
		return nil, fmt.Errorf("fetch streets: %w", err)
	}
	if len(roads) == 0 {
		return nil, fmt.Errorf("no street data found for this location: %w", domain.ErrUpstream)
	}
	p.log.Info("fetched road segments", "job_id", job.ID, "count", len(roads))

	// Water and parks are decorative. A failed fetch degrades the poster
	// instead of failing the job; the warning rides on the next event.
	var warnings []string
	report(domain.StepFetchingWater, "Fetching water features...")
	water, err := p.fetcher.FetchAreas(ctx, center, job.Request.Distance, domain.AreaWater)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.log.Warn("water fetch failed, continuing without", "job_id", job.ID, "error", err)
		warnings = append(warnings, "water features unavailable")
		water = nil
	}

	report(domain.StepFetchingParks, "Fetching park features...")
	parks, err := p.fetcher.FetchAreas(ctx, center, job.Request.Distance, domain.AreaPark)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.log.Warn("park fetch failed, continuing without", "job_id", job.ID, "error", err)
		warnings = append(warnings, "park features unavailable")
		parks = nil
	}

	fs := &domain.FeatureSet{
		Center: center,
		Radius: job.Request.Distance,
		Roads:  roads,
		Water:  water,
		Parks:  parks,
	}

	if err := p.render(ctx, job, fs, theme, report, warnings); err != nil {
		return nil, err
	}
	return fs, nil
}

// rerender re-runs only the raster stages against an already fetched
// feature set, typically with a different theme.
func (p *pipeline) rerender(ctx context.Context, job *domain.Job, fs *domain.FeatureSet, report reportFunc) error {
	theme, err := p.themes.Load(job.Request.Theme)
	if err != nil {
		return fmt.Errorf("load theme: %w", err)
	}
	return p.render(ctx, job, fs, theme, report, nil)
}

func (p *pipeline) render(ctx context.Context, job *domain.Job, fs *domain.FeatureSet, theme *domain.Theme, report reportFunc, warnings []string) error {
	msg := "Rendering road network..."
	if len(warnings) > 0 {
		msg += " (" + strings.Join(warnings, "; ") + ")"
	}
	report(domain.StepRenderingRoads, msg)
	if err := ctx.Err(); err != nil {
		return err
	}
	img := p.renderer.DrawMap(fs, theme)

	report(domain.StepRenderingFeatures, "Applying gradient fades...")
	if err := ctx.Err(); err != nil {
		return err
	}
	render.ApplyGradients(img, theme)

	report(domain.StepRenderingText, "Rendering typography...")
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.renderer.DrawTypography(img, theme, job.Request.City, job.Request.Country, fs.Center); err != nil {
		return fmt.Errorf("render typography: %w", err)
	}

	report(domain.StepSaving, "Saving poster...")
	return p.save(job, img)
}

func (p *pipeline) save(job *domain.Job, img *image.NRGBA) error {
	data, err := render.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	path := filepath.Join(p.outDir, job.ID+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write poster: %w", err)
	}
	job.OutputPath = path
	p.log.Info("saved poster", "job_id", job.ID, "path", path, "bytes", len(data))
	return nil
}

// geocode resolves a location with a read-through cache in front of the
// upstream geocoder. Cache failures fall back to the upstream call.
func (p *pipeline) geocode(ctx context.Context, city, country string) (domain.GeoPoint, error) {
	key := geocodeCacheKey(city, country)
	if p.geoCache != nil {
		if data, err := p.geoCache.Get(ctx, key); err == nil && len(data) > 0 {
			var pt domain.GeoPoint
			if err := json.Unmarshal(data, &pt); err == nil {
				metrics.GeocodeCacheHits.WithLabelValues("hit").Inc()
				return pt, nil
			}
		}
		metrics.GeocodeCacheHits.WithLabelValues("miss").Inc()
	}

	pt, err := p.geocoder.Geocode(ctx, city, country)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.GeoPoint{}, err
		}
		return domain.GeoPoint{}, fmt.Errorf("geocode %q, %q: %w", city, country, err)
	}

	if p.geoCache != nil {
		if data, err := json.Marshal(pt); err == nil {
			if err := p.geoCache.Set(ctx, key, data, geocodeCacheTTLSeconds); err != nil {
				p.log.Warn("geocode cache write failed", "error", err)
			}
		}
	}
	return pt, nil
}

func geocodeCacheKey(city, country string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(city)) + "," + strings.ToLower(strings.TrimSpace(country))
}
