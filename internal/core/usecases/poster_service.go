package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/posterforge/posterforge/internal/core/domain"
	"github.com/posterforge/posterforge/internal/core/ports"
	"github.com/posterforge/posterforge/internal/pkg/metrics"
	"github.com/posterforge/posterforge/internal/render"
)

// ServiceConfig carries the tunables of the poster service.
type ServiceConfig struct {
	Workers           int
	QueueSize         int
	OutputDir         string
	MinDistance       int
	MaxDistance       int
	DefaultDistance   int
	DefaultTheme      string
	GenerationTimeout time.Duration
	RerenderTimeout   time.Duration
	JobTTL            time.Duration
	JanitorInterval   time.Duration
	FeatureCacheTTL   time.Duration
	FeatureCacheSize  int
}

// PosterService owns the job table, the generation queue and the worker
// pool. All public methods are safe for concurrent use.
type PosterService struct {
	cfg    ServiceConfig
	pipe   *pipeline
	events ports.EventPublisher

	mu   sync.Mutex
	jobs map[string]*domain.Job

	hub      *progressHub
	features *FeatureCache
	queue    chan *domain.Job
	wg       sync.WaitGroup
	log      *slog.Logger
}

// NewPosterService wires the service. geoCache and events may be nil.
func NewPosterService(
	cfg ServiceConfig,
	geocoder ports.Geocoder,
	fetcher ports.FeatureFetcher,
	themes ports.ThemeSource,
	renderer *render.Renderer,
	geoCache ports.CacheService,
	events ports.EventPublisher,
	log *slog.Logger,
) *PosterService {
	features := NewFeatureCache(cfg.FeatureCacheTTL, cfg.FeatureCacheSize)
	return &PosterService{
		cfg: cfg,
		pipe: &pipeline{
			geocoder: geocoder,
			fetcher:  fetcher,
			themes:   themes,
			renderer: renderer,
			geoCache: geoCache,
			features: features,
			outDir:   cfg.OutputDir,
			log:      log,
		},
		events:   events,
		jobs:     make(map[string]*domain.Job),
		hub:      newProgressHub(),
		features: features,
		queue:    make(chan *domain.Job, cfg.QueueSize),
		log:      log,
	}
}

// Start launches the worker pool and the retention janitor. They stop when
// ctx is cancelled; Wait blocks until they have drained.
func (s *PosterService) Start(ctx context.Context) {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.worker(ctx)
		}()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.janitor(ctx)
	}()
	s.log.Info("poster service started", "workers", s.cfg.Workers, "queue_size", s.cfg.QueueSize)
}

// Wait blocks until all workers have exited.
func (s *PosterService) Wait() { s.wg.Wait() }

// Submit validates a request, registers a queued job and enqueues it.
func (s *PosterService) Submit(ctx context.Context, req domain.PosterRequest) (domain.ProgressEvent, error) {
	if err := s.normalize(&req); err != nil {
		return domain.ProgressEvent{}, err
	}

	job := domain.NewJob(req)
	s.mu.Lock()
	s.jobs[job.ID] = job
	snap := job.Snapshot()
	s.mu.Unlock()

	select {
	case s.queue <- job:
	default:
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		return domain.ProgressEvent{}, fmt.Errorf("job queue is full: %w", domain.ErrInternal)
	}

	metrics.JobsSubmitted.WithLabelValues(req.Theme).Inc()
	s.log.Info("job submitted",
		"job_id", job.ID, "city", req.City, "country", req.Country,
		"theme", req.Theme, "distance", req.Distance)
	return snap, nil
}

// Rerender queues a new job that reuses the map data of an existing job
// with a different theme. It fails with ErrNotFound when the source
// job's map data is no longer cached.
func (s *PosterService) Rerender(ctx context.Context, jobID, theme string) (domain.ProgressEvent, error) {
	s.mu.Lock()
	src, ok := s.jobs[jobID]
	var req domain.PosterRequest
	if ok {
		req = src.Request
	}
	s.mu.Unlock()
	if !ok {
		return domain.ProgressEvent{}, fmt.Errorf("job %q: %w", jobID, domain.ErrNotFound)
	}

	if theme != "" {
		req.Theme = theme
	}
	if err := s.normalize(&req); err != nil {
		return domain.ProgressEvent{}, err
	}

	// A rerender is only honored while the source's map data is still
	// cached; the feature set is pinned to the new job so a cache sweep
	// between submit and execution cannot reintroduce fetch steps.
	features := s.features.Get(FeatureCacheKey(req.City, req.Country, req.Distance))
	if features == nil {
		return domain.ProgressEvent{}, fmt.Errorf("no cached map data for job %q: %w", jobID, domain.ErrNotFound)
	}

	job := domain.NewJob(req)
	job.Rerender = true
	job.Features = features
	s.mu.Lock()
	s.jobs[job.ID] = job
	snap := job.Snapshot()
	s.mu.Unlock()

	select {
	case s.queue <- job:
	default:
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		return domain.ProgressEvent{}, fmt.Errorf("job queue is full: %w", domain.ErrInternal)
	}

	s.log.Info("rerender submitted", "job_id", job.ID, "source_job_id", jobID, "theme", req.Theme)
	return snap, nil
}

// Status returns the current snapshot of a job.
func (s *PosterService) Status(jobID string) (domain.ProgressEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ProgressEvent{}, fmt.Errorf("job %q: %w", jobID, domain.ErrNotFound)
	}
	return job.Snapshot(), nil
}

// Download returns the output file path and originating request of a
// completed job. The request feeds the suggested download filename.
func (s *PosterService) Download(jobID string) (string, domain.PosterRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return "", domain.PosterRequest{}, fmt.Errorf("job %q: %w", jobID, domain.ErrNotFound)
	}
	if job.Status != domain.JobCompleted || job.OutputPath == "" {
		return "", domain.PosterRequest{}, fmt.Errorf("job %q is not completed: %w", jobID, domain.ErrInvalidRequest)
	}
	return job.OutputPath, job.Request, nil
}

// EstimateSeconds gives a rough generation time estimate for a map radius:
// 30 seconds base plus one second per kilometer.
func (s *PosterService) EstimateSeconds(distance int) int {
	if distance <= 0 {
		distance = s.cfg.DefaultDistance
	}
	return 30 + distance/1000
}

// RerenderEstimateSeconds is the time estimate for a re-render, which
// skips geocoding and map data fetches entirely.
func (s *PosterService) RerenderEstimateSeconds() int {
	return 5
}

// Subscribe streams progress events for a job. The first event is always
// the job's current snapshot, so late subscribers never start blind. The
// channel closes after the terminal event. cancel is safe to call at any
// time, including after the close.
func (s *PosterService) Subscribe(jobID string) (<-chan domain.ProgressEvent, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, nil, fmt.Errorf("job %q: %w", jobID, domain.ErrNotFound)
	}
	snap := job.Snapshot()

	if job.Status.Terminal() {
		ch := make(chan domain.ProgressEvent, 1)
		ch <- snap
		close(ch)
		return ch, func() {}, nil
	}

	// Registration and the snapshot seed happen under s.mu, which every
	// publisher also holds. No event can slip between them.
	ch, cancel := s.hub.subscribe(jobID)
	ch <- snap
	return ch, cancel, nil
}

// normalize trims, defaults and validates a request in place.
func (s *PosterService) normalize(req *domain.PosterRequest) error {
	req.City = strings.TrimSpace(req.City)
	req.Country = strings.TrimSpace(req.Country)
	if req.City == "" {
		return fmt.Errorf("city is required: %w", domain.ErrInvalidRequest)
	}
	if req.Country == "" {
		return fmt.Errorf("country is required: %w", domain.ErrInvalidRequest)
	}

	if req.Distance == 0 {
		req.Distance = s.cfg.DefaultDistance
	}
	if req.Distance < s.cfg.MinDistance || req.Distance > s.cfg.MaxDistance {
		return fmt.Errorf("distance must be between %d and %d meters: %w",
			s.cfg.MinDistance, s.cfg.MaxDistance, domain.ErrInvalidRequest)
	}

	if req.Theme == "" {
		req.Theme = s.cfg.DefaultTheme
	}
	// Unknown themes are rejected at submission rather than failing the job
	// mid-pipeline.
	if _, err := s.pipe.themes.Load(req.Theme); err != nil {
		return fmt.Errorf("theme %q: %w", req.Theme, domain.ErrNotFound)
	}
	return nil
}

func (s *PosterService) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.process(ctx, job)
		}
	}
}

func (s *PosterService) process(ctx context.Context, job *domain.Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic during generation",
				"job_id", job.ID, "panic", r, "stack", string(debug.Stack()))
			s.fail(job, fmt.Errorf("internal error: %w", domain.ErrInternal))
		}
	}()

	report := func(step, message string) { s.advance(job, step, message) }

	start := time.Now()
	var err error
	if job.Rerender {
		jctx, cancel := context.WithTimeout(ctx, s.cfg.RerenderTimeout)
		err = s.pipe.rerender(jctx, job, job.Features, report)
		cancel()
	} else {
		jctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		var fs *domain.FeatureSet
		fs, err = s.pipe.run(jctx, job, report)
		cancel()
		if err == nil {
			key := FeatureCacheKey(job.Request.City, job.Request.Country, job.Request.Distance)
			s.features.Put(key, fs)
		}
	}

	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.fail(job, err)
		return
	}
	s.complete(job)
	s.log.Info("job finished", "job_id", job.ID, "duration", time.Since(start))
}

// advance moves the job to a pipeline step and publishes the transition.
// Progress never decreases, even if steps report out of table order.
func (s *PosterService) advance(job *domain.Job, step, message string) {
	s.mu.Lock()
	job.Status = domain.JobProcessing
	if p := domain.StepProgress(step); p > job.Progress {
		job.Progress = p
	}
	job.Step = step
	job.Message = message
	job.UpdatedAt = time.Now().UTC()
	ev := job.Snapshot()
	s.hub.publish(ev)
	s.mu.Unlock()

	s.mirror(ev)
}

func (s *PosterService) complete(job *domain.Job) {
	s.mu.Lock()
	job.Status = domain.JobCompleted
	job.Progress = 1.0
	job.Step = domain.StepCompleted
	job.Message = "Poster generated successfully!"
	job.UpdatedAt = time.Now().UTC()
	ev := job.Snapshot()
	s.hub.publish(ev)
	s.mu.Unlock()

	metrics.JobsCompleted.WithLabelValues(string(domain.JobCompleted)).Inc()
	s.mirror(ev)
}

func (s *PosterService) fail(job *domain.Job, err error) {
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "generation timed out"
		err = fmt.Errorf("%s: %w", msg, domain.ErrTimeout)
	}

	s.mu.Lock()
	job.Status = domain.JobFailed
	job.Error = msg
	job.Message = "Generation failed"
	job.UpdatedAt = time.Now().UTC()
	ev := job.Snapshot()
	s.hub.publish(ev)
	s.mu.Unlock()

	metrics.JobsCompleted.WithLabelValues(string(domain.JobFailed)).Inc()
	s.log.Error("job failed", "job_id", job.ID, "error", err)
	s.mirror(ev)
}

// mirror forwards an event to the external publisher, when one is wired.
func (s *PosterService) mirror(ev domain.ProgressEvent) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.events.PublishJobEvent(ctx, ev); err != nil {
		s.log.Warn("event mirror publish failed", "job_id", ev.JobID, "error", err)
	}
}

// janitor evicts terminal jobs past the retention window and removes their
// output files.
func (s *PosterService) janitor(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.JanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *PosterService) sweep() {
	cutoff := time.Now().UTC().Add(-s.cfg.JobTTL)

	s.mu.Lock()
	var expired []*domain.Job
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			expired = append(expired, job)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	for _, job := range expired {
		if job.OutputPath != "" {
			if err := os.Remove(job.OutputPath); err != nil && !os.IsNotExist(err) {
				s.log.Warn("could not remove expired poster", "job_id", job.ID, "error", err)
			}
		}
		s.log.Debug("expired job removed", "job_id", job.ID)
	}
}

// Themes lists the available themes.
func (s *PosterService) Themes() ([]*domain.Theme, error) {
	return s.pipe.themes.List()
}

// Theme loads one theme by name.
func (s *PosterService) Theme(name string) (*domain.Theme, error) {
	return s.pipe.themes.Load(name)
}
