package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// PosterRequest is the validated input of one generation job.
type PosterRequest struct {
	City     string `json:"city"`
	Country  string `json:"country"`
	Theme    string `json:"theme"`
	Distance int    `json:"distance"` // map radius in meters
}

// Job tracks one in-flight or finished poster generation. It is mutated only
// by the pipeline driving it and read through snapshot copies. Job state is
// ephemeral: it lives for a retention window and does not survive a restart.
type Job struct {
	ID         string        `json:"job_id"`
	Status     JobStatus     `json:"status"`
	Progress   float64       `json:"progress"` // [0,1], monotonically non-decreasing
	Step       string        `json:"current_step,omitempty"`
	Message    string        `json:"message,omitempty"`
	OutputPath string        `json:"-"`
	Error      string        `json:"error,omitempty"`
	Rerender   bool          `json:"rerender,omitempty"`
	Features   *FeatureSet   `json:"-"` // pinned map data, set only on rerender jobs
	Request    PosterRequest `json:"request"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewJob creates a queued job for the given request.
func NewJob(req PosterRequest) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.NewString(),
		Status:    JobQueued,
		Message:   "Job queued",
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Pipeline step names, in execution order.
const (
	StepGeocoding         = "geocoding"
	StepFetchingStreets   = "fetching_streets"
	StepFetchingWater     = "fetching_water"
	StepFetchingParks     = "fetching_parks"
	StepRenderingRoads    = "rendering_roads"
	StepRenderingFeatures = "rendering_features"
	StepRenderingText     = "rendering_text"
	StepSaving            = "saving"
	StepCompleted         = "completed"
)

// stepProgress is the fixed cumulative progress table. Values are
// non-decreasing in step order; the terminal event carries exactly 1.0.
var stepProgress = map[string]float64{
	StepGeocoding:         0.05,
	StepFetchingStreets:   0.15,
	StepFetchingWater:     0.30,
	StepFetchingParks:     0.40,
	StepRenderingRoads:    0.55,
	StepRenderingFeatures: 0.70,
	StepRenderingText:     0.85,
	StepSaving:            0.95,
	StepCompleted:         1.0,
}

// StepProgress returns the cumulative progress fraction for a step.
func StepProgress(step string) float64 {
	return stepProgress[step]
}

// ProgressEvent is one discrete, ordered status update streamed to
// subscribers of a job.
type ProgressEvent struct {
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Progress    float64   `json:"progress"`
	Percent     int       `json:"percent"`
	Step        string    `json:"step"`
	Message     string    `json:"message"`
	DownloadURL string    `json:"download_url,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Snapshot builds the progress event describing the job's current state.
func (j *Job) Snapshot() ProgressEvent {
	ev := ProgressEvent{
		JobID:    j.ID,
		Status:   j.Status,
		Progress: j.Progress,
		Percent:  int(j.Progress * 100),
		Step:     j.Step,
		Message:  j.Message,
		Error:    j.Error,
	}
	if j.Status == JobCompleted {
		ev.DownloadURL = "/api/posters/" + j.ID + "/download"
	}
	return ev
}
