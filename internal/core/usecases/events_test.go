package usecases

import (
	"testing"

	"github.com/posterforge/posterforge/internal/core/domain"
)

func TestProgressHub_PublishReachesSubscribers(t *testing.T) {
	h := newProgressHub()
	ch, cancel := h.subscribe("job-1")
	defer cancel()

	h.publish(domain.ProgressEvent{JobID: "job-1", Status: domain.JobProcessing, Step: domain.StepGeocoding})
	h.publish(domain.ProgressEvent{JobID: "other", Status: domain.JobProcessing})

	ev := <-ch
	if ev.Step != domain.StepGeocoding {
		t.Errorf("step = %q, want %q", ev.Step, domain.StepGeocoding)
	}
	select {
	case ev := <-ch:
		t.Errorf("received event for another job: %+v", ev)
	default:
	}
}

func TestProgressHub_TerminalClosesChannel(t *testing.T) {
	h := newProgressHub()
	ch, cancel := h.subscribe("job-1")
	defer cancel()

	h.publish(domain.ProgressEvent{JobID: "job-1", Status: domain.JobCompleted, Progress: 1})

	ev, ok := <-ch
	if !ok {
		t.Fatal("terminal event missing")
	}
	if ev.Status != domain.JobCompleted {
		t.Errorf("status = %q, want completed", ev.Status)
	}
	if _, ok := <-ch; ok {
		t.Error("channel still open after terminal event")
	}
}

func TestProgressHub_SlowSubscriberStillGetsTerminal(t *testing.T) {
	h := newProgressHub()
	ch, cancel := h.subscribe("job-1")
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		h.publish(domain.ProgressEvent{JobID: "job-1", Status: domain.JobProcessing, Step: domain.StepFetchingStreets})
	}
	h.publish(domain.ProgressEvent{JobID: "job-1", Status: domain.JobFailed, Error: "boom"})

	var last domain.ProgressEvent
	for ev := range ch {
		last = ev
	}
	if last.Status != domain.JobFailed {
		t.Errorf("last status = %q, want failed", last.Status)
	}
}

func TestProgressHub_CancelIsIdempotent(t *testing.T) {
	h := newProgressHub()
	_, cancel := h.subscribe("job-1")
	cancel()
	cancel()

	// Publishing after cancel must not panic on a closed channel.
	h.publish(domain.ProgressEvent{JobID: "job-1", Status: domain.JobCompleted})
}

func TestProgressHub_CancelAfterTerminal(t *testing.T) {
	h := newProgressHub()
	ch, cancel := h.subscribe("job-1")

	h.publish(domain.ProgressEvent{JobID: "job-1", Status: domain.JobCompleted})
	for range ch {
	}
	cancel()
}
