package usecases

import (
	"sync"

	"github.com/posterforge/posterforge/internal/core/domain"
)

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// this far behind loses intermediate events but always observes the latest
// state via the final terminal event.
const subscriberBuffer = 16

// progressHub fans job progress events out to per-job subscribers.
type progressHub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.ProgressEvent]struct{}
}

func newProgressHub() *progressHub {
	return &progressHub{subs: make(map[string]map[chan domain.ProgressEvent]struct{})}
}

// subscribe registers a listener for a job. The channel is returned
// bidirectional so the caller can seed an initial snapshot; the cancel func
// is idempotent and safe to call after the hub has closed the channel.
func (h *progressHub) subscribe(jobID string) (chan domain.ProgressEvent, func()) {
	ch := make(chan domain.ProgressEvent, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[jobID]
	if !ok {
		set = make(map[chan domain.ProgressEvent]struct{})
		h.subs[jobID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[jobID]; ok {
				if _, live := set[ch]; live {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(h.subs, jobID)
				}
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// publish delivers an event to every subscriber of the job. Slow
// subscribers with full buffers are skipped. A terminal event closes and
// removes all subscriber channels for the job.
func (h *progressHub) publish(ev domain.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[ev.JobID]
	if !ok {
		return
	}
	terminal := ev.Status.Terminal()
	for ch := range set {
		select {
		case ch <- ev:
		default:
			if terminal {
				// Make room so the terminal event is never lost.
				select {
				case <-ch:
				default:
				}
				select {
				case ch <- ev:
				default:
				}
			}
		}
	}
	if terminal {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, ev.JobID)
	}
}
