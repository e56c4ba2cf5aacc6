package progress

import (
	"sync"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
)

// Run carries the page counters and subscribers for a single extraction
// invocation. The counters used to live on the service instance, which
// corrupted progress when two documents extracted concurrently - every
// call now gets its own Run.
type Run struct {
	mu         sync.Mutex
	totalPages int
	current    float64
	lastPage   int
	callback   func(commonModels.ProgressEvent)
	channels   []chan commonModels.ProgressEvent
	closed     bool
}

func NewRun(totalPages int) *Run {
	return &Run{totalPages: totalPages}
}

func (r *Run) SetTotalPages(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalPages = n
}

func (r *Run) TotalPages() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalPages
}

// SetCallback installs the single active observer; nil unsubscribes.
// The swap takes the same lock as emission, so a replacement can never
// race an in-flight event.
func (r *Run) SetCallback(fn func(commonModels.ProgressEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callback = fn
}

// Subscribe returns a channel fed with progress events. Slow consumers
// lose intermediate events rather than blocking the pipeline: only the
// latest event matters for UI purposes.
func (r *Run) Subscribe() <-chan commonModels.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan commonModels.ProgressEvent, 1)
	r.channels = append(r.channels, ch)
	return ch
}

// Emit publishes a progress event. Progress is clamped to be monotonic
// and never exceeds 1.
func (r *Run) Emit(status string, progress float64, page int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if progress < r.current {
		progress = r.current
	}
	if progress > 1 {
		progress = 1
	}
	r.current = progress
	if page > 0 {
		r.lastPage = page
	}

	event := commonModels.ProgressEvent{
		Status:     status,
		Progress:   progress,
		Page:       r.lastPage,
		TotalPages: r.totalPages,
	}

	if r.callback != nil {
		r.callback(event)
	}
	for _, ch := range r.channels {
		select {
		case ch <- event:
		default:
			//consumer is behind: drop its stale event, keep the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// EmitOcrPage maps a single page's OCR sub-progress into the overall
// stream: the leading 20% is document load and engine init, 60% is spread
// over the pages, the trailing 20% is post-processing.
func (r *Run) EmitOcrPage(status string, pageIndex int, sub float64) {
	total := r.TotalPages()
	if total <= 0 {
		total = 1
	}
	if sub < 0 {
		sub = 0
	}
	if sub > 1 {
		sub = 1
	}
	overall := config.ProgressBaseWeight + config.ProgressOcrWeight*(float64(pageIndex)+sub)/float64(total)
	r.Emit(status, overall, pageIndex+1)
}

// Finish emits the terminal event with progress 1 and closes all
// subscription channels.
func (r *Run) Finish(status string) {
	r.Emit(status, 1, 0)
	r.Close()
}

func (r *Run) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, ch := range r.channels {
		close(ch)
	}
	r.channels = nil
}
