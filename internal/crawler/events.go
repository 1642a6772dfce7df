package crawler

import (
	"sync"
	"time"

	"github.com/law-makers/harvest/pkg/models"
)

// EventKind identifies what happened during a run
type EventKind int

const (
	EventRunStarted EventKind = iota
	EventListingLoaded
	EventLinksFound
	EventRecordAccepted
	EventRecordRejected
	EventLinkFailed
	EventBatchDone
	EventPaginated
	EventRunFinished
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventRunStarted:
		return "run_started"
	case EventListingLoaded:
		return "listing_loaded"
	case EventLinksFound:
		return "links_found"
	case EventRecordAccepted:
		return "record_accepted"
	case EventRecordRejected:
		return "record_rejected"
	case EventLinkFailed:
		return "link_failed"
	case EventBatchDone:
		return "batch_done"
	case EventPaginated:
		return "paginated"
	case EventRunFinished:
		return "run_finished"
	default:
		return "unknown"
	}
}

// Event is one observation emitted by the crawler. Fields that do not apply
// to a kind are left zero.
type Event struct {
	Kind  EventKind
	RunID string
	Time  time.Time

	URL    string
	Page   int // listing page number, starting at 1
	Count  int // links found, or records in a batch
	Total  int // records accepted so far
	Max    int
	Reason string
	Method string
	Err    error
	Record *models.CrawlRecord
}

// Observer receives crawl events. The crawler serializes calls, so an
// Observer does not need its own locking.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// Observe calls f(e)
func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans an event out to several observers in order
type Observers []Observer

// Observe implements Observer
func (o Observers) Observe(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

// emitter stamps and serializes events
type emitter struct {
	mu    sync.Mutex
	obs   Observer
	runID string
}

func (em *emitter) emit(e Event) {
	if em.obs == nil {
		return
	}
	e.RunID = em.runID
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	em.mu.Lock()
	defer em.mu.Unlock()
	em.obs.Observe(e)
}
