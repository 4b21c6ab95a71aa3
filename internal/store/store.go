package store

import (
	"sync"
	"time"
)

// Metric is the storage representation of one extracted metric value,
// optimized for JSON serialization by the status API. Exactly one of Number
// or Text is set, matching Kind.
type Metric struct {
	// Key is the stable metric name.
	Key string `json:"key"`

	// Unit is the unit of measurement, empty for enumeration strings.
	Unit string `json:"unit,omitempty"`

	// Kind is the value kind ("number", "percent", "string").
	Kind string `json:"kind"`

	// Number holds numeric and percent values.
	Number *float64 `json:"number,omitempty"`

	// Text holds string values.
	Text *string `json:"text,omitempty"`
}

// Failure is the storage representation of a cycle failure.
type Failure struct {
	// At is the timestamp of the failed cycle.
	At time.Time `json:"at"`

	// Kind is the failure classification.
	Kind string `json:"kind"`

	// HTTPStatus is the response status, zero if none was received.
	HTTPStatus int `json:"http_status,omitempty"`

	// Message is the underlying error text.
	Message string `json:"message,omitempty"`
}

// CycleRecord is the outcome of one completed poll cycle as exposed by the
// status API: the last-known-good metric values together with the current
// health of the poll loop.
type CycleRecord struct {
	// Healthy reports whether the most recent cycle updated the snapshot.
	Healthy bool `json:"healthy"`

	// Available is the integration-policy verdict: false once the
	// consecutive failure count reaches the configured threshold.
	Available bool `json:"available"`

	// ConsecutiveFailures counts back-to-back degraded cycles.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// CheckedAt is when the cycle completed.
	CheckedAt time.Time `json:"checked_at"`

	// RetrievedAt is the timestamp of the last-known-good snapshot,
	// nil if no cycle has succeeded yet.
	RetrievedAt *time.Time `json:"retrieved_at,omitempty"`

	// Metrics are the last-known-good values in field map order,
	// empty if no cycle has succeeded yet.
	Metrics []Metric `json:"metrics,omitempty"`

	// Failure describes the most recent failed cycle, if any.
	Failure *Failure `json:"failure,omitempty"`
}

// Store keeps the latest [CycleRecord] and notifies subscribers of updates.
//
// Store is safe for concurrent access. The pub/sub mechanism feeds the
// status server's event stream.
type Store struct {
	mu     sync.RWMutex
	latest *CycleRecord

	subMu       sync.RWMutex
	subscribers map[chan CycleRecord]struct{}
}

// New creates an empty [Store].
func New() *Store {
	return &Store{
		subscribers: make(map[chan CycleRecord]struct{}),
	}
}

// Update replaces the latest record and notifies all subscribers.
func (s *Store) Update(rec CycleRecord) {
	s.mu.Lock()
	s.latest = &rec
	s.mu.Unlock()

	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for ch := range s.subscribers {
		select {
		case ch <- rec:
		default:
			// subscriber is slow, drop the update
		}
	}
}

// Latest returns the most recent record. The second return is false until
// the first cycle has completed.
func (s *Store) Latest() (CycleRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return CycleRecord{}, false
	}
	return *s.latest, true
}

// Subscribe returns a buffered channel receiving every future update.
// Caller must call [Store.Unsubscribe] when done to release the channel.
func (s *Store) Subscribe() <-chan CycleRecord {
	ch := make(chan CycleRecord, 16)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// with a channel that was already unsubscribed.
func (s *Store) Unsubscribe(ch <-chan CycleRecord) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for sub := range s.subscribers {
		if sub == ch {
			delete(s.subscribers, sub)
			close(sub)
			return
		}
	}
}
