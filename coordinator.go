package fvemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mzaruba/fvemon/internal/fetch"
)

// State is the coordinator's position in its cycle state machine.
type State string

const (
	// StateIdle: between cycles, waiting for the next timer tick.
	StateIdle State = "idle"

	// StateFetching: a cycle's HTTP request is in flight.
	StateFetching State = "fetching"

	// StateParsing: the cycle's response body is being extracted.
	StateParsing State = "parsing"

	// StateUpdated: the last cycle replaced the stored snapshot.
	StateUpdated State = "updated"

	// StateDegraded: the last cycle failed; the stored snapshot is stale.
	StateDegraded State = "degraded"

	// StateStopped: terminal, entered by [Coordinator.Stop].
	StateStopped State = "stopped"
)

// fetcher abstracts the HTTP client so cycle behavior is testable without
// a network.
type fetcher interface {
	Fetch(ctx context.Context, r fetch.Request) fetch.Result
	Close()
}

// Coordinator owns the poll loop for one FVE system.
//
// On every timer tick it runs a single fetch+parse+notify cycle: a
// successful cycle atomically replaces the last-known-good [Snapshot] and
// resets the consecutive-failure counter; a failed cycle keeps the previous
// snapshot, increments the counter and records a [FailureRecord]. Every
// registered [Subscriber] is notified exactly once per cycle, synchronously
// and in order, before the next cycle may begin.
//
// Cycles are strictly sequential: the loop runs on a single goroutine, so a
// tick that fires while a cycle is still in flight is deferred, never run
// concurrently. The per-request timeout is strictly shorter than the poll
// interval, so a slow endpoint degrades a cycle instead of accumulating
// backlog.
//
// Failures of any kind never stop the loop; every cycle is attempted
// regardless of prior failures. Consumers that need an availability alarm
// read [Coordinator.ConsecutiveFailures] and apply their own threshold.
//
// All lifecycle methods are safe for concurrent use.
type Coordinator struct {
	creds       Credentials
	interval    time.Duration
	timeout     time.Duration
	client      fetcher
	subscribers []Subscriber
	logger      *slog.Logger

	mu          sync.Mutex
	state       State
	snapshot    *Snapshot
	lastFailure *FailureRecord
	failures    int
	started     bool
	stopped     bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoordinator creates a [Coordinator] for the given credentials.
//
// interval is the poll interval and must be positive — this is the only
// setup-time escalation; bad credential values merely produce degraded
// cycles once polling starts. timeout bounds each request and must be
// positive and strictly less than interval. Subscribers are notified in the
// order given. A nil logger falls back to [slog.Default].
func NewCoordinator(creds Credentials, interval, timeout time.Duration, subscribers []Subscriber, logger *slog.Logger) (*Coordinator, error) {
	if interval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	if timeout <= 0 || timeout >= interval {
		return nil, fmt.Errorf("request timeout must be positive and shorter than the poll interval %s", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}

	subs := make([]Subscriber, len(subscribers))
	copy(subs, subscribers)

	return &Coordinator{
		creds:       creds,
		interval:    interval,
		timeout:     timeout,
		client:      fetch.NewClient(),
		subscribers: subs,
		logger:      logger,
		state:       StateIdle,
	}, nil
}

// Start begins the poll loop in a background goroutine.
//
// Start is non-blocking: it runs one cycle immediately, then one per poll
// interval until [Coordinator.Stop] is called or the context is cancelled.
// Start is idempotent; calls after the first (or after Stop) are no-ops.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()

		c.runCycle(loopCtx)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				c.runCycle(loopCtx)
			}
		}
	}()
}

// Stop halts the poll loop and transitions to [StateStopped].
//
// Any in-flight request is cancelled; its result is discarded without state
// mutation or subscriber notification. Stop is idempotent: calling it again,
// or before Start, is a safe no-op.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		c.state = StateStopped
		if c.cancel != nil {
			c.cancel()
		}
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.client.Close()
}

// State returns the coordinator's current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the last-known-good snapshot, nil if no cycle has
// succeeded yet. The snapshot is immutable and safe to retain.
func (c *Coordinator) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// LastFailure returns a copy of the most recent cycle failure, nil if no
// cycle has failed yet. It is retained across later successful cycles so
// "last good data" and "last failure" can both always be read.
func (c *Coordinator) LastFailure() *FailureRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastFailure == nil {
		return nil
	}
	cp := *c.lastFailure
	return &cp
}

// ConsecutiveFailures returns the number of back-to-back degraded cycles.
// Any updated cycle resets it to zero.
func (c *Coordinator) ConsecutiveFailures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// runCycle executes one fetch+parse+notify cycle.
func (c *Coordinator) runCycle(ctx context.Context) {
	cycleID := uuid.NewString()

	if !c.setState(StateFetching) {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	res := c.client.Fetch(fetchCtx, fetch.Request{
		URL:      c.creds.EndpointURL(),
		ClientID: c.creds.ClientID(),
		Token:    c.creds.Token(),
	})
	cancel()

	// stopped mid-fetch: the outstanding result is discarded entirely
	if ctx.Err() != nil {
		return
	}

	if res.Err != nil {
		c.finishCycle(cycleID, nil, &FailureRecord{
			At:         time.Now(),
			Kind:       FailureKind(res.Err.Kind),
			HTTPStatus: res.Err.StatusCode,
			Message:    res.Err.Message,
		})
		return
	}

	if !c.setState(StateParsing) {
		return
	}

	snapshot, err := Parse(res.Body)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.finishCycle(cycleID, nil, parseFailureRecord(err, res.StatusCode))
		return
	}

	c.finishCycle(cycleID, snapshot, nil)
}

// finishCycle merges a cycle outcome into coordinator state and fans it out.
// Notification happens outside the lock but on the cycle goroutine, so all
// subscribers see this cycle's outcome before the next cycle begins.
func (c *Coordinator) finishCycle(cycleID string, snapshot *Snapshot, failure *FailureRecord) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	var (
		notifySnapshot *Snapshot
		healthy        bool
		failures       int
	)
	if failure == nil {
		c.snapshot = snapshot
		c.failures = 0
		c.state = StateUpdated
		notifySnapshot = snapshot
		healthy = true
	} else {
		c.lastFailure = failure
		c.failures++
		c.state = StateDegraded
		notifySnapshot = c.snapshot
	}
	failures = c.failures
	subs := c.subscribers
	c.mu.Unlock()

	if failure == nil {
		c.logger.Debug("cycle updated",
			"cycle_id", cycleID,
			"metrics", snapshot.Len(),
		)
	} else {
		c.logger.Warn("cycle degraded",
			"cycle_id", cycleID,
			"kind", failure.Kind.String(),
			"http_status", failure.HTTPStatus,
			"consecutive_failures", failures,
			"error", failure.Message,
		)
	}

	for _, sub := range subs {
		c.notifySafe(sub, notifySnapshot, healthy, failure)
	}

	c.setState(StateIdle)
}

// notifySafe invokes one subscriber with panic recovery. A panicking
// subscriber is logged with a correlation ID and does not stop the loop.
func (c *Coordinator) notifySafe(sub Subscriber, snapshot *Snapshot, healthy bool, failure *FailureRecord) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			c.logger.Error("subscriber panicked",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	sub.OnUpdate(snapshot, healthy, failure)
}

// setState transitions the state machine, refusing to leave StateStopped.
// Returns false once stopped.
func (c *Coordinator) setState(s State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	c.state = s
	return true
}

// parseFailureRecord converts a [Parse] error into a failure record.
func parseFailureRecord(err error, httpStatus int) *FailureRecord {
	rec := &FailureRecord{
		At:         time.Now(),
		Kind:       FailureMalformed,
		HTTPStatus: httpStatus,
		Message:    err.Error(),
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		rec.Kind = pe.Kind
	}
	return rec
}
