package fvemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mzaruba/fvemon/internal/fetch"
)

// fakeFetcher serves scripted results so cycle behavior can be tested
// without a network. Each call pops the next result; the last one repeats.
type fakeFetcher struct {
	mu      sync.Mutex
	results []fetch.Result
	calls   int

	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ fetch.Request) fetch.Result {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxSeen.Load()
		if cur <= max || f.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return fetch.Result{Err: &fetch.Error{Kind: fetch.KindUnreachable, Message: ctx.Err().Error()}}
		case <-time.After(f.delay):
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i]
}

func (f *fakeFetcher) Close() {}

type cycleOutcome struct {
	snapshot *Snapshot
	healthy  bool
	failure  *FailureRecord
}

// recordingSubscriber collects cycle outcomes on a channel.
type recordingSubscriber struct {
	outcomes chan cycleOutcome
}

func newRecordingSubscriber() *recordingSubscriber {
	return &recordingSubscriber{outcomes: make(chan cycleOutcome, 64)}
}

func (s *recordingSubscriber) OnUpdate(snapshot *Snapshot, healthy bool, failure *FailureRecord) {
	s.outcomes <- cycleOutcome{snapshot: snapshot, healthy: healthy, failure: failure}
}

func (s *recordingSubscriber) next(t *testing.T) cycleOutcome {
	t.Helper()
	select {
	case o := <-s.outcomes:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a cycle outcome")
		return cycleOutcome{}
	}
}

func testCredentials(t *testing.T) Credentials {
	t.Helper()
	creds, err := NewCredentials("http://fve.example/monitor", "client-1", "secret")
	if err != nil {
		t.Fatalf("NewCredentials failed: %v", err)
	}
	return creds
}

// newTestCoordinator builds a coordinator on a short interval and swaps in
// the fake fetcher before any cycle runs.
func newTestCoordinator(t *testing.T, f *fakeFetcher, subs ...Subscriber) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(testCredentials(t), 30*time.Millisecond, 20*time.Millisecond, subs, slog.Default())
	if err != nil {
		t.Fatalf("NewCoordinator failed: %v", err)
	}
	c.client.Close()
	c.client = f
	return c
}

func successResult(t *testing.T) fetch.Result {
	t.Helper()
	return fetch.Result{Body: testBody(t, testDocument()), StatusCode: 200}
}

func TestNewCoordinator_Validation(t *testing.T) {
	creds := testCredentials(t)

	if _, err := NewCoordinator(creds, 0, time.Second, nil, nil); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := NewCoordinator(creds, time.Second, 0, nil, nil); err == nil {
		t.Error("expected error for zero timeout")
	}
	if _, err := NewCoordinator(creds, time.Second, time.Second, nil, nil); err == nil {
		t.Error("expected error for timeout equal to interval")
	}
	if _, err := NewCoordinator(creds, time.Second, 500*time.Millisecond, nil, nil); err != nil {
		t.Errorf("unexpected error for valid timing: %v", err)
	}
}

func TestCoordinator_UpdatedCycle(t *testing.T) {
	sub := newRecordingSubscriber()
	c := newTestCoordinator(t, &fakeFetcher{results: []fetch.Result{successResult(t)}}, sub)

	c.Start(context.Background())
	defer c.Stop()

	o := sub.next(t)
	if !o.healthy {
		t.Fatalf("expected healthy cycle, got failure %+v", o.failure)
	}
	if o.failure != nil {
		t.Errorf("failure = %+v, want nil", o.failure)
	}
	if got, _ := o.snapshot.Number(PVPowerW); got != 1800 {
		t.Errorf("pv_power_w = %v, want 1800", got)
	}
	if c.Snapshot() != o.snapshot {
		t.Error("coordinator snapshot differs from the notified one")
	}
	if n := c.ConsecutiveFailures(); n != 0 {
		t.Errorf("consecutive failures = %d, want 0", n)
	}
}

func TestCoordinator_DegradedCycleKeepsSnapshot(t *testing.T) {
	sub := newRecordingSubscriber()
	c := newTestCoordinator(t, &fakeFetcher{results: []fetch.Result{
		successResult(t),
		{Err: &fetch.Error{Kind: fetch.KindAuthRejected, StatusCode: 401, Message: "token rejected"}},
	}}, sub)

	c.Start(context.Background())
	defer c.Stop()

	good := sub.next(t)
	if !good.healthy {
		t.Fatalf("first cycle degraded: %+v", good.failure)
	}

	bad := sub.next(t)
	if bad.healthy {
		t.Fatal("second cycle should be degraded")
	}
	if bad.failure == nil || bad.failure.Kind != FailureAuthRejected {
		t.Fatalf("failure = %+v, want kind %s", bad.failure, FailureAuthRejected)
	}
	if bad.failure.HTTPStatus != 401 {
		t.Errorf("http status = %d, want 401", bad.failure.HTTPStatus)
	}
	if bad.snapshot != good.snapshot {
		t.Error("degraded cycle should carry the last-known-good snapshot")
	}
	if c.Snapshot() != good.snapshot {
		t.Error("stored snapshot was replaced by a failed cycle")
	}

	last := c.LastFailure()
	if last == nil || last.Kind != FailureAuthRejected {
		t.Errorf("LastFailure = %+v, want auth_rejected", last)
	}
}

func TestCoordinator_FailureCounterResetsOnSuccess(t *testing.T) {
	unreachable := fetch.Result{Err: &fetch.Error{Kind: fetch.KindUnreachable, Message: "connection refused"}}
	sub := newRecordingSubscriber()
	c := newTestCoordinator(t, &fakeFetcher{results: []fetch.Result{
		unreachable, unreachable, unreachable, successResult(t),
	}}, sub)

	c.Start(context.Background())
	defer c.Stop()

	for i := 1; i <= 3; i++ {
		o := sub.next(t)
		if o.healthy {
			t.Fatalf("cycle %d unexpectedly healthy", i)
		}
	}
	if n := c.ConsecutiveFailures(); n != 3 {
		t.Fatalf("consecutive failures = %d, want 3", n)
	}

	o := sub.next(t)
	if !o.healthy {
		t.Fatalf("fourth cycle degraded: %+v", o.failure)
	}
	if n := c.ConsecutiveFailures(); n != 0 {
		t.Errorf("consecutive failures after recovery = %d, want 0", n)
	}
	// the last failure stays readable after recovery
	if last := c.LastFailure(); last == nil || last.Kind != FailureUnreachable {
		t.Errorf("LastFailure = %+v, want unreachable", last)
	}
}

func TestCoordinator_ParseFailure(t *testing.T) {
	sub := newRecordingSubscriber()
	c := newTestCoordinator(t, &fakeFetcher{results: []fetch.Result{
		{Body: []byte("<html>maintenance</html>"), StatusCode: 200},
	}}, sub)

	c.Start(context.Background())
	defer c.Stop()

	o := sub.next(t)
	if o.healthy {
		t.Fatal("expected degraded cycle")
	}
	if o.failure == nil || o.failure.Kind != FailureMalformed {
		t.Fatalf("failure = %+v, want kind %s", o.failure, FailureMalformed)
	}
	if o.snapshot != nil {
		t.Error("no snapshot should exist before the first successful cycle")
	}
}

func TestCoordinator_MissingFieldFailure(t *testing.T) {
	doc := testDocument()
	delete(doc, "baterie")

	sub := newRecordingSubscriber()
	c := newTestCoordinator(t, &fakeFetcher{results: []fetch.Result{
		{Body: testBody(t, doc), StatusCode: 200},
	}}, sub)

	c.Start(context.Background())
	defer c.Stop()

	o := sub.next(t)
	if o.healthy {
		t.Fatal("expected degraded cycle")
	}
	if o.failure == nil || o.failure.Kind != FailureMissingField {
		t.Fatalf("failure = %+v, want kind %s", o.failure, FailureMissingField)
	}
}

func TestCoordinator_CyclesNeverOverlap(t *testing.T) {
	// the fake holds every request past the poll interval; sequential
	// execution means at most one request is ever in flight
	f := &fakeFetcher{
		results: []fetch.Result{successResult(t)},
		delay:   10 * time.Millisecond,
	}
	c := newTestCoordinator(t, f)

	c.Start(context.Background())
	time.Sleep(200 * time.Millisecond)
	c.Stop()

	if max := f.maxSeen.Load(); max > 1 {
		t.Errorf("observed %d concurrent fetches, want at most 1", max)
	}
}

func TestCoordinator_StopDiscardsInFlightCycle(t *testing.T) {
	sub := newRecordingSubscriber()
	f := &fakeFetcher{
		results: []fetch.Result{successResult(t)},
		delay:   time.Hour,
	}
	// a long timeout keeps the fetch pending until Stop cancels it
	c, err := NewCoordinator(testCredentials(t), 10*time.Second, 5*time.Second, []Subscriber{sub}, slog.Default())
	if err != nil {
		t.Fatalf("NewCoordinator failed: %v", err)
	}
	c.client.Close()
	c.client = f

	c.Start(context.Background())
	// let the first cycle enter its fetch before stopping
	deadline := time.Now().Add(time.Second)
	for f.inFlight.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first fetch never started")
		}
		time.Sleep(time.Millisecond)
	}
	c.Stop()

	if got := c.State(); got != StateStopped {
		t.Errorf("state = %s, want %s", got, StateStopped)
	}
	select {
	case o := <-sub.outcomes:
		t.Errorf("unexpected notification after Stop: %+v", o)
	default:
	}
	if c.Snapshot() != nil {
		t.Error("discarded cycle must not store a snapshot")
	}
}

func TestCoordinator_StopIsIdempotent(t *testing.T) {
	c := newTestCoordinator(t, &fakeFetcher{results: []fetch.Result{successResult(t)}})

	// Stop before Start is a safe no-op
	c.Stop()
	if got := c.State(); got != StateStopped {
		t.Errorf("state = %s, want %s", got, StateStopped)
	}

	c.Stop()
	c.Stop()

	// Start after Stop must not revive the loop
	c.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	if got := c.State(); got != StateStopped {
		t.Errorf("state after Start-after-Stop = %s, want %s", got, StateStopped)
	}
}

func TestCoordinator_StartIsIdempotent(t *testing.T) {
	f := &fakeFetcher{results: []fetch.Result{successResult(t)}}
	c := newTestCoordinator(t, f)

	ctx := context.Background()
	c.Start(ctx)
	c.Start(ctx)
	c.Start(ctx)

	time.Sleep(200 * time.Millisecond)
	c.Stop()

	if max := f.maxSeen.Load(); max > 1 {
		t.Errorf("repeated Start spawned %d concurrent loops", max)
	}
}

func TestCoordinator_SubscriberPanicDoesNotStopLoop(t *testing.T) {
	panicking := SubscriberFunc(func(*Snapshot, bool, *FailureRecord) {
		panic("subscriber bug")
	})
	sub := newRecordingSubscriber()
	c := newTestCoordinator(t, &fakeFetcher{results: []fetch.Result{successResult(t)}}, panicking, sub)

	c.Start(context.Background())
	defer c.Stop()

	// the panicking subscriber runs first; later subscribers and later
	// cycles still fire
	first := sub.next(t)
	if !first.healthy {
		t.Fatalf("first cycle degraded: %+v", first.failure)
	}
	second := sub.next(t)
	if !second.healthy {
		t.Fatalf("second cycle degraded: %+v", second.failure)
	}
}

func TestCoordinator_ContextCancelStopsLoop(t *testing.T) {
	sub := newRecordingSubscriber()
	c := newTestCoordinator(t, &fakeFetcher{results: []fetch.Result{successResult(t)}}, sub)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	sub.next(t)
	cancel()
	c.Stop()

	// drain anything delivered before the cancel landed
	for len(sub.outcomes) > 0 {
		<-sub.outcomes
	}
	time.Sleep(100 * time.Millisecond)
	select {
	case o := <-sub.outcomes:
		t.Errorf("notification after context cancel: %+v", o)
	default:
	}
}

func TestMetricFunc(t *testing.T) {
	type call struct {
		v       Value
		ok      bool
		healthy bool
	}
	var calls []call
	sub := MetricFunc(BatterySOCPercent, func(v Value, ok, healthy bool) {
		calls = append(calls, call{v, ok, healthy})
	})

	snapshot, err := Parse(testBody(t, testDocument()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	sub.OnUpdate(snapshot, true, nil)
	sub.OnUpdate(snapshot, false, &FailureRecord{Kind: FailureUnreachable})
	sub.OnUpdate(nil, false, &FailureRecord{Kind: FailureUnreachable})

	if len(calls) != 3 {
		t.Fatalf("got %d calls, want 3", len(calls))
	}
	if !calls[0].ok || !calls[0].healthy || calls[0].v.Num != 87 {
		t.Errorf("healthy call = %+v, want soc 87", calls[0])
	}
	if calls[1].ok || calls[1].healthy {
		t.Errorf("degraded call = %+v, want zero value", calls[1])
	}
	if calls[2].ok || calls[2].healthy {
		t.Errorf("nil-snapshot call = %+v, want zero value", calls[2])
	}
}
