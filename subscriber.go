package fvemon

// Subscriber receives the outcome of every completed poll cycle.
//
// OnUpdate is called exactly once per cycle, synchronously and in
// registration order, before the next cycle may begin:
//
//   - Updated cycle: (new snapshot, true, nil)
//   - Degraded cycle: (last-known snapshot or nil, false, failure record)
//
// OnUpdate must not block for long; it runs on the coordinator's cycle
// goroutine. Panics in a subscriber are recovered and logged, they do not
// stop the coordinator.
type Subscriber interface {
	OnUpdate(snapshot *Snapshot, healthy bool, failure *FailureRecord)
}

// SubscriberFunc adapts a plain function to the [Subscriber] interface.
type SubscriberFunc func(snapshot *Snapshot, healthy bool, failure *FailureRecord)

// OnUpdate implements [Subscriber].
func (f SubscriberFunc) OnUpdate(snapshot *Snapshot, healthy bool, failure *FailureRecord) {
	f(snapshot, healthy, failure)
}

// MetricFunc returns a [Subscriber] that watches a single metric key,
// typically instantiated once per field map entry at setup.
//
// On an updated cycle the callback receives the metric's current value and
// ok=true (ok=false when an optional field is absent from the snapshot). On
// a degraded cycle it receives the zero Value with ok=false, so a sensor can
// mark itself stale.
func MetricFunc(key string, fn func(v Value, ok bool, healthy bool)) Subscriber {
	return SubscriberFunc(func(snapshot *Snapshot, healthy bool, _ *FailureRecord) {
		if !healthy || snapshot == nil {
			fn(Value{}, false, false)
			return
		}
		v, ok := snapshot.Value(key)
		fn(v, ok, true)
	})
}
