package fvemon

import "time"

// Value is a single extracted metric value.
//
// Exactly one of Num or Str is meaningful, selected by Kind: [KindNumber]
// and [KindPercent] populate Num, [KindString] populates Str.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

// MetricValue pairs a field map entry with its extracted value, used when
// enumerating a snapshot in field map order.
type MetricValue struct {
	Field Field
	Value Value
}

// Snapshot is the immutable bundle of all metric values extracted from one
// successful poll cycle.
//
// A Snapshot is only ever produced by [Parse] from a fully valid response;
// partial snapshots do not exist. A new Snapshot replaces the previous one
// atomically in the [Coordinator], so readers never observe a mix of two
// cycles.
type Snapshot struct {
	values      map[string]Value
	retrievedAt time.Time
}

// RetrievedAt returns the timestamp of the successful retrieval that
// produced this snapshot.
func (s *Snapshot) RetrievedAt() time.Time {
	return s.retrievedAt
}

// Value returns the value for a metric key and whether it is present.
// Optional fields absent from the polled response are not present.
func (s *Snapshot) Value(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Number returns the numeric value for a metric key. The second return is
// false if the key is absent or not numeric.
func (s *Snapshot) Number(key string) (float64, bool) {
	v, ok := s.values[key]
	if !ok || v.Kind == KindString {
		return 0, false
	}
	return v.Num, true
}

// Text returns the string value for a metric key. The second return is
// false if the key is absent or not a string.
func (s *Snapshot) Text(key string) (string, bool) {
	v, ok := s.values[key]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// Metrics returns all present values in field map order.
//
// The returned slice is freshly allocated on every call; the snapshot itself
// is never exposed for mutation.
func (s *Snapshot) Metrics() []MetricValue {
	out := make([]MetricValue, 0, len(s.values))
	for _, f := range fields {
		if v, ok := s.values[f.Key]; ok {
			out = append(out, MetricValue{Field: f, Value: v})
		}
	}
	return out
}

// Len returns the number of metrics present in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.values)
}
