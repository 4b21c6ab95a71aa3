package fvemon

import (
	"encoding/json"
	"fmt"
	"time"
)

// ParseError reports why a response body could not be turned into a
// [Snapshot]. Kind is one of [FailureMalformed], [FailureMissingField] or
// [FailureTypeMismatch]; Key names the offending field map entry for the
// latter two.
type ParseError struct {
	Kind FailureKind
	Key  string
	err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case FailureMalformed:
		return fmt.Sprintf("malformed response: %v", e.err)
	case FailureMissingField:
		return fmt.Sprintf("missing field %q", e.Key)
	default:
		return fmt.Sprintf("type mismatch for field %q", e.Key)
	}
}

// Unwrap returns the underlying JSON error for malformed bodies, nil otherwise.
func (e *ParseError) Unwrap() error {
	return e.err
}

// Parse extracts a [Snapshot] from a raw response body using the field map.
//
// Parse is a pure function: no I/O, deterministic for a given body. It is
// all-or-nothing for mandatory fields — any missing path, null node or type
// mismatch aborts the whole parse, so subscribers never see a snapshot with
// silently-zeroed readings. Optional fields are skipped when absent or null,
// but a present optional field must still match its declared kind. Numeric
// values pass through without scaling; units are metadata for the consumer.
//
// Unknown keys in the document are ignored.
func Parse(body []byte) (*Snapshot, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ParseError{Kind: FailureMalformed, err: err}
	}

	values := make(map[string]Value, len(fields))
	for _, f := range fields {
		raw, ok := walkPath(doc, f.Path)
		if !ok || raw == nil {
			if f.Optional {
				continue
			}
			return nil, &ParseError{Kind: FailureMissingField, Key: f.Key}
		}

		v, ok := convert(raw, f.Kind)
		if !ok {
			return nil, &ParseError{Kind: FailureTypeMismatch, Key: f.Key}
		}
		values[f.Key] = v
	}

	return &Snapshot{values: values, retrievedAt: time.Now()}, nil
}

// walkPath descends nested JSON objects along the field path. The second
// return is false if any intermediate node is missing or not an object.
func walkPath(doc map[string]any, path []string) (any, bool) {
	var current any = doc
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// convert checks a raw JSON value against the declared kind.
func convert(raw any, kind ValueKind) (Value, bool) {
	switch kind {
	case KindNumber, KindPercent:
		n, ok := raw.(float64)
		if !ok {
			return Value{}, false
		}
		return Value{Kind: kind, Num: n}, true
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, false
		}
		return Value{Kind: kind, Str: s}, true
	default:
		return Value{}, false
	}
}
