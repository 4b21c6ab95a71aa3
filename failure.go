package fvemon

import "time"

// FailureKind classifies why a poll cycle degraded.
//
// Transport-level kinds come from the fetch client, parse-level kinds from
// [Parse]. All of them are recoverable: a failed cycle never stops the
// coordinator, it only yields a degraded notification.
type FailureKind string

const (
	// FailureUnreachable covers connection refusal, DNS failure and
	// request timeouts.
	FailureUnreachable FailureKind = "unreachable"

	// FailureAuthRejected covers HTTP 401/403 and the endpoint's own
	// bad-token indicator in an otherwise successful response.
	FailureAuthRejected FailureKind = "auth_rejected"

	// FailureBadResponse covers other non-2xx statuses and empty bodies.
	FailureBadResponse FailureKind = "bad_response"

	// FailureMalformed means the body was not a JSON document.
	FailureMalformed FailureKind = "malformed"

	// FailureMissingField means a mandatory field map path was absent
	// or null.
	FailureMissingField FailureKind = "missing_field"

	// FailureTypeMismatch means a field's JSON type contradicted its
	// declared kind.
	FailureTypeMismatch FailureKind = "type_mismatch"
)

// String returns the string representation of the failure kind.
func (k FailureKind) String() string {
	return string(k)
}

// FailureRecord describes the failure of one poll cycle.
//
// Failure records are tracked independently of the last-known snapshot: a
// consumer can always read both "last good data" and "current health".
type FailureRecord struct {
	// At is the timestamp of the failed cycle.
	At time.Time

	// Kind is the failure classification.
	Kind FailureKind

	// HTTPStatus is the response status code, if a response was received.
	// Zero otherwise.
	HTTPStatus int

	// Message is the underlying error text, if any.
	Message string
}
