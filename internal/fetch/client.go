package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; one device is polled, so per-host limits are tight
const (
	defaultMaxIdleConns        = 4
	defaultMaxIdleConnsPerHost = 2
	defaultMaxConnsPerHost     = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

// Kind classifies a fetch failure.
type Kind string

const (
	// KindUnreachable: connection refused, DNS failure, or timeout.
	KindUnreachable Kind = "unreachable"

	// KindAuthRejected: HTTP 401/403, or the endpoint's bad-token body.
	KindAuthRejected Kind = "auth_rejected"

	// KindBadResponse: other non-2xx statuses, or an empty body.
	KindBadResponse Kind = "bad_response"
)

// Error is a classified fetch failure.
type Error struct {
	// Kind is the failure classification.
	Kind Kind

	// StatusCode is the HTTP status, zero if no response was received.
	StatusCode int

	// Message describes the underlying cause.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Request carries everything needed for one authenticated poll request.
type Request struct {
	// URL is the monitoring endpoint.
	URL string

	// ClientID is sent as the c_monitor query parameter.
	ClientID string

	// Token is sent as the t_monitor query parameter.
	Token string
}

// Result holds the outcome of one fetch.
//
// Err is nil exactly when Body holds a usable 2xx response body. Failures
// are returned, never silently dropped.
type Result struct {
	// Body is the raw response body, limited to 1MB. Nil on failure.
	Body []byte

	// StatusCode is the HTTP status code, zero if no response was received.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Err is the classified failure, nil on success.
	Err *Error
}

// Client is an HTTP client wrapper for polling the FVE monitor endpoint.
//
// Timeouts are applied per request via the context passed to [Client.Fetch];
// the coordinator derives that context with a deadline strictly shorter than
// the poll interval so a hung request cannot starve subsequent cycles.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a polling [Client] with a pooled keep-alive transport.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			// no global timeout - the coordinator bounds each call via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Fetch performs one authenticated GET and returns a classified [Result].
//
// The c_monitor and t_monitor parameters are appended to the endpoint URL's
// query string. Fetch never retries; a failed call is reported once through
// Result.Err and the next poll cycle tries again.
func (c *Client) Fetch(ctx context.Context, r Request) Result {
	start := time.Now()

	target, err := buildURL(r)
	if err != nil {
		return Result{
			Latency: time.Since(start),
			Err:     &Error{Kind: KindBadResponse, Message: "invalid endpoint URL: " + err.Error()},
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{
			Latency: time.Since(start),
			Err:     &Error{Kind: KindBadResponse, Message: "failed to create request: " + err.Error()},
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// covers refused connections, DNS failures and context deadline
		return Result{
			Latency: time.Since(start),
			Err:     &Error{Kind: KindUnreachable, Message: err.Error()},
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Result{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Err:        &Error{Kind: KindBadResponse, StatusCode: resp.StatusCode, Message: "failed to read response body: " + err.Error()},
		}
	}

	if e := classify(resp.StatusCode, body); e != nil {
		return Result{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Err:        e,
		}
	}

	return Result{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
// Safe to call multiple times; the client remains usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// buildURL appends the auth parameters to the endpoint URL.
func buildURL(r Request) (string, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("c_monitor", r.ClientID)
	q.Set("t_monitor", r.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// classify maps a received response to a fetch error, nil when usable.
//
// The monitor answers HTTP 200 with a bare "false" body when the token is
// rejected, so that body is an auth failure despite the 2xx status.
func classify(status int, body []byte) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindAuthRejected, StatusCode: status, Message: "endpoint rejected credentials"}
	case status < 200 || status > 299:
		return &Error{Kind: KindBadResponse, StatusCode: status, Message: "unexpected status"}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Error{Kind: KindBadResponse, StatusCode: status, Message: "empty response body"}
	}
	if bytes.EqualFold(trimmed, []byte("false")) {
		return &Error{Kind: KindAuthRejected, StatusCode: status, Message: "endpoint reported invalid token"}
	}
	return nil
}
