package fvemon

import (
	"errors"
	"net/url"
)

// Credentials identifies the monitored FVE system: the monitoring endpoint
// URL plus the client identifier and access token it expects as the
// c_monitor / t_monitor request parameters.
//
// Credentials are immutable after creation via [NewCredentials] and live for
// the lifetime of the coordinator they configure. The identifier and token
// are opaque strings; no validation happens beyond non-emptiness — bad
// values surface as auth_rejected or unreachable cycles, never as a crash.
type Credentials struct {
	endpointURL string
	clientID    string
	token       string
}

// NewCredentials validates and creates a [Credentials] record.
//
// The URL must parse and carry an http or https scheme; client id and token
// must be non-empty.
func NewCredentials(endpointURL, clientID, token string) (Credentials, error) {
	parsed, err := url.Parse(endpointURL)
	if err != nil {
		return Credentials{}, errors.New("invalid endpoint URL: " + err.Error())
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Credentials{}, errors.New("endpoint URL must have an http:// or https:// scheme")
	}
	if clientID == "" {
		return Credentials{}, errors.New("client id cannot be empty")
	}
	if token == "" {
		return Credentials{}, errors.New("token cannot be empty")
	}

	return Credentials{
		endpointURL: endpointURL,
		clientID:    clientID,
		token:       token,
	}, nil
}

// EndpointURL returns the monitoring endpoint URL.
func (c Credentials) EndpointURL() string {
	return c.endpointURL
}

// ClientID returns the client identifier sent as c_monitor.
func (c Credentials) ClientID() string {
	return c.clientID
}

// Token returns the access token sent as t_monitor.
func (c Credentials) Token() string {
	return c.token
}
