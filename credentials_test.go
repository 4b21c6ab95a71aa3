package fvemon

import "testing"

// TestNewCredentials_Valid verifies that a well-formed record passes and the
// getters return what was given.
func TestNewCredentials_Valid(t *testing.T) {
	creds, err := NewCredentials("https://monitor.example.com/data", "client-1", "secret")
	if err != nil {
		t.Fatalf("NewCredentials failed: %v", err)
	}

	if creds.EndpointURL() != "https://monitor.example.com/data" {
		t.Errorf("EndpointURL = %q", creds.EndpointURL())
	}
	if creds.ClientID() != "client-1" {
		t.Errorf("ClientID = %q", creds.ClientID())
	}
	if creds.Token() != "secret" {
		t.Errorf("Token = %q", creds.Token())
	}
}

// TestNewCredentials_Invalid verifies the construction-time checks: URL
// scheme and non-empty identifier and token. Values themselves stay opaque.
func TestNewCredentials_Invalid(t *testing.T) {
	cases := []struct {
		name     string
		url      string
		clientID string
		token    string
	}{
		{"missing scheme", "monitor.example.com/data", "c", "t"},
		{"unsupported scheme", "ftp://monitor.example.com", "c", "t"},
		{"empty client id", "http://monitor.example.com", "", "t"},
		{"empty token", "http://monitor.example.com", "c", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCredentials(tc.url, tc.clientID, tc.token); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
