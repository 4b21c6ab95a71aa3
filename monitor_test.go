package fvemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestNew_OptionValidation(t *testing.T) {
	creds := testCredentials(t)

	cases := []struct {
		name string
		opts []Option
	}{
		{"interval below a second", []Option{WithCredentials(creds), WithPollInterval(500 * time.Millisecond)}},
		{"zero timeout", []Option{WithCredentials(creds), WithRequestTimeout(0)}},
		{"timeout not below interval", []Option{WithCredentials(creds), WithPollInterval(2 * time.Second), WithRequestTimeout(2 * time.Second)}},
		{"nil logger", []Option{WithCredentials(creds), WithLogger(nil)}},
		{"zero failure threshold", []Option{WithCredentials(creds), WithFailureThreshold(0)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.opts...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	m, err := New(WithCredentials(testCredentials(t)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if m.coordinator.interval != defaultPollInterval {
		t.Errorf("interval = %s, want %s", m.coordinator.interval, defaultPollInterval)
	}
	if m.coordinator.timeout != defaultRequestTimeout {
		t.Errorf("timeout = %s, want %s", m.coordinator.timeout, defaultRequestTimeout)
	}
	if m.failureThreshold != defaultFailureThreshold {
		t.Errorf("threshold = %d, want %d", m.failureThreshold, defaultFailureThreshold)
	}
}

// TestMonitor_EndToEnd polls a real HTTP endpoint through the full stack:
// client, parser, coordinator, store subscriber.
func TestMonitor_EndToEnd(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t_monitor") != "secret" {
			_, _ = w.Write([]byte("false"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		doc := testDocument()
		_ = json.NewEncoder(w).Encode(doc)
	}))
	defer endpoint.Close()

	creds, err := NewCredentials(endpoint.URL, "client-1", "secret")
	if err != nil {
		t.Fatalf("NewCredentials failed: %v", err)
	}

	updated := make(chan *Snapshot, 1)
	m, err := New(
		WithCredentials(creds),
		WithSubscriber(SubscriberFunc(func(s *Snapshot, healthy bool, _ *FailureRecord) {
			if healthy {
				select {
				case updated <- s:
				default:
				}
			}
		})),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	select {
	case s := <-updated:
		if got, _ := s.Number(TotalConsumptionW); got != 1500 {
			t.Errorf("total_consumption_w = %v, want 1500", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no successful cycle within 5s")
	}

	if m.Snapshot() == nil {
		t.Error("monitor snapshot is nil after a successful cycle")
	}
	if rec, ok := m.store.Latest(); !ok {
		t.Error("store has no record after a successful cycle")
	} else if !rec.Healthy || !rec.Available {
		t.Errorf("store record = healthy %t available %t, want both true", rec.Healthy, rec.Available)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v, want nil on graceful shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after context cancel")
	}
	if got := m.State(); got != StateStopped {
		t.Errorf("state = %s, want %s", got, StateStopped)
	}
}

func TestMonitor_StartWithCancelledContext(t *testing.T) {
	m, err := New(WithCredentials(testCredentials(t)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Start(ctx); err != nil {
		t.Errorf("Start with cancelled context returned %v", err)
	}
}

func TestMonitor_StatusServerBindFailure(t *testing.T) {
	// occupy a port so the status server cannot bind it
	blocker := httptest.NewServer(http.NotFoundHandler())
	defer blocker.Close()
	addr := blocker.Listener.Addr().String()

	m, err := New(
		WithCredentials(testCredentials(t)),
		WithStatusAddr(addr),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected bind error from Start")
	}
	if got := m.State(); got != StateStopped {
		t.Errorf("state after failed start = %s, want %s", got, StateStopped)
	}
}
