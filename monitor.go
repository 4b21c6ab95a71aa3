package fvemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mzaruba/fvemon/internal/server"
	"github.com/mzaruba/fvemon/internal/store"
)

const (
	defaultPollInterval     = 5 * time.Second
	defaultRequestTimeout   = 4 * time.Second
	defaultFailureThreshold = 3
)

// Monitor is the top-level orchestrator for one FVE system: it owns the
// [Coordinator], keeps the latest cycle outcome in an internal store, and
// optionally serves the status API.
//
// The typical lifecycle is:
//
//	m, err := fvemon.New(fvemon.WithCredentials(creds))
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	m.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context; cancelling it stops the
// coordinator and the status server. For finer control over the poll loop
// alone, construct a [Coordinator] directly.
type Monitor struct {
	coordinator      *Coordinator
	store            *store.Store
	statusAddr       string
	failureThreshold int
	logger           *slog.Logger
}

// New creates a [Monitor] with the given options.
//
// [WithCredentials] is required. Defaults: 5 s poll interval, 4 s request
// timeout, failure threshold 3, no status API.
func New(opts ...Option) (*Monitor, error) {
	cfg := &monitorConfig{
		pollInterval:     defaultPollInterval,
		requestTimeout:   defaultRequestTimeout,
		failureThreshold: defaultFailureThreshold,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if !cfg.hasCreds {
		return nil, errors.New("credentials are required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Monitor{
		store:            store.New(),
		statusAddr:       cfg.statusAddr,
		failureThreshold: cfg.failureThreshold,
		logger:           logger,
	}

	// the store subscriber runs after user subscribers so the API reflects
	// a cycle only once every registered sink has seen it
	subscribers := append([]Subscriber{}, cfg.subscribers...)
	subscribers = append(subscribers, SubscriberFunc(m.recordCycle))

	coordinator, err := NewCoordinator(cfg.creds, cfg.pollInterval, cfg.requestTimeout, subscribers, logger)
	if err != nil {
		return nil, err
	}
	m.coordinator = coordinator

	return m, nil
}

// Start begins polling and, when configured, serves the status API.
//
// Start is a blocking call that runs until the provided context is
// cancelled. It returns nil on graceful shutdown and an error only if the
// status server fails to start.
func (m *Monitor) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	m.logger.Info("monitor starting",
		"poll_interval", m.coordinator.interval.String(),
		"status_api", m.statusAddr != "",
	)

	m.coordinator.Start(ctx)

	if m.statusAddr != "" {
		srv := server.New(m.store, m.statusAddr, m.logger)
		if err := srv.Start(ctx); err != nil {
			m.coordinator.Stop()
			return fmt.Errorf("failed to start status server: %w", err)
		}
		m.logger.Info("status api listening", "addr", m.statusAddr)
	}

	<-ctx.Done()
	m.coordinator.Stop()
	m.logger.Info("monitor stopped")
	return nil
}

// Snapshot returns the last-known-good snapshot, nil before the first
// successful cycle.
func (m *Monitor) Snapshot() *Snapshot {
	return m.coordinator.Snapshot()
}

// State returns the coordinator's current state.
func (m *Monitor) State() State {
	return m.coordinator.State()
}

// ConsecutiveFailures returns the count of back-to-back degraded cycles.
func (m *Monitor) ConsecutiveFailures() int {
	return m.coordinator.ConsecutiveFailures()
}

// LastFailure returns the most recent cycle failure, nil if none occurred.
func (m *Monitor) LastFailure() *FailureRecord {
	return m.coordinator.LastFailure()
}

// recordCycle converts a cycle outcome into the store representation.
func (m *Monitor) recordCycle(snapshot *Snapshot, healthy bool, failure *FailureRecord) {
	failures := m.coordinator.ConsecutiveFailures()

	rec := store.CycleRecord{
		Healthy:             healthy,
		Available:           failures < m.failureThreshold,
		ConsecutiveFailures: failures,
		CheckedAt:           time.Now(),
	}

	if snapshot != nil {
		at := snapshot.RetrievedAt()
		rec.RetrievedAt = &at
		rec.Metrics = storeMetrics(snapshot)
	}

	if failure != nil {
		rec.Failure = &store.Failure{
			At:         failure.At,
			Kind:       failure.Kind.String(),
			HTTPStatus: failure.HTTPStatus,
			Message:    failure.Message,
		}
	}

	m.store.Update(rec)
}

// storeMetrics converts snapshot values to their storage representation.
func storeMetrics(s *Snapshot) []store.Metric {
	values := s.Metrics()
	out := make([]store.Metric, 0, len(values))
	for _, mv := range values {
		sm := store.Metric{
			Key:  mv.Field.Key,
			Unit: mv.Field.Unit,
			Kind: string(mv.Value.Kind),
		}
		if mv.Value.Kind == KindString {
			text := mv.Value.Str
			sm.Text = &text
		} else {
			num := mv.Value.Num
			sm.Number = &num
		}
		out = append(out, sm)
	}
	return out
}
