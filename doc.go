// Package fvemon polls a photovoltaic (FVE) monitoring endpoint and exposes
// its metrics as independently observable values with staleness and error
// semantics.
//
// fvemon is designed as an SDK-first library. It periodically fetches the
// endpoint's JSON document, extracts a fixed set of named metrics through a
// declarative field map, and fans out each cycle's outcome to subscribers.
// A cycle either fully succeeds — producing an immutable [Snapshot] that
// atomically replaces the previous one — or degrades, keeping the last-known
// snapshot and recording a classified [FailureRecord].
//
// # Quick Start
//
//	creds, _ := fvemon.NewCredentials("https://monitor.example.com/data", "client-1", "secret")
//	m, _ := fvemon.New(
//	    fvemon.WithCredentials(creds),
//	    fvemon.WithSubscriber(fvemon.SubscriberFunc(func(s *fvemon.Snapshot, healthy bool, f *fvemon.FailureRecord) {
//	        if pv, ok := s.Number(fvemon.PVPowerW); healthy && ok {
//	            fmt.Println("pv power:", pv)
//	        }
//	    })),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	m.Start(ctx) // blocks until context is cancelled
//
// # Field Map
//
// What gets extracted is declared once, in the field map returned by
// [Fields]: each entry binds an output metric key (e.g. [PVPowerW]) to the
// nested JSON path it is read from, its unit, and its value kind. Core
// metrics are mandatory — a response missing any of them fails the whole
// cycle rather than surfacing a partial snapshot — while attribute fields
// are optional.
//
// # Failure Semantics
//
// Fetch failures are classified as [FailureUnreachable],
// [FailureAuthRejected] or [FailureBadResponse]; parse failures as
// [FailureMalformed], [FailureMissingField] or [FailureTypeMismatch]. All of
// them are recoverable: each one yields a single degraded cycle, increments
// the consecutive-failure counter, and the next cycle tries again with no
// backoff. The counter resets on any successful cycle.
//
// # Architecture
//
// fvemon consists of several internal packages (under internal/):
//
//   - internal/fetch: authenticated HTTP polling with failure classification
//   - internal/store: latest cycle record with pub/sub for the status API
//   - internal/server: read-only JSON/SSE status API
//
// The internal packages are not part of the public API and may change
// without notice. The [Coordinator] poll loop, the [Parse] function and the
// field map are public so integrations can drive or test them directly.
package fvemon
