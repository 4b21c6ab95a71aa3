package fvemon

import (
	"errors"
	"log/slog"
	"time"
)

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
	creds            Credentials
	hasCreds         bool
	pollInterval     time.Duration
	requestTimeout   time.Duration
	subscribers      []Subscriber
	logger           *slog.Logger
	statusAddr       string
	failureThreshold int
}

// Option configures a [Monitor] during construction via [New].
//
// Options return an error if validation fails. Built-in options:
// [WithCredentials], [WithPollInterval], [WithRequestTimeout],
// [WithSubscriber], [WithLogger], [WithStatusAddr], [WithFailureThreshold].
type Option func(*monitorConfig) error

// WithCredentials sets the monitored endpoint's credentials. Required.
func WithCredentials(c Credentials) Option {
	return func(cfg *monitorConfig) error {
		cfg.creds = c
		cfg.hasCreds = true
		return nil
	}
}

// WithPollInterval sets the time between poll cycles.
//
// Defaults to 5 seconds. Must be at least 1 second so the endpoint is never
// hammered.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d < time.Second {
			return errors.New("poll interval must be at least 1s")
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithRequestTimeout bounds each poll request.
//
// Defaults to 4 seconds. Must be positive and strictly shorter than the poll
// interval (validated together in [New]) so a hung request degrades a single
// cycle instead of stalling the loop.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithSubscriber registers a [Subscriber] notified on every completed cycle.
//
// May be used multiple times; subscribers are notified in registration
// order. Nil subscribers are silently ignored.
func WithSubscriber(s Subscriber) Option {
	return func(cfg *monitorConfig) error {
		if s == nil {
			return nil
		}
		cfg.subscribers = append(cfg.subscribers, s)
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithStatusAddr enables the read-only status API on the given listen
// address (e.g. ":8080"). Disabled when empty, which is the default.
func WithStatusAddr(addr string) Option {
	return func(cfg *monitorConfig) error {
		cfg.statusAddr = addr
		return nil
	}
}

// WithFailureThreshold sets how many consecutive degraded cycles mark the
// system unavailable in the status API. Defaults to 3. The coordinator
// itself applies no threshold; it only exposes the counter.
func WithFailureThreshold(n int) Option {
	return func(cfg *monitorConfig) error {
		if n <= 0 {
			return errors.New("failure threshold must be positive")
		}
		cfg.failureThreshold = n
		return nil
	}
}
