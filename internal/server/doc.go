// Package server exposes the monitor's latest cycle outcome over HTTP.
//
// This package is internal to fvemon. It serves a small read-only API:
// the latest cycle record as JSON, a Server-Sent Events stream of cycle
// outcomes, and liveness/readiness probes. It never accepts writes; the
// monitor remains strictly pull-based towards the FVE endpoint.
package server
