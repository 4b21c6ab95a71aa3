// Package fetch provides the HTTP client used for polling the FVE monitor.
//
// This package is internal to fvemon. It performs exactly one authenticated
// GET per call and classifies every failure; retry policy lives in the
// coordinator, never here.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeout and size limits
//   - [Request]: endpoint URL plus the c_monitor/t_monitor auth parameters
//   - [Result]: raw body or a classified [Error]
//
// Users of the fvemon library should not need to interact with this package
// directly.
package fetch
