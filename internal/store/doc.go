// Package store holds the most recent poll cycle outcome for the status API.
//
// This package is internal to fvemon. It keeps exactly one record — the
// latest completed cycle — plus a publish-subscribe mechanism so the status
// server can stream cycle outcomes to connected clients.
//
// Subscribers receive updates via buffered channels with non-blocking sends;
// a slow subscriber misses updates rather than blocking the poll loop.
package store
