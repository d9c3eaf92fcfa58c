// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// AgentInvoke caps one model invocation, including structured output parsing.
const AgentInvoke = 120 * time.Second

// PageFetch caps one reader-API page fetch during scans and research scraping.
const PageFetch = 45 * time.Second

// Search caps one search-API call when collecting research links.
const Search = 20 * time.Second

// PublishSubmit caps one auto-publish POST to a configured endpoint.
const PublishSubmit = 30 * time.Second
