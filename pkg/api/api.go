// Package api defines the public API endpoints and handlers for the canonic gateway.
package api

// API version
const Version = "0.1.0"

// API endpoints
const (
	EndpointHealth = "/health"
	EndpointTables = "/tables"
	EndpointQuery  = "/query"
	EndpointAsk    = "/ask"
)

// HTTP headers
const (
	HeaderContentType = "Content-Type"
	HeaderQueryID     = "X-Query-ID"
)

// Content types
const (
	ContentTypeJSON = "application/json"
)
