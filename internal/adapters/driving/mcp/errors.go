// Package mcp provides an MCP (Model Context Protocol) server adapter for
// Girder. It lets AI assistants retrieve construction safety guidance
// through the same routing and retrieval pipeline the CLI uses.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// ErrMissingRouterService is returned when the router service is not provided.
var ErrMissingRouterService = errors.New("mcp: router service is required")
