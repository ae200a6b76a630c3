package mcp

import (
	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval performs hybrid retrieval over one partition.
	Retrieval driving.RetrievalService

	// Router selects partitions for a query.
	Router driving.RouterService

	// Catalog describes the available partitions.
	Catalog *domain.Catalog
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Router == nil {
		return ErrMissingRouterService
	}
	return nil
}
