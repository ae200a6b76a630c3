package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/logger"
)

// RetrieveInput is the input schema for the retrieve_guidance tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"incident or hazard description to find safety guidance for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of documents per partition (default 8, max 10)"`
}

// RetrieveOutput is the output schema for the retrieve_guidance tool.
type RetrieveOutput struct {
	Partitions []string         `json:"partitions"`
	Documents  []DocumentOutput `json:"documents"`
	Count      int              `json:"count"`
}

// DocumentOutput represents a single guidance document.
type DocumentOutput struct {
	Partition string  `json:"partition"`
	Source    string  `json:"source"`
	Section   string  `json:"section,omitempty"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
}

// RouteInput is the input schema for the route_query tool.
type RouteInput struct {
	Query string `json:"query" jsonschema:"incident or hazard description to route"`
}

// RouteOutput is the output schema for the route_query tool.
type RouteOutput struct {
	Partitions        []string               `json:"partitions"`
	FallbackPartition string                 `json:"fallback_partition,omitempty"`
	Attributes        domain.QueryAttributes `json:"attributes"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_guidance",
		Description: "Retrieve construction safety guidance documents for an incident or hazard description",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "route_query",
		Description: "Show which guidance partitions a query would be routed to",
	}, s.handleRoute)
}

// handleRetrieve handles the retrieve_guidance tool invocation. It runs
// one routing and retrieval round without the interactive refinement
// loop: the calling assistant does its own result selection.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	attrs := s.ports.Router.ExtractAttributes(ctx, input.Query)

	plan, err := s.ports.Router.Route(ctx, input.Query, attrs)
	if err != nil {
		return nil, RetrieveOutput{}, fmt.Errorf("routing query: %w", err)
	}

	opts := domain.RetrieveOptions{TopK: input.TopK}.Normalised()

	var merged []domain.Document
	for _, partitionID := range plan.Partitions {
		docs, err := s.ports.Retrieval.Retrieve(ctx, partitionID, input.Query, opts)
		if err != nil {
			logger.Warn("Partition %s failed: %v", partitionID, err)
			continue
		}
		merged = append(merged, docs...)
	}
	merged = domain.DedupDocuments(merged)

	output := RetrieveOutput{
		Partitions: plan.Partitions,
		Documents:  make([]DocumentOutput, len(merged)),
		Count:      len(merged),
	}
	for i, doc := range merged {
		output.Documents[i] = DocumentOutput{
			Partition: doc.PartitionID,
			Source:    doc.Source,
			Section:   doc.Section,
			Content:   doc.Content,
			Score:     doc.Score,
		}
	}

	return nil, output, nil
}

// handleRoute handles the route_query tool invocation.
func (s *Server) handleRoute(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RouteInput,
) (*mcp.CallToolResult, RouteOutput, error) {
	attrs := s.ports.Router.ExtractAttributes(ctx, input.Query)

	plan, err := s.ports.Router.Route(ctx, input.Query, attrs)
	if err != nil {
		return nil, RouteOutput{}, fmt.Errorf("routing query: %w", err)
	}

	return nil, RouteOutput{
		Partitions:        plan.Partitions,
		FallbackPartition: plan.FallbackPartition,
		Attributes:        attrs,
	}, nil
}
