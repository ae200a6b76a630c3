package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for Girder resources.
const uriScheme = "girder://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the partition catalog.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "partitions",
		Name:        "partitions",
		Description: "The guidance partition catalog queries are routed against",
		MIMEType:    "application/json",
	}, s.handlePartitionsResource)
}

// handlePartitionsResource returns the partition catalog.
func (s *Server) handlePartitionsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type partitionInfo struct {
		ID       string   `json:"id"`
		Domain   string   `json:"domain"`
		Keywords []string `json:"keywords,omitempty"`
	}

	var infos []partitionInfo
	if s.ports.Catalog != nil {
		for _, id := range s.ports.Catalog.IDs() {
			p, _ := s.ports.Catalog.Get(id)
			infos = append(infos, partitionInfo{
				ID:       p.ID,
				Domain:   p.Domain,
				Keywords: p.Keywords,
			})
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling partitions: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
