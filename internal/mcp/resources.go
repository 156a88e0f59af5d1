package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "ldebate://"

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Every document in the knowledge base with its kind",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{filename}",
		Name:        "document-content",
		Description: "Content of a knowledge base document as it is given to the agents",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

func (s *Server) handleDocumentsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type docInfo struct {
		Filename string `json:"filename"`
		Kind     string `json:"kind"`
		URI      string `json:"uri"`
	}

	docs := s.svc.ListDocuments()
	infos := make([]docInfo, len(docs))
	for i, d := range docs {
		infos[i] = docInfo{
			Filename: d.Filename,
			Kind:     string(d.Kind),
			URI:      uriScheme + "documents/" + d.Filename,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleDocumentContentResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractFilename(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	for _, d := range s.svc.ListDocuments() {
		if d.Filename == name {
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{
					URI:      req.Params.URI,
					MIMEType: "text/plain",
					Text:     d.Content.String(),
				}},
			}, nil
		}
	}

	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

// extractFilename extracts the name from ldebate://documents/{filename}.
func extractFilename(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	name := strings.TrimPrefix(uri, prefix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}
