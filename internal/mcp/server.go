// Package mcp exposes the debate service as Model Context Protocol tools and
// resources over stdio or streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nickcecere/ldebate/internal/api"
)

const (
	// ServerName is the name of this MCP server.
	ServerName = "ldebate"

	// ServerVersion is the version of this server.
	ServerVersion = "1.0.0"
)

// ErrMissingService is returned when no api.Service is provided.
var ErrMissingService = errors.New("mcp: debate service is required")

// Server is the MCP server for ldebate.
type Server struct {
	svc    *api.Service
	server *mcp.Server
}

// NewServer creates a server with every tool and resource registered.
func NewServer(svc *api.Service) (*Server, error) {
	if svc == nil {
		return nil, ErrMissingService
	}

	s := &Server{
		svc: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		}, nil),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until the context is cancelled or the client
// disconnects. Logs must stay on stderr while it runs.
func (s *Server) Run(ctx context.Context) error {
	log.Info("MCP server starting", "transport", "stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until the context
// is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	log.Info("MCP server starting", "transport", "http", "addr", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
