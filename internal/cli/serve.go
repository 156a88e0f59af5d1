package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nickcecere/ldebate/internal/config"
	"github.com/nickcecere/ldebate/internal/mcp"
)

var (
	serveHTTP    string
	serveNoWatch bool
)

// serveCmd represents the MCP server command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the debate tools",
	Long: `Start a Model Context Protocol (MCP) server so AI assistants can run
debates, search the knowledge base and add documents.

Tools:
  - ldebate_debate, ldebate_optimist, ldebate_pessimist, ldebate_synthesis
  - ldebate_search, ldebate_upload, ldebate_reload

Resources:
  - ldebate://documents and ldebate://documents/{filename}

The server speaks stdio by default. Use --http to serve the streamable HTTP
transport instead. A background watcher keeps the knowledge base in sync with
its directory unless --no-watch is given.`,
	Args: cobra.NoArgs,
	RunE: runServeCmd,
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTP, "http", "", "serve streamable HTTP on this address instead of stdio")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "disable background file watching")
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	transport := cfg.Server.Transport
	addr := cfg.Server.Addr
	if serveHTTP != "" {
		transport = "http"
		addr = serveHTTP
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(svc)
	if err != nil {
		return err
	}

	if cfg.Server.Watch && !serveNoWatch {
		go startBackgroundWatcher(ctx, svc.Knowledge())
	}

	switch transport {
	case "stdio", "":
		return server.Run(ctx)
	case "http":
		return server.RunHTTP(ctx, addr)
	default:
		return fmt.Errorf("unknown transport: %s (use stdio or http)", transport)
	}
}
