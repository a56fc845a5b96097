package main

import (
	"log"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	graphmcp "github.com/ajitpratap0/conceptgraph/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  ingest_text         ingest a document
  important_tokens    rank tokens by co-occurrence strength
  ngrams              phrases repeated across sentences
  compare_documents   phrases two documents share
  recommend_entities  entities reachable from tokens
  stats               node and edge counts

If Neo4j is unavailable at startup the server still starts;
individual tool calls will return MCP error responses.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			var srv *graphmcp.Server
			a, err := newApp(cmd.Context(), logger, "")
			if err != nil {
				// Continue without dependencies; tool calls report the failure.
				logger.Error("mcp: failed to connect to store; tool calls will fail", zap.Error(err))
				srv = graphmcp.NewServer(nil, nil, nil, logger.Named("mcp"))
			} else {
				defer a.Close()
				srv = graphmcp.NewServer(a.store, a.ingest, a.analytics, logger.Named("mcp"))
			}

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: conceptgraph MCP server starting", zap.String("transport", "stdio"))

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
