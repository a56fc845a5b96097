// Package mcp implements the Model Context Protocol server for conceptgraph.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conceptgraph/internal/analytics"
	"github.com/ajitpratap0/conceptgraph/internal/ingest"
	"github.com/ajitpratap0/conceptgraph/internal/store"
)

// Server wraps an MCPServer with conceptgraph dependencies.
type Server struct {
	mcp       *mcpserver.MCPServer
	st        store.Store
	ingest    *ingest.Service
	analytics *analytics.Service
	logger    *zap.Logger
}

// NewServer creates a new MCP server. If a dependency is nil, the tools that
// need it return an error result instead of panicking.
func NewServer(st store.Store, ing *ingest.Service, an *analytics.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		st:        st,
		ingest:    ing,
		analytics: an,
		logger:    logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"conceptgraph",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildIngestTool(), s.handleIngest)
	mcpSrv.AddTool(buildImportantTokensTool(), s.handleImportantTokens)
	mcpSrv.AddTool(buildNGramsTool(), s.handleNGrams)
	mcpSrv.AddTool(buildCompareTool(), s.handleCompare)
	mcpSrv.AddTool(buildRecommendTool(), s.handleRecommend)
	mcpSrv.AddTool(buildStatsTool(), s.handleStats)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleIngest is the exported handler for the "ingest_text" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleIngest(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleIngest(ctx, req)
}

// HandleImportantTokens is the exported handler for the "important_tokens" tool.
func (s *Server) HandleImportantTokens(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleImportantTokens(ctx, req)
}

// HandleNGrams is the exported handler for the "ngrams" tool.
func (s *Server) HandleNGrams(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleNGrams(ctx, req)
}

// HandleCompare is the exported handler for the "compare_documents" tool.
func (s *Server) HandleCompare(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleCompare(ctx, req)
}

// HandleRecommend is the exported handler for the "recommend_entities" tool.
func (s *Server) HandleRecommend(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleRecommend(ctx, req)
}

// HandleStats is the exported handler for the "stats" tool.
func (s *Server) HandleStats(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleStats(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// --- tool definitions ---

func buildIngestTool() mcpgo.Tool {
	return mcpgo.NewTool("ingest_text",
		mcpgo.WithDescription("Ingest a document into the concept graph: split it into sentences and tokens and merge token co-occurrences."),
		mcpgo.WithString("text",
			mcpgo.Required(),
			mcpgo.Description("The document text"),
		),
		mcpgo.WithString("id",
			mcpgo.Description("Document id (default: a new uuid)"),
		),
		mcpgo.WithString("textual_identifier",
			mcpgo.Description("Human-readable name for the document"),
		),
	)
}

func buildImportantTokensTool() mcpgo.Tool {
	return mcpgo.NewTool("important_tokens",
		mcpgo.WithDescription("Rank tokens by the summed strength of their co-occurrence edges."),
		mcpgo.WithString("document_id",
			mcpgo.Description("Restrict to tokens of this document (default: whole graph)"),
		),
		mcpgo.WithNumber("k",
			mcpgo.Description("Number of tokens to return (default: 20)"),
		),
	)
}

func buildNGramsTool() mcpgo.Tool {
	return mcpgo.NewTool("ngrams",
		mcpgo.WithDescription("List 2- to 4-token phrases that occur in at least two sentences of a document."),
		mcpgo.WithString("document_id",
			mcpgo.Description("Restrict to this document (default: all documents)"),
		),
	)
}

func buildCompareTool() mcpgo.Tool {
	return mcpgo.NewTool("compare_documents",
		mcpgo.WithDescription("List the phrases two documents share, with their frequency in each."),
		mcpgo.WithString("first",
			mcpgo.Required(),
			mcpgo.Description("First document id"),
		),
		mcpgo.WithString("second",
			mcpgo.Required(),
			mcpgo.Description("Second document id"),
		),
	)
}

func buildRecommendTool() mcpgo.Tool {
	return mcpgo.NewTool("recommend_entities",
		mcpgo.WithDescription("Recommend curated entities for a set of tokens, scored by how many token links, sentence links and document links reach them."),
		mcpgo.WithArray("token_ids",
			mcpgo.Required(),
			mcpgo.WithStringItems(),
			mcpgo.Description("Token ids to recommend entities for"),
		),
		mcpgo.WithString("sentence_id",
			mcpgo.Description("Resolve sentence and document links through this sentence"),
		),
		mcpgo.WithBoolean("all",
			mcpgo.Description("Return every reachable entity without threshold or limit"),
		),
	)
}

func buildStatsTool() mcpgo.Tool {
	return mcpgo.NewTool("stats",
		mcpgo.WithDescription("Get graph statistics: node count per label and edge count per relationship type."),
	)
}

// --- tool handlers ---

// handleIngest extracts and flushes one document.
func (s *Server) handleIngest(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.ingest == nil {
		return mcpgo.NewToolResultError("ingestion is unavailable"), nil
	}
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcpgo.NewToolResultError("text is required and must not be empty"), nil
	}

	res, err := s.ingest.Ingest(ctx, ingest.Request{
		ID:                req.GetString("id", ""),
		Text:              text,
		TextualIdentifier: req.GetString("textual_identifier", ""),
		SourceID:          "mcp",
	})
	if err != nil {
		return mcpgo.NewToolResultErrorf("ingest failed: %s", err.Error()), nil
	}

	s.logger.Info("mcp: ingested document", zap.String("document_id", res.DocumentID), zap.Int("sentences", res.Sentences))
	return toolResultJSON(res)
}

func (s *Server) handleImportantTokens(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.analytics == nil {
		return mcpgo.NewToolResultError("analytics is unavailable"), nil
	}
	k := req.GetInt("k", 0)
	if k < 0 {
		return mcpgo.NewToolResultError("k must not be negative"), nil
	}
	tokens, err := s.analytics.ImportantTokens(ctx, req.GetString("document_id", ""), k)
	if err != nil {
		return mcpgo.NewToolResultErrorf("important tokens failed: %s", err.Error()), nil
	}
	return toolResultJSON(map[string]any{"tokens": tokens})
}

func (s *Server) handleNGrams(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.analytics == nil {
		return mcpgo.NewToolResultError("analytics is unavailable"), nil
	}
	grams, err := s.analytics.NGrams(ctx, req.GetString("document_id", ""))
	if err != nil {
		return mcpgo.NewToolResultErrorf("ngrams failed: %s", err.Error()), nil
	}
	return toolResultJSON(map[string]any{"ngrams": grams})
}

func (s *Server) handleCompare(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.analytics == nil {
		return mcpgo.NewToolResultError("analytics is unavailable"), nil
	}
	first := req.GetString("first", "")
	second := req.GetString("second", "")
	if first == "" || second == "" {
		return mcpgo.NewToolResultError("first and second are required"), nil
	}
	phrases, err := s.analytics.CompareDocuments(ctx, first, second)
	if err != nil {
		return mcpgo.NewToolResultErrorf("compare failed: %s", err.Error()), nil
	}
	return toolResultJSON(map[string]any{"phrases": phrases})
}

func (s *Server) handleRecommend(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.analytics == nil {
		return mcpgo.NewToolResultError("analytics is unavailable"), nil
	}
	tokens := req.GetStringSlice("token_ids", nil)
	if len(tokens) == 0 {
		return mcpgo.NewToolResultError("token_ids is required and must not be empty"), nil
	}
	recommend := s.analytics.RecommendEntities
	if req.GetBool("all", false) {
		recommend = s.analytics.EntitiesForTokens
	}
	recs, err := recommend(ctx, tokens, req.GetString("sentence_id", ""))
	if err != nil {
		return mcpgo.NewToolResultErrorf("recommend failed: %s", err.Error()), nil
	}
	return toolResultJSON(map[string]any{"recommendations": recs})
}

func (s *Server) handleStats(ctx context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.st == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}
	stats, err := s.st.Stats(ctx)
	if err != nil {
		return mcpgo.NewToolResultErrorf("stats failed: %s", err.Error()), nil
	}
	return toolResultJSON(stats)
}
