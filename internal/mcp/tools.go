package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"codegraph/internal/graph"
	"codegraph/internal/query"
	"codegraph/internal/search"
)

// AddGraphQueryTool registers the graph_query tool. Composable: it can be
// combined with other tool registrations on the same server.
func AddGraphQueryTool(s *server.MCPServer, store *graph.Store, executor *query.Executor) {
	tool := mcp.NewTool(
		"graph_query",
		mcp.WithDescription("Run a code-graph query. Supports SELECT over nodes (e.g. 'SELECT name, complexity FROM functions WHERE complexity > 10'), dependency traversals ('SHOW CALLERS OF foo DEPTH 2', terse: 'callers foo d2'), path finding ('FIND PATH FROM foo TO bar VIA calls'), whole-graph analyses ('ANALYZE CYCLES') and 'DESCRIBE <node>'."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The query string, in verbose or terse syntax")),
	)
	s.AddTool(tool, createGraphQueryHandler(store, executor))
}

func createGraphQueryHandler(store *graph.Store, executor *query.Executor) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		queryStr, ok := argsMap["query"].(string)
		if !ok || queryStr == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		result, err := executor.Run(queryStr, store.Snapshot())
		if err != nil {
			// Parse errors are results for the model, not protocol failures.
			return mcp.NewToolResultError(err.Error()), nil
		}

		jsonData, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// AddGraphSearchTool registers the graph_search tool.
func AddGraphSearchTool(s *server.MCPServer, searcher search.NodeSearcher) {
	tool := mcp.NewTool(
		"graph_search",
		mcp.WithDescription("Full-text search over code-graph nodes: names, qualified names and docstrings. Supports bleve query-string syntax including field scoping ('name:run'), wildcards and fuzzy matching."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query text")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (1-100, default: 15)")),
		mcp.WithString("type",
			mcp.Description("Restrict to one node type: module, class, function, method, import")),
		mcp.WithString("language",
			mcp.Description("Restrict to one source language tag, e.g. 'python'")),
	)
	s.AddTool(tool, createGraphSearchHandler(searcher))
}

func createGraphSearchHandler(searcher search.NodeSearcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		queryStr, ok := argsMap["query"].(string)
		if !ok || queryStr == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		opts := &search.SearchOptions{Limit: 15}
		if limit, ok := argsMap["limit"].(float64); ok {
			opts.Limit = int(limit)
		}
		if nodeType, ok := argsMap["type"].(string); ok {
			opts.NodeType = nodeType
		}
		if language, ok := argsMap["language"].(string); ok {
			opts.Language = language
		}

		hits, err := searcher.Search(ctx, queryStr, opts)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		response := map[string]interface{}{
			"results": hits,
			"total":   len(hits),
		}
		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
