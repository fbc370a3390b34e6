package mcp

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"codegraph/internal/graph"
	"codegraph/internal/query"
	"codegraph/internal/search"
)

// MCPServer exposes the graph over the Model Context Protocol on stdio:
// graph_query runs query-language statements, graph_search does full-text
// lookup over node names and docstrings.
type MCPServer struct {
	store    *graph.Store
	executor *query.Executor
	searcher search.NodeSearcher
	mcp      *server.MCPServer
}

// NewMCPServer creates a server over an existing store and searcher. The
// searcher may be nil, in which case graph_search is not registered.
func NewMCPServer(store *graph.Store, executor *query.Executor, searcher search.NodeSearcher) *MCPServer {
	mcpServer := server.NewMCPServer(
		"codegraph-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddGraphQueryTool(mcpServer, store, executor)
	if searcher != nil {
		AddGraphSearchTool(mcpServer, searcher)
	}

	return &MCPServer{
		store:    store,
		executor: executor,
		searcher: searcher,
		mcp:      mcpServer,
	}
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases held resources.
func (s *MCPServer) Close() error {
	if s.searcher != nil {
		return s.searcher.Close()
	}
	return nil
}
