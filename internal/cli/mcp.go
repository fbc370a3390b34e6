package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"codegraph/internal/graph"
	"codegraph/internal/mcp"
	"codegraph/internal/query"
	"codegraph/internal/search"
	"codegraph/internal/watcher"
)

// mcpCmd serves the graph over MCP on stdio.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the graph over the Model Context Protocol",
	Long: `Mcp loads the persisted graph and serves it on stdio with two tools:
graph_query (the query language) and graph_search (full-text node search).
Intended to be launched by an MCP client. With --watch, the server also
watches the record directory and updates the served graph, the search index
and the source-context cache in place as records change.`,
	RunE: runMCP,
}

var mcpWatch bool

func init() {
	mcpCmd.Flags().BoolVar(&mcpWatch, "watch", false,
		"watch extraction records and update the served graph")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadCfg()
	if err != nil {
		return err
	}

	store, graphStore, err := openGraph(cfg)
	if err != nil {
		return err
	}
	defer graphStore.Close()

	var extractor *graph.ContextExtractor
	opts := []query.ExecutorOption{}
	if cfg.Source.Root != "" {
		extractor, err = graph.NewContextExtractor(resolvePath(cfg.Source.Root))
		if err != nil {
			return err
		}
		defer extractor.Close()
		opts = append(opts, query.WithContextExtractor(extractor))
	}
	executor := query.NewExecutor(opts...)

	searcher, err := search.NewNodeSearcher()
	if err != nil {
		return err
	}
	if err := searcher.IndexSnapshot(cmd.Context(), store.Snapshot()); err != nil {
		searcher.Close()
		return err
	}

	server := mcp.NewMCPServer(store, executor, searcher)
	defer server.Close()

	if mcpWatch {
		dir := resolvePath(cfg.Records.Dir)
		discovery, err := newDiscovery(cfg, dir)
		if err != nil {
			return err
		}

		builder := graph.NewBuilder(store)
		syncer := newRecordSync(builder, func(source string, removed bool) {
			if err := searcher.UpdateFile(cmd.Context(), source, store.Snapshot()); err != nil {
				log.Printf("failed to reindex %s: %v", source, err)
			}
			if extractor != nil {
				extractor.Invalidate(source)
			}
		})
		if paths, err := discovery.Discover(); err == nil {
			syncer.seed(paths)
		}

		recordWatcher, err := watcher.NewRecordWatcher(dir, discovery)
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer recordWatcher.Stop()
		if err := recordWatcher.Start(cmd.Context(), syncer.onUpdate); err != nil {
			return err
		}
		log.Printf("Watching %s for record changes...", dir)
	}

	log.Printf("Serving graph: %d nodes, %d edges",
		store.Snapshot().NodeCount(), store.Snapshot().EdgeCount())
	return server.Serve(cmd.Context())
}
