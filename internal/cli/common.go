package cli

import (
	"fmt"
	"log"
	"path/filepath"

	"codegraph/internal/config"
	"codegraph/internal/graph"
	"codegraph/internal/records"
	"codegraph/internal/storage"
)

// resolvePath makes a configured path absolute relative to the project root.
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

// newDiscovery builds record discovery for a directory, honoring configured
// include/ignore patterns.
func newDiscovery(cfg *config.Config, dir string) (*records.Discovery, error) {
	return records.NewDiscovery(dir, cfg.Records.Include, cfg.Records.Ignore)
}

// loadRecords discovers and loads all record files under dir. A record that
// fails to load is logged and skipped; the rest of the set still loads.
func loadRecords(cfg *config.Config, dir string) ([]*records.ParsedFile, error) {
	discovery, err := newDiscovery(cfg, dir)
	if err != nil {
		return nil, fmt.Errorf("invalid record patterns: %w", err)
	}
	paths, err := discovery.Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to discover records under %s: %w", dir, err)
	}

	parsed := make([]*records.ParsedFile, 0, len(paths))
	for _, path := range paths {
		record, err := records.Load(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		parsed = append(parsed, record)
	}
	return parsed, nil
}

// openGraph opens the persisted graph and restores it into an in-memory
// store.
func openGraph(cfg *config.Config) (*graph.Store, *storage.GraphStore, error) {
	dbPath := resolvePath(cfg.Storage.Path)
	graphStore, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}

	nodes, edges, err := graphStore.Load()
	if err != nil {
		graphStore.Close()
		return nil, nil, err
	}

	store := graph.NewStore()
	store.Restore(nodes, edges)
	return store, graphStore, nil
}
