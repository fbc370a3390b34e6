package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"codegraph/internal/graph"
	"codegraph/internal/records"
	"codegraph/internal/storage"
	"codegraph/internal/watcher"
)

// watchCmd runs the incremental rebuild daemon.
var watchCmd = &cobra.Command{
	Use:   "watch [records-dir]",
	Short: "Watch extraction records and rebuild incrementally",
	Long: `Watch performs an initial build, then watches the record directory. A
changed record file replaces that file's nodes and edges atomically; a
removed record file deletes them, preserving inbound references as dangling
edges. Queries served from other processes read the persisted graph.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// recordSync applies debounced record-file updates to the graph through the
// builder and reports each applied source file to the caller. Record files
// map to the source paths their records describe; removals arrive as record
// paths and need translating back.
type recordSync struct {
	builder *graph.Builder
	applied func(source string, removed bool)

	mu      sync.Mutex
	sources map[string]string // record file path -> source path it describes
}

func newRecordSync(builder *graph.Builder, applied func(source string, removed bool)) *recordSync {
	return &recordSync{builder: builder, applied: applied, sources: map[string]string{}}
}

// seed primes the record-to-source map from already-discovered record files
// so a removal arriving before any change can still be translated.
func (rs *recordSync) seed(paths []string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, path := range paths {
		if record, err := records.Load(path); err == nil {
			rs.sources[path] = record.Path
		}
	}
}

func (rs *recordSync) onUpdate(update watcher.Update) {
	for _, path := range update.Changed {
		record, err := records.Load(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		if err := rs.builder.BuildFile(record); err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		rs.mu.Lock()
		rs.sources[path] = record.Path
		rs.mu.Unlock()
		rs.applied(record.Path, false)
		log.Printf("Rebuilt %s", record.Path)
	}
	for _, path := range update.Removed {
		rs.mu.Lock()
		source, known := rs.sources[path]
		delete(rs.sources, path)
		rs.mu.Unlock()
		if !known {
			continue
		}
		rs.builder.RemoveFile(source)
		rs.applied(source, true)
		log.Printf("Removed %s", source)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadCfg()
	if err != nil {
		return err
	}

	dir := resolvePath(cfg.Records.Dir)
	if len(args) == 1 {
		dir = args[0]
	}

	files, err := loadRecords(cfg, dir)
	if err != nil {
		return err
	}

	store := graph.NewStore()
	builder := graph.NewBuilder(store)
	result := builder.BuildAll(files)

	dbPath := resolvePath(cfg.Storage.Path)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	graphStore, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer graphStore.Close()
	if err := graphStore.SaveSnapshot(store.Snapshot()); err != nil {
		return fmt.Errorf("failed to persist graph: %w", err)
	}
	log.Printf("Initial build: %d nodes, %d edges from %d files", result.Nodes, result.Edges, result.Files)

	discovery, err := newDiscovery(cfg, dir)
	if err != nil {
		return err
	}

	// Any upsert or removal can rewrite other files' edges (dangling edges
	// snap to new nodes, removals dangle resolved ones), so every applied
	// change persists the whole version, not one file's rows.
	syncer := newRecordSync(builder, func(source string, removed bool) {
		if err := graphStore.SaveSnapshot(store.Snapshot()); err != nil {
			log.Printf("failed to persist %s: %v", source, err)
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

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := recordWatcher.Start(ctx, syncer.onUpdate); err != nil {
		return err
	}
	log.Printf("Watching %s for record changes...", dir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Printf("Shutting down...")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
