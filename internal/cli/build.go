package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codegraph/internal/graph"
	"codegraph/internal/storage"
)

// buildCmd builds the graph from extraction records and persists it.
var buildCmd = &cobra.Command{
	Use:   "build [records-dir]",
	Short: "Build the code graph from extraction records",
	Long: `Build discovers parsed-file records (*.graph.json by default) under the
given directory, converts them into graph nodes and edges, and persists the
resulting graph version. Omitting the directory uses records.dir from the
configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
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
	if len(files) == 0 {
		return fmt.Errorf("no record files found under %s", dir)
	}

	store := graph.NewStore()
	bar := newBuildBar(len(files))
	builder := graph.NewBuilder(store, graph.WithProgress(func(done, total int) {
		if bar != nil {
			bar.Add(1)
		}
	}))

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

	if !quiet {
		fmt.Printf("✓ Graph built: %d nodes, %d edges from %d files\n",
			result.Nodes, result.Edges, result.Files)
		if result.Failed > 0 {
			fmt.Printf("  %d file(s) skipped due to validation errors\n", result.Failed)
		}
	}
	return nil
}
