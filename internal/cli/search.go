package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"codegraph/internal/search"
)

var (
	searchLimit    int
	searchType     string
	searchLanguage string
)

// searchCmd runs a full-text search over node names and docstrings.
var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Full-text search over graph nodes",
	Long: `Search indexes the persisted graph's node names, qualified names and
docstrings and runs a query-string search over them. Field scoping
("name:run"), wildcards and fuzzy matching are supported.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 15, "maximum number of results")
	searchCmd.Flags().StringVar(&searchType, "type", "", "restrict to one node type")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "restrict to one language")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadCfg()
	if err != nil {
		return err
	}

	store, graphStore, err := openGraph(cfg)
	if err != nil {
		return err
	}
	defer graphStore.Close()

	searcher, err := search.NewNodeSearcher()
	if err != nil {
		return err
	}
	defer searcher.Close()

	ctx := cmd.Context()
	if err := searcher.IndexSnapshot(ctx, store.Snapshot()); err != nil {
		return fmt.Errorf("failed to index graph: %w", err)
	}

	hits, err := searcher.Search(ctx, args[0], &search.SearchOptions{
		Limit:    searchLimit,
		NodeType: searchType,
		Language: searchLanguage,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "no matches")
		return nil
	}
	for _, hit := range hits {
		fmt.Fprintf(out, "%-8s %-40s %s (%.2f)\n", hit.Type, hit.QualifiedName, hit.FilePath, hit.Score)
	}
	return nil
}
