package cli

import (
	"github.com/spf13/cobra"

	"codegraph/internal/graph"
	"codegraph/internal/query"
)

var (
	queryJSON bool
	queryCSV  bool
)

// queryCmd runs one query against the persisted graph.
var queryCmd = &cobra.Command{
	Use:   "query <query-string>",
	Short: "Run a graph query",
	Long: `Query parses one statement in verbose or terse syntax, plans it, and
executes it against the persisted graph.

Examples:
  codegraph query 'SELECT name, complexity FROM functions WHERE complexity > 10'
  codegraph query 'SELECT n, c FROM fn WHERE c > 10 sort -c 5'
  codegraph query 'SHOW CALLERS OF handleRequest DEPTH 2'
  codegraph query 'callers handleRequest d2'
  codegraph query 'FIND PATH FROM main TO parseConfig VIA calls'
  codegraph query 'ANALYZE CYCLES'
  codegraph query 'DESCRIBE parseConfig'`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryCSV, "csv", false, "output as CSV")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadCfg()
	if err != nil {
		return err
	}

	store, graphStore, err := openGraph(cfg)
	if err != nil {
		return err
	}
	defer graphStore.Close()

	opts := []query.ExecutorOption{}
	if cfg.Source.Root != "" {
		extractor, err := graph.NewContextExtractor(resolvePath(cfg.Source.Root))
		if err != nil {
			return err
		}
		defer extractor.Close()
		opts = append(opts, query.WithContextExtractor(extractor))
	}

	executor := query.NewExecutor(opts...)
	result, err := executor.Run(args[0], store.Snapshot())
	if err != nil {
		return err
	}

	switch {
	case queryJSON:
		return renderJSON(cmd.OutOrStdout(), result)
	case queryCSV:
		return renderCSV(cmd.OutOrStdout(), result)
	default:
		return renderTable(cmd.OutOrStdout(), result)
	}
}
