package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codegraph/internal/config"
)

var (
	rootDir string
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "Codegraph - query your codebase as a graph",
	Long: `Codegraph builds a typed graph (modules, classes, functions, calls,
imports, inheritance) from extraction records and answers structural
questions about it through a purpose-built query language.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "project root (holds .codegraph/)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
}

// loadCfg loads configuration for the selected project root.
func loadCfg() (*config.Config, error) {
	return config.LoadConfigFromDir(rootDir)
}
