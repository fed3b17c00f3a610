// Command qfs indexes directories of files into a content-addressed
// SQLite store and searches them by keyword, vector similarity, or a
// fused combination of both — from the command line or as an MCP
// stdio server for AI agents. Command wiring follows the teacher's own
// main.go (cobra, persistent flags, store opened per-command), widened
// to the full subcommand surface of the original qfs-cli.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qfs-io/qfs/internal/config"
	"github.com/qfs-io/qfs/internal/diag"
	"github.com/qfs-io/qfs/internal/store"
)

var (
	databasePath string
	verbose      bool
)

func main() {
	root := &cobra.Command{
		Use:           "qfs",
		Short:         "Content-addressed file search: BM25, vector, and hybrid",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&databasePath, "database", "d", "", "database path (env QFS_DB_PATH)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newInitCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newListCmd(),
		newLsCmd(),
		newIndexCmd(),
		newEmbedCmd(),
		newSearchCmd(),
		newGetCmd(),
		newMultiGetCmd(),
		newStatusCmd(),
		newServeCmd(),
		newContextCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveDBPath applies the -d/--database flag, then QFS_DB_PATH, then
// the platform default cache path, in that priority order.
func resolveDBPath() string {
	if databasePath != "" {
		return databasePath
	}
	if env := os.Getenv("QFS_DB_PATH"); env != "" {
		return env
	}
	return config.DefaultDBPath()
}

// openStore resolves the database path and applies -v before opening,
// so Open's own diagnostics are already routed correctly.
func openStore() (*store.Store, error) {
	diag.SetVerbose(verbose)
	return store.Open(resolveDBPath())
}
