package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print sqlsentinel version and supported drivers",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sqlsentinel %s (commit: %s, built: %s)\n\n", Version, CommitSHA, BuildDate)
		fmt.Fprintln(out, "Supported drivers:")
		fmt.Fprintln(out, "  • mysql  — MySQL 8.0+, Percona Server, MariaDB (EXPLAIN ANALYZE format varies by flavor)")
		fmt.Fprintln(out, "  • pgsql  — PostgreSQL 13+ (EXPLAIN (ANALYZE, FORMAT TEXT))")
		fmt.Fprintln(out, "  • sqlite — SQLite 3 (EXPLAIN QUERY PLAN; no timed ANALYZE output)")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
