package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nethalo/sqlsentinel/internal/baseline"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect and manage stored regression baselines",
}

var baselineShowCmd = &cobra.Command{
	Use:          "show <query-hash>",
	Short:        "Show the snapshot history for a query hash",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := baseline.New(expandHome(cfg.Regression.StoragePath))
		limit, _ := cmd.Flags().GetInt("limit")

		history, err := store.History(args[0], limit)
		if err != nil {
			return fmt.Errorf("reading baseline history: %w", err)
		}
		if len(history) == 0 {
			fmt.Printf("No baseline history for query hash %s\n", args[0])
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	},
}

var baselineListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List every query hash with stored baseline history",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := baseline.New(expandHome(cfg.Regression.StoragePath))
		hashes, err := store.List()
		if err != nil {
			return fmt.Errorf("listing baselines: %w", err)
		}
		if len(hashes) == 0 {
			fmt.Println("No stored baselines.")
			return nil
		}
		for _, h := range hashes {
			fmt.Println(h)
		}
		return nil
	},
}

var baselinePruneCmd = &cobra.Command{
	Use:          "prune",
	Short:        "Delete baseline snapshots older than --max-age-days",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := baseline.New(expandHome(cfg.Regression.StoragePath))
		maxAge, _ := cmd.Flags().GetInt("max-age-days")
		if err := store.Prune(maxAge); err != nil {
			return fmt.Errorf("pruning baselines: %w", err)
		}
		fmt.Printf("Pruned baseline snapshots older than %d days.\n", maxAge)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(baselineCmd)
	baselineCmd.AddCommand(baselineShowCmd)
	baselineCmd.AddCommand(baselineListCmd)
	baselineCmd.AddCommand(baselinePruneCmd)

	baselineShowCmd.Flags().Int("limit", 10, "maximum snapshots to show, newest last")
	baselinePruneCmd.Flags().Int("max-age-days", 90, "remove snapshots older than this many days")
}
