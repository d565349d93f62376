package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kwalczyk/rotor/config"
	"github.com/kwalczyk/rotor/feed"
	"github.com/kwalczyk/rotor/indicators"
	"github.com/kwalczyk/rotor/journal"
	"github.com/kwalczyk/rotor/rotation"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank a loaded universe without trading it",
	Long: `Rank feeds the indicators a directory of bar history and prints
the momentum table a backtest would start from. No orders are placed.

Example:
  rotor rank -d data/h1 -n 25 -o ranking.csv`,
	RunE: runRankCmd,
}

var (
	rankConfigPath string
	rankHistoryDir string
	rankTopN       int
	rankWorkers    int
	rankOutPath    string
)

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringVarP(&rankConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	rankCmd.Flags().StringVarP(&rankHistoryDir, "history", "d", "", "directory of bar CSVs (falls back to run.history_dir)")
	rankCmd.Flags().IntVarP(&rankTopN, "top", "n", 0, "override elite size")
	rankCmd.Flags().IntVar(&rankWorkers, "workers", 0, "parallel file loads (0 = NumCPU)")
	rankCmd.Flags().StringVarP(&rankOutPath, "out", "o", "", "write the table CSV to this path")
}

func runRankCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(rankConfigPath)
	if err != nil {
		return err
	}
	if rankTopN > 0 {
		cfg.Elite = config.EliteConfig{Count: rankTopN}
	}
	if rankHistoryDir != "" {
		cfg.Run.HistoryDir = rankHistoryDir
	}
	if cfg.Run.HistoryDir == "" {
		return fmt.Errorf("no history directory: pass -d or set run.history_dir")
	}

	ds, err := feed.LoadDir(cfg.Run.HistoryDir, feed.Options{
		MinBars: cfg.MinBars(),
		Workers: rankWorkers,
	})
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	uni, err := ds.Universe()
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	table := rotation.Rank(rotation.Config{
		MomentumPeriod:   cfg.Momentum.Period,
		VolatilityPeriod: cfg.Volatility.Period,
		ChannelPeriod:    cfg.Channel.Period,
		ChannelMult:      cfg.Channel.Mult,
		Transform:        indicators.Transform(cfg.Momentum.Transform),
		TopN:             cfg.Elite.ResolveTopN(ds.Len()),
		Denylist:         cfg.Run.Denylist,
	}, uni)

	fmt.Printf("Ranked %d of %d symbols (elite %d)\n\n", table.Eligible(), ds.Len(), table.EliteSize())
	fmt.Printf("%-4s %-12s %12s %10s %10s\n", "#", "pair", "momentum", "conf", "inv_vol")
	for _, e := range table.Entries {
		marker := ""
		if e.Elite {
			marker = "  *"
		}
		fmt.Printf("%-4d %-12s %12.2f %10.3f %10.2f%s\n",
			e.Rank, e.Symbol, e.Momentum, e.Confidence, e.InvVol, marker)
	}

	if rankOutPath != "" {
		rows := make([]journal.RankingRow, 0, len(table.Entries))
		for _, e := range table.Entries {
			rows = append(rows, journal.RankingRow{
				Rank:       e.Rank,
				Symbol:     e.Symbol,
				Momentum:   e.Momentum,
				Confidence: e.Confidence,
				InvVol:     e.InvVol,
				Elite:      e.Elite,
			})
		}
		if err := writeRankingFile(rankOutPath, rows); err != nil {
			return err
		}
		fmt.Printf("\nRanking table saved to: %s\n", rankOutPath)
	}

	return nil
}
