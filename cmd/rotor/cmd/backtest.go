package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwalczyk/rotor/backtest"
	"github.com/kwalczyk/rotor/config"
	"github.com/kwalczyk/rotor/feed"
	"github.com/kwalczyk/rotor/journal"
	"github.com/kwalczyk/rotor/report"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay bar history through the rotation engine",
	Long: `Backtest replays a directory of bar history through the momentum
rotation cycle and reports the outcome.

Each symbol is one CSV file (plain, .xz compressed, or inside a .zip).
With no config file the built-in defaults run; flags override either.

Example:
  rotor backtest -d data/h1 -f run.yaml --org run.org`,
	RunE: runBacktestCmd,
}

var (
	btConfigPath string
	btHistoryDir string
	btCash       float64
	btTopN       int
	btWorkers    int
	btOrgPath    string
	btRankCSV    string
	btPnlCSV     string
	btPerCycle   bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	backtestCmd.Flags().StringVarP(&btHistoryDir, "history", "d", "", "directory of bar CSVs (falls back to run.history_dir)")
	backtestCmd.Flags().Float64VarP(&btCash, "cash", "c", 0, "override starting cash")
	backtestCmd.Flags().IntVarP(&btTopN, "top", "n", 0, "override elite size")
	backtestCmd.Flags().IntVar(&btWorkers, "workers", 0, "parallel file loads (0 = NumCPU)")
	backtestCmd.Flags().StringVar(&btOrgPath, "org", "", "write an org-mode run summary to this path")
	backtestCmd.Flags().StringVar(&btRankCSV, "rankings", "", "write the final ranking table CSV to this path")
	backtestCmd.Flags().StringVar(&btPnlCSV, "pnl", "", "write per-instrument pnl CSV to this path")
	backtestCmd.Flags().BoolVar(&btPerCycle, "journal-rankings", false, "journal the full ranking table every cycle")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(btConfigPath)
	if err != nil {
		return err
	}
	if btCash > 0 {
		cfg.Run.Cash = btCash
	}
	if btTopN > 0 {
		cfg.Elite = config.EliteConfig{Count: btTopN}
	}
	if btHistoryDir != "" {
		cfg.Run.HistoryDir = btHistoryDir
	}
	if cfg.Run.HistoryDir == "" {
		return fmt.Errorf("no history directory: pass -d or set run.history_dir")
	}

	ds, err := feed.LoadDir(cfg.Run.HistoryDir, feed.Options{
		MinBars: cfg.MinBars(),
		Workers: btWorkers,
	})
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	runner := &backtest.Runner{
		Config:  cfg,
		Dataset: ds,
		Journal: j,
		Options: backtest.Options{JournalRankings: btPerCycle},
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		return err
	}

	backtest.PrintResult(os.Stdout, res, cfg.Run.Cash)

	if btRankCSV != "" {
		if err := writeRankingFile(btRankCSV, runner.Rankings(res.End)); err != nil {
			return err
		}
		fmt.Printf("\nRanking table saved to: %s\n", btRankCSV)
	}
	if btPnlCSV != "" {
		f, err := os.Create(btPnlCSV)
		if err != nil {
			return fmt.Errorf("create pnl file: %w", err)
		}
		if err := report.WritePnl(f, res.PerSymbolPnl); err != nil {
			f.Close()
			return err
		}
		f.Close()
		fmt.Printf("Per-instrument pnl saved to: %s\n", btPnlCSV)
	}
	if btOrgPath != "" {
		s := report.Summary{
			Result:  res,
			Config:  cfg,
			Created: time.Now(),
			Dataset: cfg.Run.HistoryDir,
		}
		if err := s.WriteFile(btOrgPath); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		fmt.Printf("Run summary saved to: %s\n", btOrgPath)
	}

	return nil
}

// loadConfig loads the given file, or the defaults when no file is
// named.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	default:
		return journal.Nop{}, nil
	}
}

func writeRankingFile(path string, rows []journal.RankingRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create rankings file: %w", err)
	}
	defer f.Close()
	return report.WriteRanking(f, rows)
}
