package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kwalczyk/rotor/feed"
	"github.com/kwalczyk/rotor/optimize"
	"github.com/kwalczyk/rotor/report"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Sweep indicator parameters across a grid",
	Long: `Optimize runs one backtest per grid combination over a shared
dataset and ranks the outcomes by final value. Dimensions left out
inherit the base config's value.

Lists are comma separated:
  rotor optimize -d data/h1 --momentum 300,400,500 --mult 2.0,2.5,3.0`,
	RunE: runOptimizeCmd,
}

var (
	optConfigPath string
	optHistoryDir string
	optMomentum   string
	optVolatility string
	optChannel    string
	optMult       string
	optWorkers    int
	optOutPath    string
	optTop        int
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVarP(&optConfigPath, "config", "f", "", "path to base config file")
	optimizeCmd.Flags().StringVarP(&optHistoryDir, "history", "d", "", "directory of bar CSVs (falls back to run.history_dir)")
	optimizeCmd.Flags().StringVar(&optMomentum, "momentum", "", "momentum periods, e.g. 300,400,500")
	optimizeCmd.Flags().StringVar(&optVolatility, "volatility", "", "volatility periods")
	optimizeCmd.Flags().StringVar(&optChannel, "channel", "", "channel periods")
	optimizeCmd.Flags().StringVar(&optMult, "mult", "", "channel multipliers, e.g. 2.0,2.5")
	optimizeCmd.Flags().IntVar(&optWorkers, "workers", 0, "parallel runs (0 = NumCPU)")
	optimizeCmd.Flags().StringVarP(&optOutPath, "out", "o", "", "write all outcomes CSV to this path")
	optimizeCmd.Flags().IntVar(&optTop, "top", 10, "print this many best outcomes")
}

func runOptimizeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(optConfigPath)
	if err != nil {
		return err
	}
	if optHistoryDir != "" {
		cfg.Run.HistoryDir = optHistoryDir
	}
	if cfg.Run.HistoryDir == "" {
		return fmt.Errorf("no history directory: pass -d or set run.history_dir")
	}

	var grid optimize.Grid
	if grid.MomentumPeriods, err = parseInts(optMomentum); err != nil {
		return fmt.Errorf("bad --momentum: %w", err)
	}
	if grid.VolatilityPeriods, err = parseInts(optVolatility); err != nil {
		return fmt.Errorf("bad --volatility: %w", err)
	}
	if grid.ChannelPeriods, err = parseInts(optChannel); err != nil {
		return fmt.Errorf("bad --channel: %w", err)
	}
	if grid.ChannelMults, err = parseFloats(optMult); err != nil {
		return fmt.Errorf("bad --mult: %w", err)
	}

	// Load once with enough history for the longest combination.
	minBars := cfg.MinBars()
	for _, c := range grid.Combos(cfg) {
		if mb := c.MinBars(); mb > minBars {
			minBars = mb
		}
	}

	ds, err := feed.LoadDir(cfg.Run.HistoryDir, feed.Options{
		MinBars: minBars,
		Workers: optWorkers,
	})
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	sweep := &optimize.Sweep{
		Base:    cfg,
		Dataset: ds,
		Grid:    grid,
		Workers: optWorkers,
	}
	outcomes, err := sweep.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Sweep complete: %d combinations\n\n", len(outcomes))
	fmt.Printf("%-4s %-9s %-11s %-8s %-6s %12s %9s %8s\n",
		"#", "momentum", "volatility", "channel", "mult", "final", "pnl", "dd")
	for i, o := range outcomes {
		if i >= optTop {
			break
		}
		fmt.Printf("%-4d %-9d %-11d %-8d %-6.2f %12.2f %8.2f%% %7.2f%%\n",
			i+1,
			o.Config.Momentum.Period,
			o.Config.Volatility.Period,
			o.Config.Channel.Period,
			o.Config.Channel.Mult,
			o.Result.FinalValue,
			o.Result.TotalPnlPct*100,
			o.Result.MaxDrawdown*100)
	}

	if optOutPath != "" {
		f, err := os.Create(optOutPath)
		if err != nil {
			return fmt.Errorf("create outcomes file: %w", err)
		}
		defer f.Close()
		if err := report.WriteSweep(f, outcomes); err != nil {
			return fmt.Errorf("write outcomes: %w", err)
		}
		fmt.Printf("\nAll outcomes saved to: %s\n", optOutPath)
	}

	return nil
}

func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
