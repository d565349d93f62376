package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kwalczyk/rotor/feed"
	"github.com/kwalczyk/rotor/perf"
	"github.com/kwalczyk/rotor/report"
)

var performersCmd = &cobra.Command{
	Use:   "performers",
	Short: "Scan history for market performers",
	Long: `Performers ranks pairs by volume increase: per-window price
changes, normalized volatility, and the fast/slow volume trend, with
thin markets dropped.

Example:
  rotor performers -d data/h1 --min-vol 300000 -o performers.csv`,
	RunE: runPerformersCmd,
}

var (
	perfHistoryDir string
	perfWindows    string
	perfBarsPerDay int
	perfFastDays   int
	perfSlowDays   int
	perfQuantile   float64
	perfMinVol     float64
	perfWorkers    int
	perfOutPath    string
)

func init() {
	rootCmd.AddCommand(performersCmd)

	performersCmd.Flags().StringVarP(&perfHistoryDir, "history", "d", "", "directory of bar CSVs (required)")
	performersCmd.Flags().StringVar(&perfWindows, "windows", "1,2,3,7,14,31", "day windows for price changes")
	performersCmd.Flags().IntVar(&perfBarsPerDay, "bars-per-day", 24, "bars per day in the loaded timeframe")
	performersCmd.Flags().IntVar(&perfFastDays, "fast", 3, "fast volume window in days")
	performersCmd.Flags().IntVar(&perfSlowDays, "slow", 31, "slow volume window in days")
	performersCmd.Flags().Float64Var(&perfQuantile, "quantile", 0.60, "drop pairs below this volume quantile")
	performersCmd.Flags().Float64Var(&perfMinVol, "min-vol", 300_000, "minimum slow daily quote volume (0 disables)")
	performersCmd.Flags().IntVar(&perfWorkers, "workers", 0, "parallel file loads (0 = NumCPU)")
	performersCmd.Flags().StringVarP(&perfOutPath, "out", "o", "", "write the scan CSV to this path")

	performersCmd.MarkFlagRequired("history")
}

func runPerformersCmd(cmd *cobra.Command, args []string) error {
	windows, err := parseInts(perfWindows)
	if err != nil {
		return fmt.Errorf("bad --windows: %w", err)
	}

	ds, err := feed.LoadDir(perfHistoryDir, feed.Options{Workers: perfWorkers})
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	rep, err := perf.Scan(ds, perf.Options{
		Windows:      windows,
		BarsPerDay:   perfBarsPerDay,
		FastDays:     perfFastDays,
		SlowDays:     perfSlowDays,
		QuantileDrop: perfQuantile,
		MinVolume:    perfMinVol,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%d performers (scanned %d symbols)\n\n", len(rep.Rows), ds.Len())
	fmt.Printf("%-12s %12s %7s %8s %8s", "pair", "price", "natr", "vol_inc", "median")
	for _, d := range rep.Windows {
		fmt.Printf(" %7s", fmt.Sprintf("%dd", d))
	}
	fmt.Println()
	for _, r := range rep.Rows {
		fmt.Printf("%-12s %12.4f %6.2f%% %8.2f %7.2f%%",
			r.Symbol, r.Price, r.NATR, r.VolIncrease, r.Median*100)
		for _, d := range rep.Windows {
			fmt.Printf(" %6.2f%%", r.Performance[d]*100)
		}
		fmt.Println()
	}

	if perfOutPath != "" {
		f, err := os.Create(perfOutPath)
		if err != nil {
			return fmt.Errorf("create scan file: %w", err)
		}
		defer f.Close()
		if err := report.WritePerformers(f, rep); err != nil {
			return fmt.Errorf("write scan: %w", err)
		}
		fmt.Printf("\nScan saved to: %s\n", perfOutPath)
	}

	return nil
}
