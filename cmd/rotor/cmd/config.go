package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kwalczyk/rotor/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage run configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  rotor config init -o run.yaml
  rotor config validate --file run.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "run.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  rotor backtest -f %s -d <history-dir>\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Cash: $%.2f (commission %.3f%%)\n", cfg.Run.Cash, cfg.Run.Commission*100)
	fmt.Printf("  Momentum: period %d, transform %s\n", cfg.Momentum.Period, cfg.Momentum.Transform)
	fmt.Printf("  Channel: %d x %.2f (volatility %d)\n", cfg.Channel.Period, cfg.Channel.Mult, cfg.Volatility.Period)
	if cfg.Elite.Count > 0 {
		fmt.Printf("  Elite: %d pairs\n", cfg.Elite.Count)
	} else {
		fmt.Printf("  Elite: %.0f%% of universe\n", cfg.Elite.Fraction*100)
	}
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
	return nil
}
