// Package config holds the immutable per-run configuration. A run is
// fully described by one file: account, indicator periods, elite
// sizing, and journaling. Files are YAML by default with a JSON
// fallback so saved runs stay diffable.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kwalczyk/rotor/indicators"
)

// Config is the complete run configuration.
type Config struct {
	Run        RunConfig        `json:"run" yaml:"run"`
	Momentum   MomentumConfig   `json:"momentum" yaml:"momentum"`
	Volatility VolatilityConfig `json:"volatility" yaml:"volatility"`
	Channel    ChannelConfig    `json:"channel" yaml:"channel"`
	Elite      EliteConfig      `json:"elite" yaml:"elite"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
}

// RunConfig contains account and data parameters.
type RunConfig struct {
	Cash       float64  `json:"cash" yaml:"cash"`
	Commission float64  `json:"commission" yaml:"commission"`
	HistoryDir string   `json:"history_dir,omitempty" yaml:"history_dir,omitempty"`
	MinHistory int      `json:"min_history,omitempty" yaml:"min_history,omitempty"`
	Denylist   []string `json:"denylist,omitempty" yaml:"denylist,omitempty"`
}

// MomentumConfig parameterizes the ranking score. The fast window is
// always half the period, so the period must be at least 4.
type MomentumConfig struct {
	Period    int    `json:"period" yaml:"period"`
	Transform string `json:"transform" yaml:"transform"`
}

// VolatilityConfig parameterizes the ATR used for inverse-volatility
// weights.
type VolatilityConfig struct {
	Period int `json:"period" yaml:"period"`
}

// ChannelConfig parameterizes the entry/exit band.
type ChannelConfig struct {
	Period int     `json:"period" yaml:"period"`
	Mult   float64 `json:"mult" yaml:"mult"`
}

// EliteConfig sizes the elite. Exactly one of Count and Fraction must
// be set: a fixed head count, or a fraction of the eligible universe.
type EliteConfig struct {
	Count    int     `json:"count,omitempty" yaml:"count,omitempty"`
	Fraction float64 `json:"fraction,omitempty" yaml:"fraction,omitempty"`
}

// ResolveTopN returns the elite capacity for a universe of the given
// size. Call only after Validate.
func (e EliteConfig) ResolveTopN(universe int) int {
	if e.Count > 0 {
		return e.Count
	}
	n := int(math.Round(e.Fraction * float64(universe)))
	if n < 1 {
		n = 1
	}
	return n
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file, YAML for .yaml/.yml and
// indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration before a run starts. Every failure
// here is fatal: no cycle runs on a half-valid config.
func (c *Config) Validate() error {
	if c.Run.Cash <= 0 {
		return fmt.Errorf("run.cash must be positive")
	}
	if c.Run.Commission < 0 || c.Run.Commission >= 1 {
		return fmt.Errorf("run.commission must be in [0, 1)")
	}
	if c.Run.MinHistory < 0 {
		return fmt.Errorf("run.min_history must not be negative")
	}
	if c.Momentum.Period < 4 {
		return fmt.Errorf("momentum.period must be at least 4")
	}
	if !indicators.Transform(c.Momentum.Transform).Valid() {
		return fmt.Errorf("momentum.transform must be %q or %q",
			indicators.TransformR2, indicators.TransformInvR2)
	}
	if c.Volatility.Period < 1 {
		return fmt.Errorf("volatility.period must be positive")
	}
	if c.Channel.Period < 1 {
		return fmt.Errorf("channel.period must be positive")
	}
	if c.Channel.Mult <= 0 {
		return fmt.Errorf("channel.mult must be positive")
	}
	if c.Elite.Count > 0 && c.Elite.Fraction > 0 {
		return fmt.Errorf("elite.count and elite.fraction are mutually exclusive")
	}
	if c.Elite.Count <= 0 && c.Elite.Fraction <= 0 {
		return fmt.Errorf("one of elite.count or elite.fraction is required")
	}
	if c.Elite.Fraction > 1 {
		return fmt.Errorf("elite.fraction must be in (0, 1]")
	}
	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal.trades_file and journal.equity_file required for csv journal")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	return nil
}

// MinBars returns the history a symbol needs before it can be ranked.
// An explicit run.min_history wins; otherwise it derives from the
// longest indicator warmup.
func (c *Config) MinBars() int {
	if c.Run.MinHistory > 0 {
		return c.Run.MinHistory
	}
	min := c.Momentum.Period
	if v := c.Volatility.Period + 1; v > min {
		min = v
	}
	if c.Channel.Period > min {
		min = c.Channel.Period
	}
	return min + 1
}

// Default returns a working hourly configuration: slow momentum over
// roughly 17 days of bars, a tight entry channel, and 25 slots.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Cash:       10000,
			Commission: 0.001,
		},
		Momentum: MomentumConfig{
			Period:    400,
			Transform: string(indicators.TransformR2),
		},
		Volatility: VolatilityConfig{
			Period: 110,
		},
		Channel: ChannelConfig{
			Period: 5,
			Mult:   2.5,
		},
		Elite: EliteConfig{
			Count: 25,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./rotor.db",
		},
	}
}
