package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 400, cfg.Momentum.Period)
	assert.Equal(t, 110, cfg.Volatility.Period)
	assert.Equal(t, 2.5, cfg.Channel.Mult)
	assert.Equal(t, 25, cfg.Elite.Count)
	assert.Equal(t, 0.001, cfg.Run.Commission)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "count and fraction both set",
			mutate:  func(c *Config) { c.Elite.Fraction = 0.1 },
			wantErr: "mutually exclusive",
		},
		{
			name: "neither count nor fraction",
			mutate: func(c *Config) {
				c.Elite.Count = 0
				c.Elite.Fraction = 0
			},
			wantErr: "elite.count or elite.fraction",
		},
		{
			name: "fraction above one",
			mutate: func(c *Config) {
				c.Elite.Count = 0
				c.Elite.Fraction = 1.5
			},
			wantErr: "elite.fraction",
		},
		{
			name:    "unknown transform",
			mutate:  func(c *Config) { c.Momentum.Transform = "abs" },
			wantErr: "momentum.transform",
		},
		{
			name:    "momentum period too short for the fast window",
			mutate:  func(c *Config) { c.Momentum.Period = 3 },
			wantErr: "momentum.period",
		},
		{
			name:    "negative cash",
			mutate:  func(c *Config) { c.Run.Cash = -1 },
			wantErr: "run.cash",
		},
		{
			name:    "commission of one eats every fill",
			mutate:  func(c *Config) { c.Run.Commission = 1 },
			wantErr: "run.commission",
		},
		{
			name:    "sqlite journal without a path",
			mutate:  func(c *Config) { c.Journal.DBPath = "" },
			wantErr: "journal.db_path",
		},
		{
			name: "csv journal without files",
			mutate: func(c *Config) {
				c.Journal.Type = "csv"
			},
			wantErr: "journal.trades_file",
		},
		{
			name:    "unknown journal type",
			mutate:  func(c *Config) { c.Journal.Type = "parquet" },
			wantErr: "journal.type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveTopN(t *testing.T) {
	t.Run("fixed count", func(t *testing.T) {
		e := EliteConfig{Count: 25}
		assert.Equal(t, 25, e.ResolveTopN(200))
		assert.Equal(t, 25, e.ResolveTopN(3), "capacity, not actual size")
	})

	t.Run("fraction of the universe", func(t *testing.T) {
		e := EliteConfig{Fraction: 0.1}
		assert.Equal(t, 20, e.ResolveTopN(200))
		assert.Equal(t, 1, e.ResolveTopN(4), "never resolves below one")
	})
}

func TestMinBars(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 401, cfg.MinBars(), "momentum window dominates the defaults")

	cfg.Volatility.Period = 500
	assert.Equal(t, 502, cfg.MinBars(), "ATR needs a prior close before its first range")

	cfg.Run.MinHistory = 1000
	assert.Equal(t, 1000, cfg.MinBars(), "explicit minimum wins")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Run.Denylist = []string{"USDCUSDT", "BUSDUSDT"}
	cfg.Elite.Count = 0
	cfg.Elite.Fraction = 0.25

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "run.yaml")
		require.NoError(t, cfg.SaveToFile(path))

		got, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, got)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "run.json")
		require.NoError(t, cfg.SaveToFile(path))

		got, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, got)
	})

	t.Run("invalid file fails at load", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		bad := Default()
		bad.Elite.Fraction = 0.5 // both set now
		require.NoError(t, bad.SaveToFile(path))

		_, err := LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mutually exclusive")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(dir, "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
