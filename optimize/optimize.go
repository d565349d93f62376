// Package optimize sweeps indicator parameter grids over one shared
// dataset. Every combination gets its own venue and engine; the
// dataset itself is read-only and shared across workers.
package optimize

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kwalczyk/rotor/backtest"
	"github.com/kwalczyk/rotor/config"
	"github.com/kwalczyk/rotor/feed"
)

// Grid lists the parameter values to combine. An empty dimension
// keeps the base config's value.
type Grid struct {
	MomentumPeriods   []int
	VolatilityPeriods []int
	ChannelPeriods    []int
	ChannelMults      []float64
}

// Combos expands the grid against base into one config per
// combination. The base config is never mutated.
func (g Grid) Combos(base *config.Config) []*config.Config {
	moms := g.MomentumPeriods
	if len(moms) == 0 {
		moms = []int{base.Momentum.Period}
	}
	vols := g.VolatilityPeriods
	if len(vols) == 0 {
		vols = []int{base.Volatility.Period}
	}
	chans := g.ChannelPeriods
	if len(chans) == 0 {
		chans = []int{base.Channel.Period}
	}
	mults := g.ChannelMults
	if len(mults) == 0 {
		mults = []float64{base.Channel.Mult}
	}

	var out []*config.Config
	for _, mp := range moms {
		for _, vp := range vols {
			for _, cp := range chans {
				for _, cm := range mults {
					cfg := *base
					cfg.Momentum.Period = mp
					cfg.Volatility.Period = vp
					cfg.Channel.Period = cp
					cfg.Channel.Mult = cm
					out = append(out, &cfg)
				}
			}
		}
	}
	return out
}

// Outcome pairs one combination with its run result.
type Outcome struct {
	Config *config.Config
	Result backtest.Result
}

// Sweep runs every grid combination.
type Sweep struct {
	Base    *config.Config
	Dataset *feed.Dataset
	Grid    Grid
	// Workers bounds concurrency. Zero means NumCPU.
	Workers int
}

// Run executes the sweep and returns outcomes sorted best final value
// first. Combinations that fail to run are logged and skipped; the
// sweep only errors when nothing succeeds or the context is cancelled.
func (s *Sweep) Run(ctx context.Context) ([]Outcome, error) {
	if s.Base == nil {
		return nil, fmt.Errorf("optimize: Base config is required")
	}
	if s.Dataset == nil {
		return nil, fmt.Errorf("optimize: Dataset is required")
	}

	combos := s.Grid.Combos(s.Base)

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(combos) {
		workers = len(combos)
	}

	log.Info().
		Int("combos", len(combos)).
		Int("workers", workers).
		Msg("sweep starting")

	type job struct {
		idx int
		cfg *config.Config
	}

	jobCh := make(chan job)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var outcomes []Outcome
	indexes := make(map[string]int)
	var failed int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				if ctx.Err() != nil {
					continue
				}

				r := &backtest.Runner{
					Config:  j.cfg,
					Dataset: s.Dataset,
				}
				res, err := r.Run(ctx)
				if err != nil {
					if ctx.Err() != nil {
						continue
					}
					mu.Lock()
					failed++
					mu.Unlock()
					log.Warn().Err(err).
						Int("momentum", j.cfg.Momentum.Period).
						Int("volatility", j.cfg.Volatility.Period).
						Msg("combination failed")
					continue
				}

				mu.Lock()
				indexes[res.RunID] = j.idx
				outcomes = append(outcomes, Outcome{Config: j.cfg, Result: res})
				mu.Unlock()
			}
		}()
	}

	for i, cfg := range combos {
		jobCh <- job{idx: i, cfg: cfg}
	}
	close(jobCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("optimize: all %d combinations failed", len(combos))
	}

	// Best final value first; grid order breaks exact ties
	sort.Slice(outcomes, func(i, j int) bool {
		fi, fj := outcomes[i].Result.FinalValue, outcomes[j].Result.FinalValue
		if fi != fj {
			return fi > fj
		}
		return indexes[outcomes[i].Result.RunID] < indexes[outcomes[j].Result.RunID]
	})

	log.Info().
		Int("ok", len(outcomes)).
		Int("failed", failed).
		Float64("best", outcomes[0].Result.FinalValue).
		Msg("sweep done")

	return outcomes, nil
}
