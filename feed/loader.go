package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kwalczyk/rotor/market"
)

// Options tunes LoadDir.
type Options struct {
	// MinBars drops symbols with shorter history. Zero keeps all.
	MinBars int
	// Workers bounds parallel file loads. Zero means NumCPU.
	Workers int
}

// LoadDir loads every bar file directly under dir: SYMBOL.csv,
// SYMBOL.csv.xz, and the members of any .zip archive (extracted into
// dir/.extracted first). Unreadable files and short histories are
// logged and skipped.
func LoadDir(dir string, opts Options) (*Dataset, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	cacheDir := filepath.Join(dir, ".extracted")
	if err := extractArchives(dir, cacheDir); err != nil {
		return nil, err
	}

	files, err := listBarFiles(dir)
	if err != nil {
		return nil, err
	}
	if cached, err := listBarFiles(cacheDir); err == nil {
		files = append(files, cached...)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	jobCh := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	bars := make(map[string][]market.Bar)
	var dropped, failed int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobCh {
				sym := symbolFromPath(path)

				bb, stats, err := loadFile(path)
				if err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					log.Warn().Err(err).Str("file", path).Msg("bar file unreadable")
					continue
				}
				if stats.Bad > 0 || stats.Stale > 0 {
					log.Debug().
						Str("symbol", sym).
						Int("bad", stats.Bad).
						Int("stale", stats.Stale).
						Msg("rows skipped")
				}
				if len(bb) == 0 {
					mu.Lock()
					failed++
					mu.Unlock()
					log.Warn().Str("file", path).Msg("no usable rows")
					continue
				}
				if len(bb) < opts.MinBars {
					mu.Lock()
					dropped++
					mu.Unlock()
					log.Info().
						Str("symbol", sym).
						Int("bars", len(bb)).
						Int("min", opts.MinBars).
						Msg("insufficient history, symbol dropped")
					continue
				}

				mu.Lock()
				if _, dup := bars[sym]; dup {
					mu.Unlock()
					log.Warn().Str("symbol", sym).Str("file", path).Msg("duplicate symbol file ignored")
					continue
				}
				bars[sym] = bb
				mu.Unlock()
			}
		}()
	}

	for _, p := range files {
		jobCh <- p
	}
	close(jobCh)
	wg.Wait()

	if len(bars) == 0 {
		return nil, fmt.Errorf("no usable bar files in %s", dir)
	}

	log.Info().
		Int("symbols", len(bars)).
		Int("dropped", dropped).
		Int("failed", failed).
		Msg("history loaded")

	return Build(bars), nil
}

func loadFile(path string) ([]market.Bar, Stats, error) {
	rc, err := openBars(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer rc.Close()
	return ReadBars(rc)
}
