// Package report renders run artifacts: an org-mode run summary plus
// CSV exports for ranking tables, sweep outcomes and performer scans.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/kwalczyk/rotor/backtest"
	"github.com/kwalczyk/rotor/config"
)

// Summary feeds the org template. Notes and NextActions are optional
// sections for hand-written observations.
type Summary struct {
	Result  backtest.Result
	Config  *config.Config
	Created time.Time
	Dataset string

	Notes       []string
	NextActions []string
}

// SymbolPnl is one per-instrument line of the report table.
type SymbolPnl struct {
	Symbol string
	Pnl    float64
}

// TopN resolves the elite capacity against the run's universe.
func (s Summary) TopN() int {
	return s.Config.Elite.ResolveTopN(s.Result.Symbols)
}

// SymbolPnls returns per-instrument cumulative pnl, best first.
func (s Summary) SymbolPnls() []SymbolPnl {
	return sortPnl(s.Result.PerSymbolPnl)
}

func sortPnl(pnl map[string]float64) []SymbolPnl {
	rows := make([]SymbolPnl, 0, len(pnl))
	for sym, v := range pnl {
		rows = append(rows, SymbolPnl{Symbol: sym, Pnl: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Pnl != rows[j].Pnl {
			return rows[i].Pnl > rows[j].Pnl
		}
		return rows[i].Symbol < rows[j].Symbol
	})
	return rows
}

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(runOrgTemplate))

// Render writes the org summary to w.
func (s Summary) Render(w io.Writer) error {
	if s.Config == nil {
		return fmt.Errorf("report: Config is required")
	}

	buf := new(bytes.Buffer)
	if err := orgTemplate.Execute(buf, s); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile renders the summary into path.
func (s Summary) WriteFile(path string) error {
	buf := new(bytes.Buffer)
	if err := s.Render(buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

const runOrgTemplate = `
* ROTATION BACKTEST: top {{.TopN}} of {{.Result.Symbols}}
:PROPERTIES:
:RUN_ID:      {{.Result.RunID}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Result.Start.Format "2006-01-02"}}
:END_DATE:    {{.Result.End.Format "2006-01-02"}}
:CYCLES:      {{.Result.Cycles}}
:START_CASH:  {{printf "%.2f" .Config.Run.Cash}}
:FINAL_VALUE: {{printf "%.2f" .Result.FinalValue}}
:RETURN_PCT:  {{printf "%.2f" (mul100 .Result.TotalPnlPct)}}
:MAX_DD_PCT:  {{printf "%.2f" (mul100 .Result.MaxDrawdown)}}
:TRADES:      {{.Result.Trades}}
:WINS:        {{.Result.Wins}}
:LOSSES:      {{.Result.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .Result.WinRate)}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Parameters
| Parameter         | Value |
|-------------------+-------|
| Momentum period   | {{.Config.Momentum.Period}} |
| Transform         | {{.Config.Momentum.Transform}} |
| Volatility period | {{.Config.Volatility.Period}} |
| Channel           | {{.Config.Channel.Period}} x {{printf "%.2f" .Config.Channel.Mult}} |
| Elite size        | {{.TopN}} |
| Commission %      | {{printf "%.3f" (mul100 .Config.Run.Commission)}} |

** Performance Summary
- Final Value:   *{{printf "%.2f" .Result.FinalValue}}*
- Return:        *{{printf "%.2f" (mul100 .Result.TotalPnlPct)}}%*
- Max Drawdown:  *{{printf "%.2f" (mul100 .Result.MaxDrawdown)}}%*
- Peak Exposure: *{{printf "%.2f" (mul100 .Result.PeakExposure)}}%*
- Win Rate:      *{{printf "%.2f" (mul100 .Result.WinRate)}}%*
{{- if .Result.OpenPositions }}
- Open at End:   *{{.Result.OpenPositions}}* (folded into final value)
{{- end }}

** Per-Instrument P/L
| Instrument | P/L % |
|------------+-------|
{{- range .SymbolPnls }}
| {{.Symbol}} | {{printf "%.2f" (mul100 .Pnl)}} |
{{- end }}

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Result.Wins}} |
| Losses  | {{.Result.Losses}} |
| Total   | {{.Result.Trades}} |

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}

{{- if .NextActions }}

** Next Actions
{{- range .NextActions }}
- [ ] {{.}}
{{- end }}
{{- end }}
`
