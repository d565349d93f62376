package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kwalczyk/rotor/market"
)

// Stats counts what the parser tolerated in one file.
type Stats struct {
	Rows  int // bars kept
	Bad   int // malformed rows skipped
	Stale int // rows at or before the previous bar time
}

// ReadBars reads canonical bar CSV rows:
//
//	time,open,high,low,close,volume
//
// where time is RFC3339 or unix seconds. A header row is allowed.
// Malformed and out-of-order rows are skipped and counted.
func ReadBars(r io.Reader) ([]market.Bar, Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		bars     []market.Bar
		stats    Stats
		sawFirst bool
		prev     time.Time
	)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, stats, nil
		}
		if err != nil {
			return bars, stats, fmt.Errorf("read bar csv: %w", err)
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		b, ok := parseBarRow(row)
		if !ok {
			stats.Bad++
			continue
		}
		if !prev.IsZero() && !b.Time.After(prev) {
			stats.Stale++
			continue
		}

		prev = b.Time
		bars = append(bars, b)
		stats.Rows++
	}
}

func parseBarRow(row []string) (market.Bar, bool) {
	// Need at least: time,open,high,low,close
	if len(row) < 5 {
		return market.Bar{}, false
	}

	t, ok := parseBarTime(strings.TrimSpace(row[0]))
	if !ok {
		return market.Bar{}, false
	}

	vals := make([]float64, 0, 5)
	for _, s := range row[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return market.Bar{}, false
		}
		vals = append(vals, v)
		if len(vals) == 5 {
			break
		}
	}

	b := market.Bar{
		Time:  t,
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
	}
	if len(vals) > 4 {
		b.Volume = vals[4]
	}
	return b, true
}

func parseBarTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil && sec > 0 {
		return time.Unix(sec, 0).UTC(), true
	}
	return time.Time{}, false
}
