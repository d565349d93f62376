package indicators

import (
	"fmt"
	"math"

	"github.com/kwalczyk/rotor/market"
)

// Transform selects how the regression correlation r is turned into the
// confidence factor that scales the raw slope.
type Transform string

const (
	// TransformR2 weights by r squared, favouring trends the regression
	// explains well.
	TransformR2 Transform = "r2"

	// TransformInvR2 weights by (1-r) squared, the inverted variant used
	// by the channel strategy family.
	TransformInvR2 Transform = "inv_r2"
)

func (t Transform) Valid() bool {
	switch t {
	case TransformR2, TransformInvR2:
		return true
	}
	return false
}

func (t Transform) confidence(r float64) float64 {
	if t == TransformInvR2 {
		return (1 - r) * (1 - r)
	}
	return r * r
}

// momentumScale lifts the tiny per-bar log slope into a readable magnitude.
const momentumScale = 10000

// Score is one instrument's momentum reading.
type Score struct {
	Momentum   float64
	Confidence float64
}

// Momentum is a streaming confidence-weighted trend scorer. It regresses
// the log closes of the full window (slow) and of the trailing half
// window (fast). Each window contributes slope * confidence * scale; the
// score is the mean of the two contributions.
type Momentum struct {
	period    int
	fast      int
	transform Transform
	closes    []float64
}

// NewMomentum creates a momentum scorer over the given period. The period
// must be at least 4 so the fast half window still has two points to
// regress.
func NewMomentum(period int, transform Transform) *Momentum {
	return &Momentum{
		period:    period,
		fast:      period / 2,
		transform: transform,
		closes:    make([]float64, 0, period),
	}
}

func (m *Momentum) Name() string {
	return fmt.Sprintf("Momentum(%d)", m.period)
}

func (m *Momentum) Warmup() int {
	return m.period
}

func (m *Momentum) Reset() {
	m.closes = m.closes[:0]
}

func (m *Momentum) Update(b market.Bar) {
	m.closes = append(m.closes, b.Close)
	if len(m.closes) > m.period {
		m.closes = m.closes[1:]
	}
}

func (m *Momentum) Ready() bool {
	return len(m.closes) >= m.period
}

// Score returns the current reading. ok is false before warmup and when a
// regression is undefined (flat window or non-positive prices); the zero
// Score carries momentum 0 and confidence 0 for those cases.
func (m *Momentum) Score() (Score, bool) {
	if !m.Ready() {
		return Score{}, false
	}

	logs := make([]float64, len(m.closes))
	for i, c := range m.closes {
		if c <= 0 {
			return Score{}, false
		}
		logs[i] = math.Log(c)
	}

	slowM, slowC, ok := m.windowScore(logs)
	if !ok {
		return Score{}, false
	}
	fastM, fastC, ok := m.windowScore(logs[len(logs)-m.fast:])
	if !ok {
		return Score{}, false
	}

	return Score{
		Momentum:   (fastM + slowM) / 2,
		Confidence: (fastC + slowC) / 2,
	}, true
}

func (m *Momentum) windowScore(logs []float64) (momentum, confidence float64, ok bool) {
	slope, r, ok := linreg(logs)
	if !ok {
		return 0, 0, false
	}
	c := m.transform.confidence(r)
	return slope * c * momentumScale, c, true
}
