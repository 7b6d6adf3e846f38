// Package forecast is the prediction engine: it turns weather forecasts and
// the system configuration into hourly production/consumption predictions,
// applies scheduled blackout adjustments, and derives the projected battery
// timeline, alerts, and operator recommendations.
package forecast

import (
	"math"
	"math/rand"
	"time"
)

// Engine generates predictions. The random source and clock are injectable so
// tests can pin the output.
type Engine struct {
	rand func() float64
	now  func() time.Time
}

// Option adjusts an Engine, used by tests.
type Option func(*Engine)

// WithRand overrides the random source used for radiation variability.
func WithRand(randFloat func() float64) Option {
	return func(e *Engine) {
		e.rand = randFloat
	}
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New returns an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		rand: rand.Float64,
		now:  time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
