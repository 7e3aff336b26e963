package answer

import "github.com/kailas-cloud/faqdex/internal/domain/generation/mode"

// Route is the band a match score falls into.
type Route int

// Routes, lowest band first.
const (
	RouteFallback Route = iota
	RouteGenerate
	RouteDirect
)

// Thresholds are the ordered routing bounds, Low < BalancedFrom <= High.
// Every band includes its lower bound.
type Thresholds struct {
	High float64
	Low  float64
	// BalancedFrom splits the generation band into strict and balanced sub-modes.
	BalancedFrom float64
}

// Default routing bounds.
const (
	DefaultHigh = 0.85
	DefaultLow  = 0.70
)

// DefaultThresholds returns the default bounds with the generation band split at its midpoint.
func DefaultThresholds() Thresholds {
	return Thresholds{High: DefaultHigh, Low: DefaultLow, BalancedFrom: (DefaultHigh + DefaultLow) / 2}
}

// Classify maps a full-precision score to a route.
func (t Thresholds) Classify(score float64) Route {
	switch {
	case score >= t.High:
		return RouteDirect
	case score >= t.Low:
		return RouteGenerate
	default:
		return RouteFallback
	}
}

// Mode picks the generation sub-mode for a score in the generation band.
// It only affects sampling, never the route.
func (t Thresholds) Mode(score float64) mode.Mode {
	if score >= t.BalancedFrom {
		return mode.Balanced
	}
	return mode.Strict
}

func (r Route) String() string {
	switch r {
	case RouteDirect:
		return "direct"
	case RouteGenerate:
		return "generate"
	default:
		return "fallback"
	}
}
