// Package confidence provides the confidence score value type and the
// aggregation rules used to combine per-field confidences.
package confidence

import (
	"errors"
	"fmt"
	"math"
)

// Band thresholds.
const (
	MediumThreshold = 0.5
	HighThreshold   = 0.8
)

// Preset scores.
const (
	Low     Score = 0.3
	Medium  Score = 0.6
	High    Score = 0.9
	Perfect Score = 1.0
	Zero    Score = 0.0
)

var (
	// ErrOutOfRange is returned when a score falls outside [0,1].
	ErrOutOfRange = errors.New("confidence score must be between 0 and 1")
	// ErrNegativeDelta is returned by Boost and Reduce for negative deltas.
	ErrNegativeDelta = errors.New("confidence delta cannot be negative")
)

// Band classifies a score.
type Band string

// Confidence bands.
const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// Score is a confidence value in [0,1].
type Score float64

// New validates v and returns it as a Score.
func New(v float64) (Score, error) {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, fmt.Errorf("%w: got %v", ErrOutOfRange, v)
	}
	return Score(v), nil
}

// Clamp converts v to a Score, pinning it into [0,1]. NaN becomes 0.
func Clamp(v float64) Score {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return Score(v)
	}
}

// FromPercentage converts a 0-100 percentage.
func FromPercentage(pct float64) (Score, error) {
	return New(pct / 100)
}

// Float returns the raw value.
func (s Score) Float() float64 {
	return float64(s)
}

// Percentage returns the score scaled to 0-100.
func (s Score) Percentage() float64 {
	return float64(s) * 100
}

// Band returns the band the score falls into.
func (s Score) Band() Band {
	switch {
	case s >= HighThreshold:
		return BandHigh
	case s >= MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// IsHigh reports whether the score is in the high band.
func (s Score) IsHigh() bool { return s.Band() == BandHigh }

// IsMedium reports whether the score is in the medium band.
func (s Score) IsMedium() bool { return s.Band() == BandMedium }

// IsLow reports whether the score is in the low band.
func (s Score) IsLow() bool { return s.Band() == BandLow }

// IsAcceptable reports whether the score is at least medium.
func (s Score) IsAcceptable() bool { return s >= MediumThreshold }

// Boost raises the score by delta, saturating at 1.
func (s Score) Boost(delta float64) (Score, error) {
	if delta < 0 {
		return s, ErrNegativeDelta
	}
	return Clamp(float64(s) + delta), nil
}

// Reduce lowers the score by delta, saturating at 0.
func (s Score) Reduce(delta float64) (Score, error) {
	if delta < 0 {
		return s, ErrNegativeDelta
	}
	return Clamp(float64(s) - delta), nil
}

// CombineWith returns the geometric mean of two scores. It is commutative and
// never exceeds the larger input.
func (s Score) CombineWith(other Score) Score {
	return Clamp(math.Sqrt(float64(s) * float64(other)))
}

func (s Score) String() string {
	return fmt.Sprintf("%.1f%% (%s)", s.Percentage(), s.Band())
}
