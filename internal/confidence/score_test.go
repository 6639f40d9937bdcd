package confidence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"one", 1, false},
		{"middle", 0.42, false},
		{"negative", -0.01, true},
		{"above one", 1.01, true},
		{"nan", math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.value, s.Float(), 1e-9)
		})
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		score Score
		want  Band
	}{
		{0, BandLow},
		{0.49, BandLow},
		{0.5, BandMedium},
		{0.79, BandMedium},
		{0.8, BandHigh},
		{1, BandHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.score.Band(), "score %v", tt.score)
	}
	assert.True(t, High.IsHigh())
	assert.True(t, Medium.IsMedium())
	assert.True(t, Low.IsLow())
	assert.False(t, Low.IsAcceptable())
	assert.True(t, Medium.IsAcceptable())
}

func TestBoostAndReduceSaturate(t *testing.T) {
	boosted, err := Score(0.9).Boost(0.5)
	require.NoError(t, err)
	assert.Equal(t, Perfect, boosted)

	reduced, err := Score(0.1).Reduce(0.5)
	require.NoError(t, err)
	assert.Equal(t, Zero, reduced)

	_, err = Score(0.5).Boost(-0.1)
	require.ErrorIs(t, err, ErrNegativeDelta)
	_, err = Score(0.5).Reduce(-0.1)
	require.ErrorIs(t, err, ErrNegativeDelta)
}

func TestCombineWith(t *testing.T) {
	pairs := [][2]Score{{0.25, 1}, {0.9, 0.4}, {0, 0.8}, {1, 1}, {0.33, 0.77}}
	for _, p := range pairs {
		ab := p[0].CombineWith(p[1])
		ba := p[1].CombineWith(p[0])
		assert.InDelta(t, ab.Float(), ba.Float(), 1e-12)
		assert.LessOrEqual(t, ab.Float(), math.Max(p[0].Float(), p[1].Float())+1e-12)
		assert.GreaterOrEqual(t, ab.Float(), 0.0)
	}
	assert.InDelta(t, 0.5, Score(0.25).CombineWith(1).Float(), 1e-9)
}

func TestFromPercentage(t *testing.T) {
	s, err := FromPercentage(85)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, s.Float(), 1e-9)
	assert.InDelta(t, 85, s.Percentage(), 1e-9)

	_, err = FromPercentage(120)
	require.Error(t, err)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, Zero, Clamp(-3))
	assert.Equal(t, Perfect, Clamp(7))
	assert.Equal(t, Zero, Clamp(math.NaN()))
	assert.Equal(t, Score(0.4), Clamp(0.4))
}

func TestAggregate(t *testing.T) {
	assert.Equal(t, 0.0, Aggregate(nil))
	assert.InDelta(t, 0.8625, Aggregate([]float64{0.95, 0.8, 0.9, 0.8}), 1e-9)
	assert.InDelta(t, 0.85, Aggregate([]float64{0.9, 0.8}), 1e-9)

	for _, factors := range [][]float64{{0}, {1, 1, 1}, {0.2, 0.99, 0.5}} {
		got := Aggregate(factors)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}
