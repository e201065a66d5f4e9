package seasonality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositeLine_SingleYear(t *testing.T) {
	history := map[int][]float64{2025: {10, 20, 30, 40}}
	got := CompositeLine(history, 4, 0.5)
	assert.Equal(t, []float64{10, 20, 30, 40}, got)
}

func TestCompositeLine_WeightsMostRecentYear(t *testing.T) {
	history := map[int][]float64{
		2023: {0, 0, 0, 0},
		2024: {0, 0, 0, 0},
		2025: {100, 100, 100, 100},
	}
	got := CompositeLine(history, 4, 0.5)
	assert.InDelta(t, 50.0, got[0], 1e-6)
}

func TestGenerateIndices_MeanIsOne(t *testing.T) {
	composite := []float64{80, 100, 120, 100}
	indices := GenerateIndices(composite, 0.3)

	var sum float64
	for _, v := range indices {
		sum += v
	}
	assert.InDelta(t, float64(len(indices)), sum, 1e-6)
}

func TestGenerateIndices_FlatComposite(t *testing.T) {
	indices := GenerateIndices([]float64{50, 50, 50, 50}, 0.3)
	for _, v := range indices {
		assert.InDelta(t, 1.0, v, 1e-9)
	}
}

func TestApplyAndReverse_RoundTrip(t *testing.T) {
	indices := []float64{0.8, 1.0, 1.2, 1.0}
	base := 100.0
	adjusted := Apply(base, indices, 3)
	back := Reverse(adjusted, indices, 3)
	assert.InDelta(t, base, back, 1e-9)
}

func TestApply_ZeroIndexFallsBackToBase(t *testing.T) {
	indices := []float64{0, 1.0}
	assert.Equal(t, 100.0, Apply(100.0, indices, 1))
}
