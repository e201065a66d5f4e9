package mathx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInverseStdNormalCDF_KnownPoints(t *testing.T) {
	cases := []struct {
		p    float64
		want float64
	}{
		{0.5, 0.0},
		{0.95, 1.6449},
		{0.975, 1.9600},
		{0.99, 2.3263},
	}
	for _, tc := range cases {
		got := InverseStdNormalCDF(tc.p)
		assert.InDelta(t, tc.want, got, 1e-3, "p=%v", tc.p)
	}
}

func TestStdNormalCDF_RoundTrip(t *testing.T) {
	for _, z := range []float64{-2, -1, 0, 0.5, 1.6449, 2.5} {
		p := StdNormalCDF(z)
		back := InverseStdNormalCDF(p)
		assert.InDelta(t, z, back, 1e-3)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5, 0, 1))
	assert.Equal(t, 1.0, Clamp(5, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
}
