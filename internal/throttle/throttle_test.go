package throttle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DisabledRateNeverBlocks(t *testing.T) {
	l := New(0)
	for i := 0; i < 100; i++ {
		assert.NoError(t, l.Wait(context.Background()))
	}
}

func TestNew_NilLimiterIsSafe(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
}

func TestNew_EnabledRateAllowsBurst(t *testing.T) {
	l := New(10)
	assert.NoError(t, l.Wait(context.Background()))
}
