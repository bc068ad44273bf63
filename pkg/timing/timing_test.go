package timing

import (
	"math"
	"testing"

	"github.com/chazu/horologe/pkg/fault"
	"github.com/chazu/horologe/pkg/gearing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendulumRoundTrip(t *testing.T) {
	l := PendulumLength(2)
	assert.InDelta(t, 0.9939, l, 1e-4)
	assert.InDelta(t, 2, PendulumPeriod(l), 1e-12)
}

func TestEscapementAndTarget(t *testing.T) {
	assert.Equal(t, 60.0, EscapementTime(2, 30))
	assert.Equal(t, 3600.0, TargetTime(1))
	assert.Equal(t, 7200.0, TargetTime(0.5))
}

func TestSecondsHand(t *testing.T) {
	assert.True(t, SecondsHandOnEscapeWheel(EscapementTime(2, 30)))
	assert.False(t, SecondsHandOnEscapeWheel(EscapementTime(1.5, 30)))

	// 45s escape wheel: a 16/12 stage brings the next wheel to 60s.
	assert.True(t, SecondsHandOnWheel(45, gearing.Stage{WheelTeeth: 16, PinionTeeth: 12}))
	assert.False(t, SecondsHandOnWheel(45, gearing.Stage{WheelTeeth: 60, PinionTeeth: 10}))
}

func TestRecalculatePendulumPeriod(t *testing.T) {
	stages := []gearing.Stage{{WheelTeeth: 75, PinionTeeth: 10}, {WheelTeeth: 64, PinionTeeth: 8}}
	p, err := RecalculatePendulumPeriod(stages, 30)
	require.NoError(t, err)
	assert.InDelta(t, 3600.0/60/30, p, 1e-12)

	_, err = RecalculatePendulumPeriod(nil, 30)
	assert.ErrorIs(t, err, fault.ErrInvalidConstraint)
}

func TestPowerRatio(t *testing.T) {
	assert.InDelta(t, 0.5, TurnsPerHour(15, 30, 1), 1e-12)
	r, err := DesiredPowerRatio(15, 30, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2, r, 1e-12)

	_, err = DesiredPowerRatio(0, 30, 1)
	assert.ErrorIs(t, err, fault.ErrInvalidConstraint)
}

func TestCordAndChain(t *testing.T) {
	assert.Equal(t, 1800.0, CordUsage(900, true))
	assert.Equal(t, 900.0, CordUsage(900, false))
	assert.InDelta(t, 1800/(math.Pi*30), CordTurns(1800, math.Pi*30), 1e-12)
	assert.InDelta(t, 81.6, ChainCircumference(6, 6.8), 1e-12)
	assert.InDelta(t, 1800/81.6, ChainTurns(1800, 6, 6.8), 1e-12)
	assert.InDelta(t, 2000/81.6, RunTime(1, 2000, 81.6), 1e-12)
}
