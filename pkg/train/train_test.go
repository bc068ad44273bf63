package train

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chazu/horologe/pkg/fault"
	"github.com/chazu/horologe/pkg/gearing"
	"github.com/chazu/horologe/pkg/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourTrain() GoingOptions {
	o := DefaultGoingOptions()
	o.TargetTime = 3600
	o.EscapementTime = 60
	return o
}

func TestGoingTrainScenario(t *testing.T) {
	opts := hourTrain()
	got, err := GoingTrain(opts).Solve(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for _, c := range got {
		require.Len(t, c.Stages, 2)
		assert.Less(t, math.Abs(timing.TotalRatio(c.Stages)*opts.EscapementTime-opts.TargetTime), opts.ErrorTolerance)
		assert.InDelta(t, c.Error, math.Abs(opts.TargetTime-c.TotalTime), 1e-12)
		assert.False(t, c.IntegerRatio)
		for i, s := range c.Stages {
			assert.False(t, s.IntegerRatio(), "stage %d of %s", i, c)
		}
	}

	best := got[0]
	assert.Equal(t, []gearing.Stage{
		{WheelTeeth: 96, PinionTeeth: 10, Module: 1},
		{WheelTeeth: 75, PinionTeeth: 12, Module: 0.85},
	}, best.Stages)
	assert.InDelta(t, 0, best.Error, 1e-12)
	assert.InDelta(t, 170.25, best.WeightedCost, 1e-9)
	assert.Len(t, got, 5)
}

func TestGoingTrainSortedByErrorThenCost(t *testing.T) {
	got, err := GoingTrain(hourTrain()).Solve(context.Background())
	require.NoError(t, err)
	for i := 1; i < len(got); i++ {
		a, b := got[i-1], got[i]
		if a.Error == b.Error {
			assert.LessOrEqual(t, a.WeightedCost, b.WeightedCost)
		} else {
			assert.Less(t, a.Error, b.Error)
		}
	}
}

// Every train that meets the timing but was not returned must have failed
// the size prune or used an integer stage.
func TestGoingTrainPruneRejectsOversizedStages(t *testing.T) {
	opts := hourTrain()
	got, err := GoingTrain(opts).Solve(context.Background())
	require.NoError(t, err)

	returned := map[[4]int]bool{}
	for _, c := range got {
		s := c.Stages
		returned[[4]int{s[0].WheelTeeth, s[0].PinionTeeth, s[1].WheelTeeth, s[1].PinionTeeth}] = true
		assert.LessOrEqual(t, opts.ModuleReduction*float64(s[1].WheelTeeth), float64(s[0].WheelTeeth)*opts.SizeMargin)
	}

	rejected := 0
	all := combos(opts.Pinions, opts.Wheels)
	for _, a := range all {
		for _, b := range all {
			ratio := float64(a.wheel) / float64(a.pinion) * float64(b.wheel) / float64(b.pinion)
			if math.Abs(opts.TargetTime-ratio*opts.EscapementTime) >= opts.ErrorTolerance {
				continue
			}
			if returned[[4]int{a.wheel, a.pinion, b.wheel, b.pinion}] {
				continue
			}
			rejected++
			fits := opts.ModuleReduction*float64(b.wheel) <= float64(a.wheel)*opts.SizeMargin
			assert.True(t, !fits || a.integer() || b.integer(),
				"%d/%d %d/%d meets timing and fits but was dropped", a.wheel, a.pinion, b.wheel, b.pinion)
		}
	}
	assert.Positive(t, rejected)
}

func TestGoingTrainAllowIntegerRatio(t *testing.T) {
	opts := hourTrain()
	opts.AllowIntegerRatio = true
	got, err := GoingTrain(opts).Solve(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 14)

	integer := 0
	for _, c := range got {
		if c.IntegerRatio {
			integer++
			var plain float64
			for i, s := range c.Stages {
				plain += math.Pow(opts.ModuleReduction, float64(i)) * float64(s.WheelTeeth)
			}
			plain += stddev(c.WheelTeeth())
			assert.InDelta(t, plain+100, c.WeightedCost, 1e-9)
		}
	}
	assert.Equal(t, 9, integer)
}

func TestGoingTrainFavourSmallestOff(t *testing.T) {
	opts := hourTrain()
	opts.FavourSmallest = false
	got, err := GoingTrain(opts).Solve(context.Background())
	require.NoError(t, err)
	best := got[0]
	want := 0.3*96 + 0.3*0.85*75 + stddev([]int{96, 75})
	assert.InDelta(t, want, best.WeightedCost, 1e-9)
}

func TestGoingTrainAccept(t *testing.T) {
	opts := hourTrain()
	opts.Accept = func(c Candidate) bool { return c.Stages[0].WheelTeeth != 96 }
	got, err := GoingTrain(opts).Solve(context.Background())
	require.NoError(t, err)
	for _, c := range got {
		assert.NotEqual(t, 96, c.Stages[0].WheelTeeth)
	}
	assert.Len(t, got, 4)
}

func TestGoingTrainSecondsHand(t *testing.T) {
	opts := hourTrain()
	opts.Stages = 3
	opts.EscapementTime = timing.EscapementTime(1.5, 30)
	opts.SecondsHand = true
	opts.PenultimateWheelMinRatio = 0.5

	got, err := GoingTrain(opts).Solve(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 47)
	for _, c := range got {
		last, prev := c.Stages[2], c.Stages[1]
		assert.True(t, timing.SecondsHandOnWheel(opts.EscapementTime, last), c.String())
		assert.GreaterOrEqual(t, float64(last.WheelTeeth), float64(prev.WheelTeeth)*0.5)
		assert.Less(t, c.Error, opts.ErrorTolerance)
	}
}

func TestGoingTrainSecondsHandIgnoredOnMinuteEscapeWheel(t *testing.T) {
	with := hourTrain()
	with.SecondsHand = true
	a, err := GoingTrain(with).Solve(context.Background())
	require.NoError(t, err)
	b, err := GoingTrain(hourTrain()).Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestGoingTrainLazyEarlyExit(t *testing.T) {
	n := 0
	for c, err := range GoingTrain(hourTrain()).Candidates(context.Background()) {
		require.NoError(t, err)
		assert.Less(t, c.Error, 0.1)
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestGoingTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GoingTrain(hourTrain()).Solve(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSmallSearchesHonourCancelledContext(t *testing.T) {
	opts := hourTrain()
	opts.Stages = 1
	opts.Pinions = Range{Min: 10, Max: 11}
	opts.Wheels = Range{Min: 75, Max: 76}
	opts.TargetTime = 450
	got, err := GoingTrain(opts).Solve(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = GoingTrain(opts).Solve(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = PowerTrain(DefaultPowerOptions(2.5)).Solve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGoingTrainExhausted(t *testing.T) {
	opts := hourTrain()
	opts.Stages = 1
	_, err := GoingTrain(opts).Solve(context.Background())
	assert.ErrorIs(t, err, fault.ErrSearchExhausted)
}

func TestGoingTrainValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GoingOptions)
	}{
		{"no stages", func(o *GoingOptions) { o.Stages = 0 }},
		{"pinion min above max", func(o *GoingOptions) { o.Pinions = Range{Min: 20, Max: 10} }},
		{"wheel min zero", func(o *GoingOptions) { o.Wheels = Range{Min: 0, Max: 10} }},
		{"zero tolerance", func(o *GoingOptions) { o.ErrorTolerance = 0 }},
		{"negative escapement", func(o *GoingOptions) { o.EscapementTime = -1 }},
		{"zero target", func(o *GoingOptions) { o.TargetTime = 0 }},
		{"zero reduction", func(o *GoingOptions) { o.ModuleReduction = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := hourTrain()
			tt.mutate(&o)
			_, err := GoingTrain(o).Solve(context.Background())
			assert.ErrorIs(t, err, fault.ErrInvalidConstraint)
		})
	}
}

func TestPowerTrainOneStage(t *testing.T) {
	got, err := PowerTrain(DefaultPowerOptions(2.5)).Solve(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 27)
	assert.Equal(t, []gearing.Stage{{WheelTeeth: 25, PinionTeeth: 10, Module: 1}}, got[0].Stages)
	for i, c := range got {
		assert.Less(t, c.Error, 0.1)
		assert.False(t, c.Stages[0].IntegerRatio())
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].WeightedCost, c.WeightedCost)
		}
	}
}

func TestPowerTrainTwoStages(t *testing.T) {
	opts := DefaultPowerOptions(10)
	opts.Stages = 2
	opts.Wheels = Range{Min: 20, Max: 60}
	got, err := PowerTrain(opts).Solve(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1774)

	best := got[0]
	assert.Equal(t, 22, best.Stages[0].WheelTeeth)
	assert.Equal(t, 45, best.Stages[1].WheelTeeth)
	assert.InDelta(t, 22+1.1*45+(22-45)*0.5, best.WeightedCost, 1e-9)
	assert.InDelta(t, 1.1, best.Stages[1].Module, 1e-12)
}

func TestPowerTrainToothRatioAndEvenSizes(t *testing.T) {
	opts := DefaultPowerOptions(10)
	opts.Stages = 2
	opts.Wheels = Range{Min: 20, Max: 60}
	opts.ToothRatio = 1
	got, err := PowerTrain(opts).Solve(context.Background())
	require.NoError(t, err)
	w0, w1 := got[0].Stages[0].WheelTeeth, got[0].Stages[1].WheelTeeth
	wantCost := float64(w0) + 1.1*float64(w1) + math.Abs(1-float64(w0)/float64(w1))*100
	assert.InDelta(t, wantCost, got[0].WeightedCost, 1e-9)

	opts.ToothRatio = 0
	opts.PreferLargeSecondWheel = false
	got, err = PowerTrain(opts).Solve(context.Background())
	require.NoError(t, err)
	w0, w1 = got[0].Stages[0].WheelTeeth, got[0].Stages[1].WheelTeeth
	assert.InDelta(t, float64(w0)+1.1*float64(w1)+math.Abs(float64(w0-w1)), got[0].WeightedCost, 1e-9)
}

func TestPowerTrainInaccurate(t *testing.T) {
	opts := DefaultPowerOptions(2.5)
	opts.Inaccurate = true
	got, err := PowerTrain(opts).Solve(context.Background())
	require.NoError(t, err)
	assert.Greater(t, len(got), 27)
	for _, c := range got {
		assert.Less(t, c.Error, 1.0)
	}
}

func TestPowerTrainErrors(t *testing.T) {
	opts := DefaultPowerOptions(2.5)
	opts.Stages = 3
	_, err := PowerTrain(opts).Solve(context.Background())
	assert.ErrorIs(t, err, fault.ErrInvalidConstraint)

	opts = DefaultPowerOptions(1000)
	_, err = PowerTrain(opts).Solve(context.Background())
	assert.ErrorIs(t, err, fault.ErrSearchExhausted)

	opts = DefaultPowerOptions(0)
	_, err = PowerTrain(opts).Solve(context.Background())
	assert.ErrorIs(t, err, fault.ErrInvalidConstraint)
}

func TestStddev(t *testing.T) {
	assert.Equal(t, 0.0, stddev(nil))
	assert.InDelta(t, 2, stddev([]int{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}

func TestRange(t *testing.T) {
	assert.Equal(t, 10, Range{Min: 10, Max: 20}.Len())
	assert.Equal(t, 0, Range{Min: 20, Max: 20}.Len())
	assert.Equal(t, "[10,20)", Range{Min: 10, Max: 20}.String())
	assert.Len(t, combos(Range{Min: 10, Max: 12}, Range{Min: 50, Max: 53}), 6)
}
