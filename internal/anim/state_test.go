package anim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lucidia/internal/texcache"
)

// seq replays a fixed list of samples, cycling when exhausted.
type seq struct {
	vals []float64
	i    int
}

func (s *seq) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func frozen() Params {
	p := DefaultParams()
	p.ResampleProbability = 0
	return p
}

func TestNewDefaults(t *testing.T) {
	s := New(DefaultParams(), 3)

	assert.Equal(t, 0.0, s.Rotation)
	assert.Equal(t, InitialRotationSpeed, s.RotationSpeed)
	assert.Equal(t, InitialRotationAcceleration, s.RotationAcceleration)
	assert.Equal(t, texcache.Handle(3), s.Current)
	assert.Equal(t, texcache.Handle(3), s.Next)
	assert.Equal(t, Idle, s.Phase())
}

func TestPhaseOnCopies(t *testing.T) {
	snapshot := func(s *State) State { return *s }
	s := New(DefaultParams(), 0)
	s.BeginTransition(1)

	assert.Equal(t, Transitioning, snapshot(s).Phase())
	assert.Equal(t, Idle, State{}.Phase())
}

func TestSingleTickFromRest(t *testing.T) {
	s := New(frozen(), 0)
	s.Advance(nil)

	assert.InDelta(t, 0.00101, s.RotationSpeed, 1e-15)
	assert.InDelta(t, 0.00101, s.Rotation, 1e-15)
	assert.Equal(t, uint64(1), s.Frame)
}

func TestSpeedAccumulatesLinearly(t *testing.T) {
	for _, n := range []int{0, 1, 7, 250, 1000} {
		s := New(frozen(), 0)
		s.RotationAcceleration = 0.0002

		wantAngle := 0.0
		for i := 1; i <= n; i++ {
			s.Advance(nil)
			wantAngle += InitialRotationSpeed + float64(i)*0.0002
		}

		assert.InDelta(t, InitialRotationSpeed+float64(n)*0.0002, s.RotationSpeed, 1e-9, "n=%d", n)
		assert.InDelta(t, wantAngle, s.Rotation, 1e-9, "n=%d", n)
	}
}

func TestSpeedIsSumOfSampledAccelerations(t *testing.T) {
	s := New(DefaultParams(), 0)
	rng := rand.New(rand.NewSource(7))

	want := s.RotationSpeed
	for i := 0; i < 5000; i++ {
		want += s.RotationAcceleration
		s.Advance(rng)
		require.LessOrEqual(t, s.RotationAcceleration, AccelerationRange)
		require.GreaterOrEqual(t, s.RotationAcceleration, -AccelerationRange)
	}
	assert.InDelta(t, want, s.RotationSpeed, 1e-12)
}

func TestResampleUsesSymmetricRange(t *testing.T) {
	s := New(DefaultParams(), 0)

	// First draw triggers the resample, second picks the value.
	s.AdvanceMotion(&seq{vals: []float64{0.001, 0.0}})
	assert.InDelta(t, -AccelerationRange, s.RotationAcceleration, 1e-18)

	s.AdvanceMotion(&seq{vals: []float64{0.0, 1.0}})
	assert.InDelta(t, AccelerationRange, s.RotationAcceleration, 1e-18)

	before := s.RotationAcceleration
	s.AdvanceMotion(&seq{vals: []float64{0.5}})
	assert.Equal(t, before, s.RotationAcceleration)
}

func TestViewRotationIsMonotonic(t *testing.T) {
	s := New(frozen(), 0)
	prev := s.ViewRotation
	for i := 0; i < 50; i++ {
		s.Advance(nil)
		require.Greater(t, s.ViewRotation, prev)
		prev = s.ViewRotation
	}
	assert.InDelta(t, 0.05, s.ViewRotation, 1e-12)
}

func TestTransitionCompletesAtExactlyTick100(t *testing.T) {
	s := New(frozen(), 0)
	s.BeginTransition(1)
	require.Equal(t, Transitioning, s.Phase())

	completions := 0
	prev := s.FadeProgress
	for tick := 1; tick <= 150; tick++ {
		step := s.Advance(nil)
		assert.GreaterOrEqual(t, s.FadeProgress, prev)
		assert.LessOrEqual(t, s.FadeProgress, 1.0)
		prev = s.FadeProgress

		if step.Promoted {
			completions++
			assert.Equal(t, 100, tick)
			assert.Equal(t, texcache.Handle(1), s.Current)
		}
		if tick < 100 {
			require.True(t, s.Fading, "tick %d", tick)
			require.Equal(t, texcache.Handle(0), s.Current, "tick %d", tick)
		}
	}
	assert.Equal(t, 1, completions)
	assert.False(t, s.Fading)
	assert.Equal(t, 1.0, s.FadeProgress)
}

func TestRestartMidTransition(t *testing.T) {
	s := New(frozen(), 0)
	s.BeginTransition(1)
	for i := 0; i < 40; i++ {
		s.Advance(nil)
	}
	require.Greater(t, s.FadeProgress, 0.0)

	s.BeginTransition(2)
	assert.Equal(t, 0.0, s.FadeProgress)
	assert.Equal(t, texcache.Handle(0), s.Current)
	assert.Equal(t, texcache.Handle(2), s.Next)
	assert.True(t, s.Fading)

	for i := 0; i < 100; i++ {
		s.Advance(nil)
	}
	assert.Equal(t, texcache.Handle(2), s.Current)
}

func TestFadeIgnoredWhenIdle(t *testing.T) {
	s := New(frozen(), 0)
	assert.False(t, s.AdvanceFade())
	assert.Equal(t, 0.0, s.FadeProgress)
}

func TestAbortKeepsCurrent(t *testing.T) {
	s := New(frozen(), 4)
	s.BeginTransition(9)
	s.Advance(nil)
	s.AbortTransition()

	assert.Equal(t, Idle, s.Phase())
	assert.Equal(t, texcache.Handle(4), s.Current)
	assert.Equal(t, texcache.Handle(4), s.Next)
}

func TestAdvancedLeavesInputUntouched(t *testing.T) {
	s := *New(frozen(), 0)
	s.BeginTransition(1)

	next, step := Advanced(s, nil)
	assert.Equal(t, uint64(0), s.Frame)
	assert.Equal(t, 0.0, s.FadeProgress)
	assert.Equal(t, uint64(1), next.Frame)
	assert.Equal(t, uint64(1), step.Frame)
	assert.InDelta(t, FadeRate, next.FadeProgress, 1e-15)
}

func TestFramesToComplete(t *testing.T) {
	assert.Equal(t, 100, FramesToComplete(0.01))
	assert.Equal(t, 10, FramesToComplete(0.1))
	assert.Equal(t, 1, FramesToComplete(1))
	assert.Equal(t, 0, FramesToComplete(0))
}

func TestTenthRateHonoursCeiling(t *testing.T) {
	p := frozen()
	p.FadeRate = 0.1
	s := New(p, 0)
	s.BeginTransition(1)
	for i := 1; i <= 9; i++ {
		require.False(t, s.Advance(nil).Promoted, "tick %d", i)
	}
	assert.True(t, s.Advance(nil).Promoted)
}
