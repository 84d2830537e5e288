// Package anim holds the time-varying parameters of the distortion effect and
// the rules that advance them one frame at a time.
//
// Nothing here touches the GPU or the clock: every step is a fixed per-frame
// increment, so a State can be driven deterministically from tests.
package anim

import (
	"fmt"

	"lucidia/internal/texcache"
)

const (
	// FadeRate is added to the fade progress on every frame of a transition.
	FadeRate = 0.01

	// ResampleProbability is the per-frame chance of picking a new rotation
	// acceleration.
	ResampleProbability = 0.01

	// AccelerationRange bounds a resampled acceleration to [-R, R].
	AccelerationRange = 0.00005

	InitialRotationSpeed        = 0.001
	InitialRotationAcceleration = 0.00001

	// fadeEpsilon absorbs float drift so that a transition always lasts
	// exactly ceil(1/FadeRate) frames.
	fadeEpsilon = 1e-9
)

// Sampler is the random source used for acceleration resampling.
// *math/rand.Rand satisfies it.
type Sampler interface {
	Float64() float64
}

// Params are the per-frame constants of a State.
type Params struct {
	FadeRate            float64
	ResampleProbability float64
	AccelerationRange   float64
	ViewRotationSpeed   float64
}

// DefaultParams returns the constants used by the gallery profile.
func DefaultParams() Params {
	return Params{
		FadeRate:            FadeRate,
		ResampleProbability: ResampleProbability,
		AccelerationRange:   AccelerationRange,
		ViewRotationSpeed:   0.001,
	}
}

// Phase is the transition sub-state.
type Phase int

const (
	Idle Phase = iota
	Transitioning
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Transitioning:
		return "transitioning"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// State is the single authoritative animation model.
type State struct {
	Rotation             float64
	RotationSpeed        float64
	RotationAcceleration float64
	ViewRotation         float64

	FadeProgress float64
	Fading       bool

	// Current and Next index the texture cache. Promotion copies Next into
	// Current; neither owns the GPU resource.
	Current texcache.Handle
	Next    texcache.Handle

	Frame  uint64
	Params Params
}

// New returns a State at rest showing initial.
func New(params Params, initial texcache.Handle) *State {
	return &State{
		RotationSpeed:        InitialRotationSpeed,
		RotationAcceleration: InitialRotationAcceleration,
		Current:              initial,
		Next:                 initial,
		Params:               params,
	}
}

// Phase reports whether a crossfade is running.
func (s State) Phase() Phase {
	if s.Fading {
		return Transitioning
	}
	return Idle
}

// BeginTransition starts a crossfade towards next. Calling it mid-transition
// restarts the fade from zero and replaces Next; Current is left alone.
func (s *State) BeginTransition(next texcache.Handle) {
	s.Next = next
	s.FadeProgress = 0
	s.Fading = true
}

// AbortTransition drops the incoming texture and keeps showing Current.
func (s *State) AbortTransition() {
	s.Next = s.Current
	s.Fading = false
}

// AdvanceMotion integrates rotation for one frame and occasionally picks a
// new acceleration.
func (s *State) AdvanceMotion(rng Sampler) {
	s.RotationSpeed += s.RotationAcceleration
	s.Rotation += s.RotationSpeed
	s.ViewRotation += s.Params.ViewRotationSpeed
	s.Frame++

	p := s.Params.ResampleProbability
	if p > 0 && rng != nil && rng.Float64() < p {
		s.RotationAcceleration = (rng.Float64()*2 - 1) * s.Params.AccelerationRange
	}
}

// AdvanceFade moves a running transition forward one frame. It reports true
// on the frame that completes it, which is also the frame Next is promoted.
func (s *State) AdvanceFade() bool {
	if !s.Fading {
		return false
	}
	s.FadeProgress += s.Params.FadeRate
	if s.FadeProgress < 1-fadeEpsilon {
		return false
	}
	s.FadeProgress = 1
	s.Fading = false
	s.Current = s.Next
	return true
}

// Step summarises what a single Advance did.
type Step struct {
	Frame    uint64
	Promoted bool
}

// Advance runs one full frame: motion first, then the fade.
func (s *State) Advance(rng Sampler) Step {
	s.AdvanceMotion(rng)
	promoted := s.AdvanceFade()
	return Step{Frame: s.Frame, Promoted: promoted}
}

// Advanced is the value form of Advance: it returns the successor of s and
// leaves s untouched.
func Advanced(s State, rng Sampler) (State, Step) {
	step := s.Advance(rng)
	return s, step
}

// FramesToComplete returns how many frames a transition at rate takes.
func FramesToComplete(rate float64) int {
	if rate <= 0 {
		return 0
	}
	n := 0
	for p := 0.0; p < 1-fadeEpsilon; p += rate {
		n++
	}
	return n
}
