// Package hud builds the debug overlay: frame-rate bookkeeping and the text
// bitmap the GL overlay uploads each frame.
package hud

import "time"

// RenderWindow is how far back AverageRender looks.
const RenderWindow = 5 * time.Second

type sample struct {
	at     time.Time
	render time.Duration
}

// Meter tracks frames per second over one-second buckets and the average
// render time over RenderWindow.
type Meter struct {
	frames   int
	fpsSince time.Time
	fps      float64

	samples []sample
}

// NewMeter returns an empty meter.
func NewMeter() *Meter {
	return &Meter{}
}

// Frame records a frame finished at now that took render to draw.
func (m *Meter) Frame(now time.Time, render time.Duration) {
	if m.fpsSince.IsZero() {
		m.fpsSince = now
	}
	m.frames++
	if elapsed := now.Sub(m.fpsSince); elapsed >= time.Second {
		m.fps = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.fpsSince = now
	}

	m.samples = append(m.samples, sample{at: now, render: render})
	cutoff := now.Add(-RenderWindow)
	drop := 0
	for drop < len(m.samples) && !m.samples[drop].at.After(cutoff) {
		drop++
	}
	if drop > 0 {
		m.samples = append(m.samples[:0], m.samples[drop:]...)
	}
}

// FPS is the rate measured over the last completed one-second bucket.
func (m *Meter) FPS() float64 {
	return m.fps
}

// AverageRender is the mean render time of frames inside RenderWindow.
func (m *Meter) AverageRender() time.Duration {
	if len(m.samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, s := range m.samples {
		sum += s.render
	}
	return sum / time.Duration(len(m.samples))
}
