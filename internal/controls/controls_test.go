package controls

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleAfterTimeout(t *testing.T) {
	start := time.Unix(0, 0)
	var changes []bool
	tr := NewIdleTracker(DefaultIdleTimeout, start, func(idle bool) { changes = append(changes, idle) })

	// Polling at PollInterval, idle flips on the first poll past 3 s.
	for at := PollInterval; at <= DefaultIdleTimeout; at += PollInterval {
		require.False(t, tr.Check(start.Add(at)), "idle too early at %v", at)
	}
	assert.True(t, tr.Check(start.Add(DefaultIdleTimeout+PollInterval)))
	assert.True(t, tr.Check(start.Add(10*time.Second)))
	assert.Equal(t, []bool{true}, changes)
}

func TestActivityWakes(t *testing.T) {
	start := time.Unix(0, 0)
	var changes []bool
	tr := NewIdleTracker(time.Second, start, func(idle bool) { changes = append(changes, idle) })

	tr.Activity(start.Add(500 * time.Millisecond))
	assert.False(t, tr.Check(start.Add(1400*time.Millisecond)))
	assert.True(t, tr.Check(start.Add(1600*time.Millisecond)))

	tr.Activity(start.Add(2 * time.Second))
	assert.False(t, tr.Idle())
	tr.Activity(start.Add(2100 * time.Millisecond))
	assert.Equal(t, []bool{true, false}, changes)
}

func TestNonPositiveTimeoutUsesDefault(t *testing.T) {
	tr := NewIdleTracker(0, time.Now(), nil)
	assert.Equal(t, DefaultIdleTimeout, tr.Timeout())
}

func TestDigit(t *testing.T) {
	assert.Equal(t, Action{Kind: Select, Index: 0}, Digit(1))
	assert.Equal(t, Action{Kind: Select, Index: 8}, Digit(9))
	assert.Equal(t, Action{}, Digit(0))
	assert.Equal(t, Action{}, Digit(10))
}

type navRecorder struct {
	calls []string
	err   error
}

func (n *navRecorder) SelectImage(i int) error {
	n.calls = append(n.calls, "select")
	return n.err
}
func (n *navRecorder) NextImage() error { n.calls = append(n.calls, "next"); return n.err }
func (n *navRecorder) PrevImage() error { n.calls = append(n.calls, "prev"); return n.err }

func TestNavigate(t *testing.T) {
	nav := &navRecorder{}
	for _, a := range []Action{Digit(2), {Kind: Next}, {Kind: Prev}} {
		ok, err := Navigate(nav, a)
		assert.True(t, ok)
		assert.NoError(t, err)
	}
	assert.Equal(t, []string{"select", "next", "prev"}, nav.calls)

	for _, k := range []Kind{None, Quit, ToggleFullscreen, ToggleHUD} {
		ok, err := Navigate(nav, Action{Kind: k})
		assert.False(t, ok, k.String())
		assert.NoError(t, err)
	}
	assert.Len(t, nav.calls, 3)

	nav.err = errors.New("out of range")
	_, err := Navigate(nav, Digit(9))
	assert.EqualError(t, err, "out of range")
}
