package render

import (
	"errors"
	"fmt"
)

// ErrImageIndex is returned for a selection outside the image list.
var ErrImageIndex = errors.New("image index out of range")

// SelectImage cross-fades from whatever is on screen to images[index]. A
// selection during a running fade restarts it from zero towards the new
// target; the visible current image is kept. Selecting the image already
// shown still fades, onto itself.
func (r *Renderer) SelectImage(index int) error {
	if index < 0 || index >= len(r.images) {
		return fmt.Errorf("%w: %d (have %d)", ErrImageIndex, index, len(r.images))
	}
	if r.closed {
		return errors.New("render: renderer closed")
	}
	path := r.images[index]
	r.state.BeginTransition(r.cache.Request(path))
	r.target = index
	r.logger.Info("transition started", "index", index, "image", path)
	return nil
}

// NextImage selects the image after the current target, wrapping around.
func (r *Renderer) NextImage() error {
	return r.SelectImage((r.target + 1) % len(r.images))
}

// PrevImage selects the image before the current target, wrapping around.
func (r *Renderer) PrevImage() error {
	n := len(r.images)
	return r.SelectImage((r.target - 1 + n) % n)
}

// CurrentIndex is the index of the image fully on screen.
func (r *Renderer) CurrentIndex() int {
	return r.shown
}

// TargetIndex is the index being faded towards, or CurrentIndex when idle.
func (r *Renderer) TargetIndex() int {
	return r.target
}

// Images returns the configured image paths.
func (r *Renderer) Images() []string {
	return append([]string(nil), r.images...)
}
