package hud

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"lucidia/internal/anim"
	"lucidia/internal/render"
)

const (
	// LineHeight matches basicfont.Face7x13.
	LineHeight = 13
	padding    = 2
)

// Lines formats the overlay text for one frame.
func Lines(stats render.FrameStats, m *Meter) []string {
	lines := []string{
		fmt.Sprintf("Viewport: %dx%d", stats.Width, stats.Height),
		fmt.Sprintf("FPS: %.1f", m.FPS()),
		fmt.Sprintf("Render Time: %.2f ms (avg 5s)", float64(m.AverageRender().Microseconds())/1000),
		fmt.Sprintf("Frame: %d  Image: %s", stats.Frame, filepath.Base(stats.Image)),
	}
	if stats.Phase == anim.Transitioning {
		lines = append(lines, fmt.Sprintf("Fade: %.2f", stats.FadeProgress))
	}
	return lines
}

// Rasterize draws lines in white on a transparent canvas wide enough for
// the longest one.
func Rasterize(lines []string) *image.RGBA {
	face := basicfont.Face7x13
	width := 1
	for _, l := range lines {
		if w := font.MeasureString(face, l).Ceil(); w > width {
			width = w
		}
	}
	width += 2 * padding
	height := len(lines)*LineHeight + 2*padding

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(padding, padding+(i+1)*LineHeight-face.Descent)
		d.DrawString(l)
	}
	return img
}
