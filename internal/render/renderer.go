// Package render drives the distortion pipeline: it owns the shader program,
// the quad geometry, the texture cache and the animation state, and turns one
// host frame callback into at most one draw call.
package render

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"

	"lucidia/internal/anim"
	"lucidia/internal/texcache"
)

// ErrNoImages is returned when a renderer is built without any image.
var ErrNoImages = errors.New("no images configured")

// SkipReason explains why a frame issued no draw call.
type SkipReason string

const (
	SkipNone     SkipReason = ""
	SkipPending  SkipReason = "texture pending"
	SkipFailed   SkipReason = "texture unavailable"
	SkipViewport SkipReason = "empty viewport"
)

// FrameStats describes the outcome of the most recent frame.
type FrameStats struct {
	Frame        uint64
	Timestamp    float64
	Drew         bool
	Skip         SkipReason
	Phase        anim.Phase
	FadeProgress float64
	Promoted     bool
	Image        string
	Width        int
	Height       int
}

// Options configures New. Device, Cache and Host are required.
type Options struct {
	Device  Device
	Cache   *texcache.Cache
	Host    FrameHost
	Images  []string
	Profile Profile

	// Preload requests every image up front instead of on selection.
	Preload bool

	Width  int
	Height int

	Rand   anim.Sampler
	Logger *log.Logger
	HUD    HUD

	// Shader sources; the embedded ones are used when empty.
	VertexSource   string
	FragmentSource string
}

// Renderer is the explicit context behind every frame. Construction order is
// program, then geometry, then the initial texture requests; Close releases
// them in reverse.
type Renderer struct {
	dev      Device
	program  *Program
	geometry *Geometry
	cache    *texcache.Cache
	state    *anim.State
	host     FrameHost
	hud      HUD
	logger   *log.Logger
	rng      anim.Sampler

	images  []string
	profile Profile
	shown   int
	target  int

	width  int
	height int

	stats  FrameStats
	closed bool
}

// New compiles the pipeline and requests the first image. A CompileError is
// returned unwrapped so callers can report the failing stage.
func New(opts Options) (*Renderer, error) {
	if len(opts.Images) == 0 {
		return nil, ErrNoImages
	}
	if opts.Device == nil || opts.Cache == nil || opts.Host == nil {
		return nil, errors.New("render: device, cache and host are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	profile := opts.Profile
	if profile.Name == "" {
		profile = GalleryProfile()
	}
	vs, fs := opts.VertexSource, opts.FragmentSource
	if vs == "" {
		vs = VertexShader
	}
	if fs == "" {
		fs = FragmentShader
	}

	program, err := Compile(opts.Device, vs, fs)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		dev:      opts.Device,
		program:  program,
		geometry: NewGeometry(opts.Device),
		cache:    opts.Cache,
		host:     opts.Host,
		hud:      opts.HUD,
		logger:   logger,
		rng:      rng,
		images:   append([]string(nil), opts.Images...),
		profile:  profile,
		width:    opts.Width,
		height:   opts.Height,
	}

	initial := r.cache.Request(r.images[0])
	if opts.Preload {
		r.cache.Preload(r.images[1:]...)
	}
	r.state = anim.New(profile.Anim, initial)

	logger.Info("renderer ready",
		"profile", profile.Name,
		"images", len(r.images),
		"fade_frames", anim.FramesToComplete(profile.Anim.FadeRate))
	return r, nil
}

// Start schedules the first frame.
func (r *Renderer) Start() {
	r.host.RequestFrame(r.OnFrame)
}

// OnFrame renders one frame and asks the host for the next one. timestamp is
// in seconds and only feeds the distortion phase.
func (r *Renderer) OnFrame(timestamp float64) {
	if r.closed {
		return
	}
	r.stats = r.frame(timestamp)
	r.host.RequestFrame(r.OnFrame)
}

func (r *Renderer) frame(timestamp float64) FrameStats {
	r.cache.Poll()

	_, nextStatus := r.cache.Resolve(r.state.Next)
	if r.state.Fading && nextStatus == texcache.LoadFailed {
		r.logger.Warn("transition abandoned, keeping current image",
			"path", r.cache.Path(r.state.Next), "err", r.cache.Err(r.state.Next))
		r.state.AbortTransition()
		r.target = r.shown
	}

	// The fade runs on frame count alone; a texture still decoding only
	// suppresses drawing.
	promoted := r.state.Advance(r.rng).Promoted
	if promoted {
		r.shown = r.target
		r.logger.Debug("transition complete", "image", r.images[r.shown], "frame", r.state.Frame)
	}

	stats := FrameStats{
		Frame:        r.state.Frame,
		Timestamp:    timestamp,
		Phase:        r.state.Phase(),
		FadeProgress: r.state.FadeProgress,
		Promoted:     promoted,
		Image:        r.images[r.shown],
		Width:        r.width,
		Height:       r.height,
	}

	cur, curStatus := r.cache.Resolve(r.state.Current)
	next, nextStatus := r.cache.Resolve(r.state.Next)
	switch {
	case curStatus == texcache.Pending || nextStatus == texcache.Pending:
		stats.Skip = SkipPending
		return stats
	case curStatus != texcache.Ready || nextStatus != texcache.Ready:
		stats.Skip = SkipFailed
		return stats
	case r.width <= 0 || r.height <= 0:
		stats.Skip = SkipViewport
		return stats
	}

	r.draw(timestamp, cur, next)
	stats.Drew = true
	if r.hud != nil {
		r.hud.Draw(stats, r.width, r.height)
	}
	return stats
}

func (r *Renderer) draw(timestamp float64, cur, next texcache.Texture) {
	dev, p := r.dev, r.program

	dev.Viewport(r.width, r.height)
	dev.Clear()
	dev.UseProgram(p.ID)
	r.geometry.Attach(dev, p)

	// Rotation drifts the phase of the whole distortion, not just time.
	setFloat(dev, p.Time, float32(timestamp+r.state.Rotation))
	if p.Resolution >= 0 {
		dev.Uniform2f(p.Resolution, float32(r.width), float32(r.height))
	}
	if p.View >= 0 {
		view := mgl32.Rotate2D(float32(r.state.ViewRotation)).Mul(r.profile.Zoom)
		dev.UniformMatrix2f(p.View, [4]float32(view))
	}
	setFloat(dev, p.Fade, float32(r.state.FadeProgress))
	setFloat(dev, p.PanSpeed, r.profile.PanSpeed)
	setFloat(dev, p.PanAmount, r.profile.PanAmount)

	dev.BindTexture(0, cur.ID)
	if p.Image >= 0 {
		dev.Uniform1i(p.Image, 0)
	}
	dev.BindTexture(1, next.ID)
	if p.NextImage >= 0 {
		dev.Uniform1i(p.NextImage, 1)
	}

	r.geometry.Draw(dev)
}

func setFloat(dev Device, loc int32, v float32) {
	if loc >= 0 {
		dev.Uniform1f(loc, v)
	}
}

// OnResize matches the viewport to the new canvas size. The image is
// stretched; no aspect correction is applied.
func (r *Renderer) OnResize(width, height int) {
	if width == r.width && height == r.height {
		return
	}
	r.width, r.height = width, height
	r.logger.Debug("viewport resized", "width", width, "height", height)
}

// LastFrame returns the stats of the most recent OnFrame.
func (r *Renderer) LastFrame() FrameStats {
	return r.stats
}

// State returns a copy of the animation state.
func (r *Renderer) State() anim.State {
	return *r.state
}

// Program exposes the linked program, mainly for diagnostics.
func (r *Renderer) Program() *Program {
	return r.program
}

// Close releases textures, geometry and program exactly once. Frames
// delivered afterwards are ignored and not rescheduled.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.cache.Close()
	r.geometry.Release(r.dev)
	r.program.Release(r.dev)
	r.logger.Debug("renderer closed", "frames", r.state.Frame)
}

func (r *Renderer) String() string {
	return fmt.Sprintf("renderer(%s, %d images, frame %d)", r.profile.Name, len(r.images), r.state.Frame)
}
