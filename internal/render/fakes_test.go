package render

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"lucidia/internal/texcache"
)

// fakeDevice records what the renderer asks of the GPU. It also serves as
// the texture uploader so texture ids can be traced into BindTexture. The
// cache only uploads from Poll and Close, so every call arrives on the test
// goroutine.
type fakeDevice struct {
	nextID uint32

	fail    map[Stage]string
	missing map[string]bool
	locs    map[string]int32

	liveShaders map[uint32]bool
	uniforms    map[int32][]float32
	attribs     map[int32]uint32
	units       map[uint32]uint32

	viewport [2]int
	program  uint32
	clears   int
	draws    int
	drawSize int32

	deletedPrograms []uint32
	deletedBuffers  []uint32
	deletedVAOs     []uint32
	deletedTextures []uint32
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		fail:        make(map[Stage]string),
		missing:     make(map[string]bool),
		locs:        make(map[string]int32),
		liveShaders: make(map[uint32]bool),
		uniforms:    make(map[int32][]float32),
		attribs:     make(map[int32]uint32),
		units:       make(map[uint32]uint32),
	}
}

func (d *fakeDevice) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *fakeDevice) CompileShader(stage Stage, source string) (uint32, string, bool) {
	if msg, ok := d.fail[stage]; ok {
		return 0, msg, false
	}
	id := d.id()
	d.liveShaders[id] = true
	return id, "", true
}

func (d *fakeDevice) LinkProgram(vertex, fragment uint32) (uint32, string, bool) {
	if msg, ok := d.fail[StageLink]; ok {
		return 0, msg, false
	}
	return d.id(), "", true
}

func (d *fakeDevice) DeleteShader(id uint32)  { delete(d.liveShaders, id) }
func (d *fakeDevice) DeleteProgram(id uint32) { d.deletedPrograms = append(d.deletedPrograms, id) }

func (d *fakeDevice) loc(name string) int32 {
	if d.missing[name] {
		return -1
	}
	l, ok := d.locs[name]
	if !ok {
		l = int32(len(d.locs))
		d.locs[name] = l
	}
	return l
}

func (d *fakeDevice) AttribLocation(program uint32, name string) int32  { return d.loc(name) }
func (d *fakeDevice) UniformLocation(program uint32, name string) int32 { return d.loc(name) }

func (d *fakeDevice) CreateVertexArray() uint32         { return d.id() }
func (d *fakeDevice) DeleteVertexArray(id uint32)       { d.deletedVAOs = append(d.deletedVAOs, id) }
func (d *fakeDevice) CreateBuffer(data []float32) uint32 { return d.id() }
func (d *fakeDevice) DeleteBuffer(id uint32)            { d.deletedBuffers = append(d.deletedBuffers, id) }

func (d *fakeDevice) BindAttribute(vao, buffer uint32, location int32, size int32) {
	d.attribs[location] = buffer
}

func (d *fakeDevice) Viewport(width, height int) { d.viewport = [2]int{width, height} }
func (d *fakeDevice) Clear()                     { d.clears++ }
func (d *fakeDevice) UseProgram(id uint32)       { d.program = id }

func (d *fakeDevice) Uniform1f(location int32, v float32) {
	d.uniforms[location] = []float32{v}
}

func (d *fakeDevice) Uniform2f(location int32, x, y float32) {
	d.uniforms[location] = []float32{x, y}
}

func (d *fakeDevice) Uniform1i(location int32, v int32) {
	d.uniforms[location] = []float32{float32(v)}
}

func (d *fakeDevice) UniformMatrix2f(location int32, m [4]float32) {
	d.uniforms[location] = m[:]
}

func (d *fakeDevice) BindTexture(unit uint32, texture uint32) { d.units[unit] = texture }

func (d *fakeDevice) DrawTriangles(vao uint32, count int32) {
	d.draws++
	d.drawSize = count
}

func (d *fakeDevice) Upload(img *image.RGBA) (uint32, error) {
	return d.id(), nil
}

func (d *fakeDevice) Delete(id uint32) {
	d.deletedTextures = append(d.deletedTextures, id)
}

// uniform returns the last value uploaded for name.
func (d *fakeDevice) uniform(name string) ([]float32, bool) {
	l, ok := d.locs[name]
	if !ok {
		return nil, false
	}
	v, ok := d.uniforms[l]
	return v, ok
}

// fakeHost holds at most one pending frame callback.
type fakeHost struct {
	pending  func(float64)
	requests int
}

func (h *fakeHost) RequestFrame(cb func(float64)) {
	h.pending = cb
	h.requests++
}

// tick delivers the pending callback, reporting whether there was one.
func (h *fakeHost) tick(ts float64) bool {
	cb := h.pending
	h.pending = nil
	if cb == nil {
		return false
	}
	cb(ts)
	return true
}

// stubLoader decodes instantly unless a path is held or set to fail.
type stubLoader struct {
	mu    sync.Mutex
	held  map[string]chan struct{}
	fails map[string]error
}

func newStubLoader() *stubLoader {
	return &stubLoader{
		held:  make(map[string]chan struct{}),
		fails: make(map[string]error),
	}
}

func (l *stubLoader) hold(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[path] = make(chan struct{})
}

func (l *stubLoader) release(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	close(l.held[path])
}

func (l *stubLoader) fail(path string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fails[path] = err
}

func (l *stubLoader) Load(ctx context.Context, path string) (*image.RGBA, error) {
	l.mu.Lock()
	gate := l.held[path]
	err := l.fails[path]
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

// steady never triggers an acceleration resample.
type steady struct{}

func (steady) Float64() float64 { return 0.5 }

var errBroken = errors.New("broken file")

type harness struct {
	dev    *fakeDevice
	host   *fakeHost
	loader *stubLoader
	cache  *texcache.Cache
	r      *Renderer
}

func newHarness(t *testing.T, images []string, setup func(*stubLoader), mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		dev:    newFakeDevice(),
		host:   &fakeHost{},
		loader: newStubLoader(),
	}
	if setup != nil {
		setup(h.loader)
	}
	logger := log.New(io.Discard)
	h.cache = texcache.New(h.loader, h.dev, texcache.WithLogger(logger), texcache.WithWorkers(4))

	opts := Options{
		Device:  h.dev,
		Cache:   h.cache,
		Host:    h.host,
		Images:  images,
		Profile: GalleryProfile(),
		Width:   800,
		Height:  600,
		Rand:    steady{},
		Logger:  logger,
	}
	for _, m := range mutate {
		m(&opts)
	}

	r, err := New(opts)
	require.NoError(t, err)
	h.r = r
	t.Cleanup(r.Close)
	return h
}

// settle waits until the decode behind handle has finished and been
// uploaded or rejected.
func (h *harness) settle(t *testing.T, handle texcache.Handle) {
	t.Helper()
	require.Eventually(t, func() bool {
		h.cache.Poll()
		_, st := h.cache.Resolve(handle)
		return st != texcache.Pending
	}, 2*time.Second, time.Millisecond)
}

// run delivers n frames spaced 1/60 s apart starting at ts.
func (h *harness) run(t *testing.T, n int, ts float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.True(t, h.host.tick(ts+float64(i)/60), "frame %d not scheduled", i)
	}
}
