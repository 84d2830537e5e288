// Package texcache loads images in the background and turns them into GPU
// textures on the render thread.
//
// Requests return a Handle immediately. Decoding runs concurrently; the
// finished pixels are uploaded the next time Poll is called, which must happen
// on the goroutine that owns the GPU context. Handles are stable indices and
// stay valid for the lifetime of the cache.
package texcache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
)

// ErrClosed is recorded for requests made after Close.
var ErrClosed = errors.New("texture cache closed")

// ErrUnknownHandle is returned by Err for handles the cache never issued.
var ErrUnknownHandle = errors.New("unknown texture handle")

// Handle identifies a cache entry. It is an index into the cache's table.
type Handle uint32

// Status describes how far a request has progressed.
type Status int

const (
	Pending Status = iota
	Ready
	LoadFailed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case LoadFailed:
		return "load-failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Texture is an uploaded GPU texture.
type Texture struct {
	ID     uint32
	Width  int
	Height int
}

// Uploader moves decoded pixels to the GPU. Both methods are only called
// from Poll and Close.
type Uploader interface {
	Upload(img *image.RGBA) (uint32, error)
	Delete(id uint32)
}

type entry struct {
	path   string
	status Status
	tex    Texture
	err    error
	gen    uint64
}

type result struct {
	handle Handle
	gen    uint64
	img    *image.RGBA
	err    error
}

// Cache is the texture table. Request, Poll, Resolve and Close must be called
// from the render goroutine; only the decode workers run elsewhere.
type Cache struct {
	loader   Loader
	uploader Uploader
	logger   *log.Logger
	sem      *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	entries []*entry
	byPath  map[string]Handle
	closed  bool

	mu       sync.Mutex
	finished []result
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithWorkers bounds the number of images decoded at the same time.
func WithWorkers(n int) Option {
	return func(c *Cache) {
		if n < 1 {
			n = 1
		}
		c.sem = semaphore.NewWeighted(int64(n))
	}
}

// New creates a cache that decodes with loader and uploads with uploader.
func New(loader Loader, uploader Uploader, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		loader:   loader,
		uploader: uploader,
		logger:   log.Default(),
		sem:      semaphore.NewWeighted(2),
		ctx:      ctx,
		cancel:   cancel,
		byPath:   make(map[string]Handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request returns the handle for path and starts loading it if needed.
// Requesting a path whose previous load failed starts a fresh attempt.
func (c *Cache) Request(path string) Handle {
	if h, ok := c.byPath[path]; ok {
		e := c.entries[h]
		if e.status == LoadFailed && !c.closed {
			e.status = Pending
			e.err = nil
			c.start(h, e)
		}
		return h
	}

	h := Handle(len(c.entries))
	e := &entry{path: path}
	c.entries = append(c.entries, e)
	c.byPath[path] = h
	if c.closed {
		e.status = LoadFailed
		e.err = ErrClosed
		return h
	}
	c.start(h, e)
	return h
}

// Preload requests every path and returns their handles in order.
func (c *Cache) Preload(paths ...string) []Handle {
	handles := make([]Handle, len(paths))
	for i, p := range paths {
		handles[i] = c.Request(p)
	}
	return handles
}

func (c *Cache) start(h Handle, e *entry) {
	e.gen++
	gen, path := e.gen, e.path
	c.logger.Debug("texture requested", "path", path, "handle", h)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.sem.Acquire(c.ctx, 1); err != nil {
			c.publish(result{handle: h, gen: gen, err: err})
			return
		}
		defer c.sem.Release(1)

		img, err := c.loader.Load(c.ctx, path)
		c.publish(result{handle: h, gen: gen, img: img, err: err})
	}()
}

func (c *Cache) publish(r result) {
	c.mu.Lock()
	c.finished = append(c.finished, r)
	c.mu.Unlock()
}

// Poll uploads every decode that finished since the last call and reports
// how many entries settled.
func (c *Cache) Poll() int {
	c.mu.Lock()
	done := c.finished
	c.finished = nil
	c.mu.Unlock()

	settled := 0
	for _, r := range done {
		e := c.entries[r.handle]
		if r.gen != e.gen || e.status != Pending {
			continue
		}
		settled++

		if r.err == nil && r.img == nil {
			r.err = errors.New("loader returned no image")
		}
		if r.err != nil {
			e.status = LoadFailed
			e.err = r.err
			c.logger.Warn("texture load failed", "path", e.path, "err", r.err)
			continue
		}

		id, err := c.uploader.Upload(r.img)
		if err != nil {
			e.status = LoadFailed
			e.err = fmt.Errorf("upload %s: %w", e.path, err)
			c.logger.Warn("texture upload failed", "path", e.path, "err", err)
			continue
		}
		b := r.img.Bounds()
		e.tex = Texture{ID: id, Width: b.Dx(), Height: b.Dy()}
		e.status = Ready
		c.logger.Info("texture ready", "path", e.path, "width", b.Dx(), "height", b.Dy())
	}
	return settled
}

// Resolve reports the texture behind h. The Texture is only meaningful when
// the status is Ready. Unknown handles resolve as LoadFailed.
func (c *Cache) Resolve(h Handle) (Texture, Status) {
	if int(h) >= len(c.entries) {
		return Texture{}, LoadFailed
	}
	e := c.entries[h]
	return e.tex, e.status
}

// Err returns why h failed to load, or nil.
func (c *Cache) Err(h Handle) error {
	if int(h) >= len(c.entries) {
		return ErrUnknownHandle
	}
	return c.entries[h].err
}

// Path returns the identifier h was requested with.
func (c *Cache) Path(h Handle) string {
	if int(h) >= len(c.entries) {
		return ""
	}
	return c.entries[h].path
}

// Len returns the number of entries ever requested.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Close cancels outstanding decodes, waits for the workers and deletes every
// uploaded texture. It is safe to call more than once. FileLoader stops at
// its next read once cancelled; other loaders must watch their context or
// Close waits for them.
func (c *Cache) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.finished = nil
	c.mu.Unlock()

	for _, e := range c.entries {
		if e.status == Ready {
			c.uploader.Delete(e.tex.ID)
		}
		e.status = LoadFailed
		e.err = ErrClosed
		e.tex = Texture{}
	}
}
