package texcache

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultMaxSize caps the longest edge of decoded images before upload.
const DefaultMaxSize = 4096

// Loader turns an image identifier into RGBA pixels. Load is called from a
// background goroutine and must not touch GPU state.
type Loader interface {
	Load(ctx context.Context, path string) (*image.RGBA, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, path string) (*image.RGBA, error)

func (f LoaderFunc) Load(ctx context.Context, path string) (*image.RGBA, error) {
	return f(ctx, path)
}

// FileLoader decodes images from the local filesystem.
type FileLoader struct {
	// MaxSize limits the longest edge; larger images are scaled down.
	// Zero means DefaultMaxSize.
	MaxSize int
}

func (l FileLoader) Load(ctx context.Context, path string) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	maxSize := l.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return decode(ctx, f, path, maxSize)
}

// decode reads an image from r, giving up as soon as ctx is cancelled
// rather than when the decoder finishes.
func decode(ctx context.Context, r io.Reader, path string, maxSize int) (*image.RGBA, error) {
	img, format, err := image.Decode(&ctxReader{ctx: ctx, r: r})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	rgba := ToRGBA(img, maxSize)
	if rgba.Bounds().Empty() {
		return nil, fmt.Errorf("%s image %s has no pixels", format, path)
	}
	return rgba, nil
}

// ctxReader fails every read once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// ToRGBA converts img to a tightly packed RGBA image whose origin is (0,0),
// scaling it down with Catmull-Rom when an edge exceeds maxSize.
func ToRGBA(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), maxSize)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func fitWithin(w, h, maxSize int) (int, int) {
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return w, h
	}
	if w >= h {
		nh := h * maxSize / w
		if nh < 1 {
			nh = 1
		}
		return maxSize, nh
	}
	nw := w * maxSize / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxSize
}
