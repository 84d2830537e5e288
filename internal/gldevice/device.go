// Package gldevice implements the renderer's Device and the texture cache's
// Uploader on top of an OpenGL 3.3 core context.
//
// Every method must be called from the goroutine that made the context
// current, which in practice is the locked main thread.
package gldevice

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/gl/v3.3-core/gl"

	"lucidia/internal/render"
)

// Device talks to the current GL context.
type Device struct {
	logger *log.Logger
}

var (
	_ render.Device = (*Device)(nil)
)

// New loads the GL function pointers for the current context.
func New(logger *log.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	gl.Enable(gl.MULTISAMPLE)
	gl.Disable(gl.DEPTH_TEST)

	logger.Debug("OpenGL ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)))
	return &Device{logger: logger}, nil
}

// MaxTextureSize reports the largest texture edge the driver accepts.
func (d *Device) MaxTextureSize() int {
	var v int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &v)
	return int(v)
}

// Finish blocks until queued commands have executed.
func (d *Device) Finish() {
	gl.Finish()
}

func glStage(s render.Stage) uint32 {
	if s == render.StageFragment {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

func (d *Device) CompileShader(stage render.Stage, source string) (uint32, string, bool) {
	shader := gl.CreateShader(glStage(stage))
	csources, free := gl.Strs(terminate(source))
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := readLog(logLength, func(buf *uint8) {
			gl.GetShaderInfoLog(shader, logLength, nil, buf)
		})
		gl.DeleteShader(shader)
		return 0, infoLog, false
	}
	return shader, "", true
}

func (d *Device) LinkProgram(vertex, fragment uint32) (uint32, string, bool) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertex)
	gl.AttachShader(program, fragment)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := readLog(logLength, func(buf *uint8) {
			gl.GetProgramInfoLog(program, logLength, nil, buf)
		})
		gl.DeleteProgram(program)
		return 0, infoLog, false
	}
	gl.DetachShader(program, vertex)
	gl.DetachShader(program, fragment)
	return program, "", true
}

func readLog(length int32, fill func(*uint8)) string {
	if length <= 0 {
		return "(no info log)"
	}
	buf := make([]byte, length)
	fill(&buf[0])
	return strings.TrimRight(string(buf), "\x00")
}

func terminate(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func (d *Device) DeleteShader(id uint32)  { gl.DeleteShader(id) }
func (d *Device) DeleteProgram(id uint32) { gl.DeleteProgram(id) }

func (d *Device) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(terminate(name)))
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(terminate(name)))
}

func (d *Device) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (d *Device) DeleteVertexArray(id uint32) { gl.DeleteVertexArrays(1, &id) }

func (d *Device) CreateBuffer(data []float32) uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return vbo
}

func (d *Device) DeleteBuffer(id uint32) { gl.DeleteBuffers(1, &id) }

func (d *Device) BindAttribute(vao, buffer uint32, location int32, size int32) {
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	gl.VertexAttribPointer(uint32(location), size, gl.FLOAT, false, 0, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(uint32(location))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Device) Clear() {
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) UseProgram(id uint32) { gl.UseProgram(id) }

func (d *Device) Uniform1f(location int32, v float32)    { gl.Uniform1f(location, v) }
func (d *Device) Uniform2f(location int32, x, y float32) { gl.Uniform2f(location, x, y) }
func (d *Device) Uniform1i(location int32, v int32)      { gl.Uniform1i(location, v) }

func (d *Device) UniformMatrix2f(location int32, m [4]float32) {
	gl.UniformMatrix2fv(location, 1, false, &m[0])
}

func (d *Device) BindTexture(unit uint32, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func (d *Device) DrawTriangles(vao uint32, count int32) {
	gl.BindVertexArray(vao)
	gl.DrawArrays(gl.TRIANGLES, 0, count)
	gl.BindVertexArray(0)
}

var errEmptyImage = errors.New("empty image")

// Upload creates a repeating, linearly filtered RGBA texture. Rows go up in
// the order they appear in img, so the first row lands at v = 0.
func (d *Device) Upload(img *image.RGBA) (uint32, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0, errEmptyImage
	}
	pix := packed(img)

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &tex)
		return 0, fmt.Errorf("glTexImage2D %dx%d: error 0x%x", w, h, code)
	}
	return tex, nil
}

// Delete frees a texture created by Upload.
func (d *Device) Delete(id uint32) {
	gl.DeleteTextures(1, &id)
}

// packed returns img's pixels without row padding.
func packed(img *image.RGBA) []uint8 {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	if img.Stride == rowLen && b.Min == (image.Point{}) {
		return img.Pix[:rowLen*b.Dy()]
	}
	out := make([]uint8, 0, rowLen*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[start:start+rowLen]...)
	}
	return out
}
