package gldevice

import (
	"errors"
	"image/color"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"lucidia/internal/hud"
	"lucidia/internal/render"
)

const overlayVertexShader = `
#version 330 core
layout(location = 0) in vec2 aPos;
layout(location = 1) in vec2 aTexCoord;
out vec2 TexCoord;
uniform mat4 projection;

void main() {
    gl_Position = projection * vec4(aPos, 0.0, 1.0);
    TexCoord = aTexCoord;
}` + "\x00"

const overlayFragmentShader = `
#version 330 core
in vec2 TexCoord;
out vec4 FragColor;
uniform sampler2D textTexture;
uniform vec3 textColor;

void main() {
    FragColor = vec4(textColor, texture(textTexture, TexCoord).a);
}` + "\x00"

// Overlay draws hud text in the top-left corner of the frame. It implements
// render.HUD.
type Overlay struct {
	program    uint32
	vao        uint32
	vbo        uint32
	texture    uint32
	projection int32
	textColor  int32
	sampler    int32

	meter  *hud.Meter
	color  [3]float32
	hidden bool
}

var _ render.HUD = (*Overlay)(nil)

// NewOverlay compiles the text program and allocates its quad and texture.
func NewOverlay(dev *Device, meter *hud.Meter) (*Overlay, error) {
	if meter == nil {
		return nil, errors.New("overlay needs a meter")
	}
	vs, infoLog, ok := dev.CompileShader(render.StageVertex, overlayVertexShader)
	if !ok {
		return nil, &render.CompileError{Stage: render.StageVertex, Log: infoLog}
	}
	fs, infoLog, ok := dev.CompileShader(render.StageFragment, overlayFragmentShader)
	if !ok {
		dev.DeleteShader(vs)
		return nil, &render.CompileError{Stage: render.StageFragment, Log: infoLog}
	}
	program, infoLog, ok := dev.LinkProgram(vs, fs)
	dev.DeleteShader(vs)
	dev.DeleteShader(fs)
	if !ok {
		return nil, &render.CompileError{Stage: render.StageLink, Log: infoLog}
	}
	o := &Overlay{
		program:    program,
		projection: dev.UniformLocation(program, "projection"),
		textColor:  dev.UniformLocation(program, "textColor"),
		sampler:    dev.UniformLocation(program, "textTexture"),
		meter:      meter,
		color:      [3]float32{1, 1, 1},
	}

	gl.GenVertexArrays(1, &o.vao)
	gl.GenBuffers(1, &o.vbo)
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 6*4*4, nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	gl.GenTextures(1, &o.texture)
	gl.BindTexture(gl.TEXTURE_2D, o.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return o, nil
}

// SetColor sets the text colour. Alpha is ignored.
func (o *Overlay) SetColor(c color.NRGBA) {
	o.color = [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

// SetHidden suppresses drawing, e.g. while the pointer is idle.
func (o *Overlay) SetHidden(hidden bool) {
	o.hidden = hidden
}

// Draw renders the stats of the frame just drawn.
func (o *Overlay) Draw(stats render.FrameStats, width, height int) {
	if o.hidden || width <= 0 || height <= 0 {
		return
	}
	img := hud.Rasterize(hud.Lines(stats, o.meter))
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, o.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	// Top-left origin, y down.
	projection := mgl32.Ortho2D(0, float32(width), float32(height), 0)

	gl.UseProgram(o.program)
	gl.UniformMatrix4fv(o.projection, 1, false, &projection[0])
	gl.Uniform3f(o.textColor, o.color[0], o.color[1], o.color[2])
	gl.Uniform1i(o.sampler, 0)

	vertices := textQuad(10, 2, float32(w), float32(h))
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))
	gl.DrawArrays(gl.TRIANGLES, 0, 6)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.Disable(gl.BLEND)
}

// textQuad lays out two triangles covering the w×h rectangle at (x, y) in
// pixel space; the bitmap's first row maps to the top edge.
func textQuad(x, y, w, h float32) []float32 {
	return []float32{
		x, y + h, 0, 1,
		x, y, 0, 0,
		x + w, y, 1, 0,
		x, y + h, 0, 1,
		x + w, y, 1, 0,
		x + w, y + h, 1, 1,
	}
}

// Release frees the overlay's GL objects.
func (o *Overlay) Release() {
	gl.DeleteTextures(1, &o.texture)
	gl.DeleteBuffers(1, &o.vbo)
	gl.DeleteVertexArrays(1, &o.vao)
	gl.DeleteProgram(o.program)
}
