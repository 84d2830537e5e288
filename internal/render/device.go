package render

// Stage names a step of program construction.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
	StageLink
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageLink:
		return "link"
	}
	return "unknown"
}

// Device is the slice of the graphics API the renderer needs. The OpenGL
// implementation lives in internal/gldevice; tests use a recording fake.
// All calls happen on the goroutine that owns the context.
type Device interface {
	// CompileShader returns the shader id, the info log and whether
	// compilation succeeded. On failure the shader is already deleted.
	CompileShader(stage Stage, source string) (id uint32, infoLog string, ok bool)
	// LinkProgram links the two shaders. On failure the program is already
	// deleted.
	LinkProgram(vertex, fragment uint32) (id uint32, infoLog string, ok bool)
	DeleteShader(id uint32)
	DeleteProgram(id uint32)
	AttribLocation(program uint32, name string) int32
	UniformLocation(program uint32, name string) int32

	CreateVertexArray() uint32
	DeleteVertexArray(id uint32)
	CreateBuffer(data []float32) uint32
	DeleteBuffer(id uint32)
	// BindAttribute points location at a tightly packed stream of
	// size-component float vectors in buffer, recorded in vao.
	BindAttribute(vao, buffer uint32, location int32, size int32)

	Viewport(width, height int)
	Clear()
	UseProgram(id uint32)
	Uniform1f(location int32, v float32)
	Uniform2f(location int32, x, y float32)
	Uniform1i(location int32, v int32)
	UniformMatrix2f(location int32, m [4]float32)
	BindTexture(unit uint32, texture uint32)
	DrawTriangles(vao uint32, count int32)
}

// FrameHost schedules the next invocation of a frame callback, typically on
// the next display refresh. Hosts keep at most one callback pending.
type FrameHost interface {
	RequestFrame(callback func(timestamp float64))
}

// HUD draws diagnostic output on top of a finished frame.
type HUD interface {
	Draw(stats FrameStats, width, height int)
}
