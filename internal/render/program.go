package render

import (
	"fmt"
	"strings"
)

// CompileError reports a shader stage that failed to compile, or a program
// that failed to link. It is fatal: no frame can be drawn without a program.
type CompileError struct {
	Stage  Stage
	Log    string
	Source string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s shader: %s", e.Stage, strings.TrimSpace(e.Log))
}

// Attribute and uniform names shared with the embedded shaders.
const (
	attrPosition = "a_position"
	attrTexCoord = "a_texCoord"

	uniformTime      = "u_time"
	uniformRes       = "u_resolution"
	uniformView      = "u_view"
	uniformFade      = "u_fadeProgress"
	uniformImage     = "u_image"
	uniformNextImage = "u_nextImage"
	uniformPanSpeed  = "u_panSpeed"
	uniformPanAmount = "u_panAmount"
)

// Program is a linked shader program with its location table. Locations of
// -1 mean the driver optimised the input away.
type Program struct {
	ID uint32

	Position int32
	TexCoord int32

	Time       int32
	Resolution int32
	View       int32
	Fade       int32
	Image      int32
	NextImage  int32
	PanSpeed   int32
	PanAmount  int32

	released bool
}

// Compile builds a program from vertex and fragment source. Shader objects are
// deleted once linked; only the program survives.
func Compile(dev Device, vertexSource, fragmentSource string) (*Program, error) {
	vs, infoLog, ok := dev.CompileShader(StageVertex, vertexSource)
	if !ok {
		return nil, &CompileError{Stage: StageVertex, Log: infoLog, Source: vertexSource}
	}
	fs, infoLog, ok := dev.CompileShader(StageFragment, fragmentSource)
	if !ok {
		dev.DeleteShader(vs)
		return nil, &CompileError{Stage: StageFragment, Log: infoLog, Source: fragmentSource}
	}

	id, infoLog, ok := dev.LinkProgram(vs, fs)
	dev.DeleteShader(vs)
	dev.DeleteShader(fs)
	if !ok {
		return nil, &CompileError{Stage: StageLink, Log: infoLog, Source: vertexSource + "\n" + fragmentSource}
	}

	return &Program{
		ID:         id,
		Position:   dev.AttribLocation(id, attrPosition),
		TexCoord:   dev.AttribLocation(id, attrTexCoord),
		Time:       dev.UniformLocation(id, uniformTime),
		Resolution: dev.UniformLocation(id, uniformRes),
		View:       dev.UniformLocation(id, uniformView),
		Fade:       dev.UniformLocation(id, uniformFade),
		Image:      dev.UniformLocation(id, uniformImage),
		NextImage:  dev.UniformLocation(id, uniformNextImage),
		PanSpeed:   dev.UniformLocation(id, uniformPanSpeed),
		PanAmount:  dev.UniformLocation(id, uniformPanAmount),
	}, nil
}

// Release deletes the program. Later calls do nothing.
func (p *Program) Release(dev Device) {
	if p == nil || p.released {
		return
	}
	p.released = true
	dev.DeleteProgram(p.ID)
}
