package render

// QuadPositions covers clip space with two triangles.
var QuadPositions = []float32{
	-1, -1,
	1, -1,
	-1, 1,
	-1, 1,
	1, -1,
	1, 1,
}

// QuadUVs maps each entry of QuadPositions onto the unit texture square.
var QuadUVs = []float32{
	0, 0,
	1, 0,
	0, 1,
	0, 1,
	1, 0,
	1, 1,
}

// QuadVertexCount is the number of vertices drawn per frame.
const QuadVertexCount = 6

// Geometry owns the static quad buffers shared by every draw call.
type Geometry struct {
	VAO       uint32
	Positions uint32
	UVs       uint32

	released bool
}

// NewGeometry uploads the quad streams once.
func NewGeometry(dev Device) *Geometry {
	return &Geometry{
		VAO:       dev.CreateVertexArray(),
		Positions: dev.CreateBuffer(QuadPositions),
		UVs:       dev.CreateBuffer(QuadUVs),
	}
}

// Attach binds the position and UV streams to the program's attributes.
func (g *Geometry) Attach(dev Device, p *Program) {
	if p.Position >= 0 {
		dev.BindAttribute(g.VAO, g.Positions, p.Position, 2)
	}
	if p.TexCoord >= 0 {
		dev.BindAttribute(g.VAO, g.UVs, p.TexCoord, 2)
	}
}

// Draw issues the single quad draw call.
func (g *Geometry) Draw(dev Device) {
	dev.DrawTriangles(g.VAO, QuadVertexCount)
}

// Release frees the buffers. Later calls do nothing.
func (g *Geometry) Release(dev Device) {
	if g == nil || g.released {
		return
	}
	g.released = true
	dev.DeleteBuffer(g.Positions)
	dev.DeleteBuffer(g.UVs)
	dev.DeleteVertexArray(g.VAO)
}
