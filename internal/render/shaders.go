package render

import _ "embed"

// VertexShader rotates and zooms the fullscreen quad.
//
//go:embed shaders/quad.vert
var VertexShader string

// FragmentShader pans, warps and crossfades the two bound images.
//
//go:embed shaders/distort.frag
var FragmentShader string
