package shader

// BuiltinVertex is the quad vertex shader every host provides. Programs may
// link against it by name without declaring it.
const BuiltinVertex = "vfx-quad-vert"

const quadVertex = `#version 120
varying vec2 uv;
void main() {
	uv = gl_MultiTexCoord0.xy;
	gl_Position = ftransform();
}
`

// PreloadBuiltins compiles the shaders every host provides.
func (c *Cache) PreloadBuiltins() error {
	return c.Preload(StageVertex, BuiltinVertex, quadVertex)
}
