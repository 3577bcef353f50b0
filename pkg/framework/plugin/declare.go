package plugin

import (
	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/param"
	"github.com/justyntemme/vfxgo/pkg/framework/shader"
)

// Declarer collects an effect's declarations. The first failure sticks:
// later calls are ignored and return -1, and Err reports it.
type Declarer struct {
	obj *fx.Object
	err error
}

func newDeclarer(obj *fx.Object) *Declarer {
	return &Declarer{obj: obj}
}

// Param declares a parameter from a builder and returns its slot.
func (d *Declarer) Param(b *param.Builder) int {
	if d.err != nil {
		return -1
	}
	idx, err := d.obj.Params.Add(b.Build())
	d.err = err
	return idx
}

// Shader declares a shader descriptor and returns its slot.
func (d *Declarer) Shader(stage shader.Stage, source, vert, frag, program string) int {
	if d.err != nil {
		return -1
	}
	idx, err := d.obj.Shaders.DeclareShader(stage, source, vert, frag, program)
	d.err = err
	return idx
}

// Uniform declares a uniform on a shader.
func (d *Declarer) Uniform(shaderIndex int, kind shader.UniformKind, name string, value float32) {
	if d.err != nil {
		return
	}
	d.err = d.obj.Shaders.DeclareUniform(shaderIndex, kind, name, value)
}

// Buffer requests a private framebuffer and returns its slot.
func (d *Declarer) Buffer(width, height uint32, depth bool) int {
	if d.err != nil {
		return -1
	}
	idx, err := d.obj.Requested.Request(width, height, depth)
	d.err = err
	return idx
}

// Err returns the first declaration failure.
func (d *Declarer) Err() error { return d.err }
