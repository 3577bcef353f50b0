package process

import (
	"fmt"

	"github.com/justyntemme/vfxgo/pkg/framework/buffer"
	"github.com/justyntemme/vfxgo/pkg/framework/shader"
)

// BindTarget binds a framebuffer and sets the viewport to its size.
func (c *Context) BindTarget(b *buffer.Descriptor) {
	c.Device.BindFramebuffer(b.FBO)
	c.Device.Viewport(0, 0, int32(b.Width), int32(b.Height))
}

// BindOutput binds the output buffer.
func (c *Context) BindOutput() {
	c.BindTarget(&c.Object.Output)
}

// SetUniform stores a value on a shader's uniform for the next draw.
func (c *Context) SetUniform(shaderIndex int, name string, value float32) error {
	d := c.Shader(shaderIndex)
	if d == nil {
		return fmt.Errorf("shader %d: %w", shaderIndex, shader.ErrIndex)
	}
	u, ok := d.Uniform(name)
	if !ok {
		return fmt.Errorf("shader %q has no uniform %q", d.Name(), name)
	}
	u.Value = value
	return nil
}

// UseShader activates a program and uploads all of its uniforms.
func (c *Context) UseShader(shaderIndex int) error {
	d := c.Shader(shaderIndex)
	if d == nil {
		return fmt.Errorf("shader %d: %w", shaderIndex, shader.ErrIndex)
	}
	c.Device.UseProgram(d.ID)
	for _, u := range d.Uniforms {
		if u.ID < 0 {
			continue
		}
		switch u.Kind {
		case shader.UniformInt:
			c.Device.Uniform1i(u.ID, int32(u.Value))
		default:
			c.Device.Uniform1fv(u.ID, []float32{u.Value})
		}
	}
	return nil
}

// DrawSource draws a source slot through the active program, sampling
// only the part of the texture the source occupies.
func (c *Context) DrawSource(unit int32, slot int) {
	src := c.Source(slot)
	c.Device.BindTexture(unit, src.Texture)
	tx2, ty2 := src.TX2, src.TY2
	if tx2 == 0 || ty2 == 0 {
		tx2, ty2 = 1, 1
	}
	c.Device.DrawQuad(tx2, ty2)
}

// Clear fills the bound target with a colour.
func (c *Context) Clear(r, g, b, a float32) {
	c.Device.Clear(r, g, b, a)
}
