// Package process provides the per-frame context a plugin renders with.
package process

import (
	"github.com/justyntemme/vfxgo/pkg/framework/buffer"
	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/render"
	"github.com/justyntemme/vfxgo/pkg/framework/shader"
	"github.com/justyntemme/vfxgo/pkg/framework/source"
	"github.com/justyntemme/vfxgo/pkg/framework/timing"
)

// Context is what a plugin sees for one frame. It is only valid during the
// Render call it was passed to.
type Context struct {
	Object *fx.Object
	Device render.Device

	// Now is the host clock for this frame.
	Now timing.Timespec
	// Step is how far the frame clock moved since the previous frame.
	Step timing.Step
	// Hit is the beat observation for this frame.
	Hit timing.Hit

	// FirstFrame is set on the first rendered frame after Init.
	FirstFrame bool
	// Started is set on the frame the host (re)started the effect.
	Started bool

	// DisplayRatioX and DisplayRatioY relate the output buffer to the display.
	// Captured on the first frame.
	DisplayRatioX float32
	DisplayRatioY float32
}

// NewContext creates a context for obj drawing on the object's device.
func NewContext(obj *fx.Object) *Context {
	return &Context{Object: obj, Device: obj.Device, Now: obj.Transport.CurTime}
}

// Param returns the current value of a parameter, 0 for unknown slots.
func (c *Context) Param(index int) int64 {
	if p := c.Object.Params.Get(index); p != nil {
		return p.Current()
	}
	return 0
}

// Normalized returns a parameter's position in its range as 0-1.
func (c *Context) Normalized(index int) float64 {
	if p := c.Object.Params.Get(index); p != nil {
		return p.Normalized()
	}
	return 0
}

// Bool returns a toggle parameter.
func (c *Context) Bool(index int) bool {
	return c.Param(index) != 0
}

// Input returns the chain input.
func (c *Context) Input() source.Entry {
	return c.Object.Sources.Primary()
}

// Source returns a source slot.
func (c *Context) Source(slot int) source.Entry {
	return c.Object.Sources.Get(slot)
}

// Shader returns a declared shader.
func (c *Context) Shader(index int) *shader.Descriptor {
	return c.Object.Shaders.Get(index)
}

// Output returns the destination buffer.
func (c *Context) Output() *buffer.Descriptor {
	return &c.Object.Output
}

// Seconds returns the host clock in seconds.
func (c *Context) Seconds() float64 {
	return c.Now.Seconds()
}

// Traveled returns the frames traveled this frame at the host's speed and direction.
func (c *Context) Traveled() float64 {
	return c.Step.Traveled
}
