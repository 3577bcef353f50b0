// Package render is the graphics capability boundary between host and plugin.
// Plugins draw through a Device using handles the host gave them; the host
// drives the rest of the pipeline through a Backend.
package render

import (
	"errors"

	"github.com/justyntemme/vfxgo/pkg/framework/shader"
)

// ErrFramebuffer is returned when a framebuffer cannot be completed.
var ErrFramebuffer = errors.New("render: framebuffer incomplete")

// Device is the subset of the pipeline a plugin may touch while rendering.
type Device interface {
	BindFramebuffer(fbo uint32)
	Viewport(x, y, width, height int32)
	Clear(r, g, b, a float32)
	BindTexture(unit int32, texture uint32)
	UseProgram(program uint32)
	Uniform1i(location int32, v int32)
	Uniform1fv(location int32, v []float32)
	// DrawQuad draws a full-viewport quad sampling [0,tx2]x[0,ty2] of the bound texture.
	DrawQuad(tx2, ty2 float32)
	GenBuffer() uint32
	DeleteBuffer(id uint32)
}

// Framebuffer is an allocated render target.
type Framebuffer struct {
	FBO     uint32
	Texture uint32
	Depth   uint32
}

// Backend is what the host drives the pipeline with.
type Backend interface {
	Device
	shader.Compiler
	UniformLocation(program uint32, name string) int32
	CreateFramebuffer(width, height uint32, depth bool) (Framebuffer, error)
	ReleaseFramebuffer(fb Framebuffer)
}
