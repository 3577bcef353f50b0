package host

import (
	"fmt"

	"github.com/justyntemme/vfxgo/pkg/framework/buffer"
	"github.com/justyntemme/vfxgo/pkg/framework/shader"
)

func (i *Instance) setupObject() {
	r := i.host.cfg.Render
	i.obj.Device = i.host.backend
	i.obj.Transport.DisplayWidth = r.DisplayWidth
	i.obj.Transport.DisplayHeight = r.DisplayHeight
}

func (i *Instance) env() buffer.Env {
	r := i.host.cfg.Render
	return buffer.Env{Width: r.BufferWidth, Height: r.BufferHeight}
}

// allocate creates the framebuffer behind d and reports the outcome in d.Status.
func (i *Instance) allocate(d *buffer.Descriptor) error {
	d.Resolve(i.env())
	fb, err := i.host.backend.CreateFramebuffer(d.Width, d.Height, d.WantsDepth())
	if err != nil {
		d.Status = buffer.Incomplete
		return err
	}
	d.FBO, d.Texture, d.Depth = fb.FBO, fb.Texture, fb.Depth
	d.Status = buffer.Complete
	i.fbos = append(i.fbos, fb)
	return nil
}

// allocateStandard creates the output and the three shared buffers.
func (i *Instance) allocateStandard() error {
	obj := i.obj
	standard := []struct {
		name string
		d    *buffer.Descriptor
	}{
		{"output", &obj.Output}, {"A", &obj.BufferA}, {"B", &obj.BufferB}, {"C", &obj.BufferC},
	}
	for _, s := range standard {
		if err := i.allocate(s.d); err != nil {
			return fmt.Errorf("host: buffer %s: %w", s.name, err)
		}
	}
	return nil
}

// allocateRequested creates the plugin's private buffers. A failure leaves
// the buffer Incomplete for the plugin to notice.
func (i *Instance) allocateRequested() {
	for idx, d := range i.obj.Requested.All() {
		if err := i.allocate(d); err != nil {
			i.log.Warn("requested buffer not allocated", "index", idx, "err", err)
		}
	}
}

// resolveShaders builds every declared shader through the shared cache and
// writes back ids, uniform locations and compile failures.
func (i *Instance) resolveShaders() {
	for _, d := range i.obj.Shaders.All() {
		id, err := i.host.cache.Acquire(d)
		i.shaders = append(i.shaders, d.Name())
		if err != nil {
			d.CompileFailed = true
			i.log.Warn("shader failed", "name", d.Name(), "stage", d.Stage.String(), "err", err)
			continue
		}
		d.ID = id
		if d.Stage != shader.StageProgram {
			continue
		}
		for k := range d.Uniforms {
			d.Uniforms[k].ID = i.host.backend.UniformLocation(id, d.Uniforms[k].Name)
		}
	}
}

// supplySpecialTextures draws the noise a plugin asked for into BufferA.
func (i *Instance) supplySpecialTextures() {
	n, ok := noiseFor(i.obj.Info.SpecialTextures)
	if !ok || !i.obj.BufferA.Ready() {
		return
	}
	d := &shader.Descriptor{Stage: shader.StageProgram, VertName: shader.BuiltinVertex, FragName: n.frag, ProgramName: n.program}
	id, err := i.host.cache.Acquire(d)
	i.shaders = append(i.shaders, n.program)
	if err != nil {
		i.log.Warn("noise program failed", "name", n.program, "err", err)
		return
	}

	be := i.host.backend
	a := i.obj.BufferA
	be.BindFramebuffer(a.FBO)
	be.Viewport(0, 0, int32(a.Width), int32(a.Height))
	be.UseProgram(id)
	if loc := be.UniformLocation(id, "seed"); loc >= 0 {
		be.Uniform1fv(loc, []float32{float32(i.id[0]) / 255})
	}
	be.DrawQuad(1, 1)
	be.BindFramebuffer(0)
}

// releaseResources drops every shader reference and framebuffer the instance holds.
func (i *Instance) releaseResources() {
	for _, name := range i.shaders {
		i.host.cache.Release(name)
	}
	for _, fb := range i.fbos {
		i.host.backend.ReleaseFramebuffer(fb)
	}
	i.shaders, i.fbos = nil, nil
}
