package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/justyntemme/vfxgo/pkg/framework/shader"
)

// Op is one recorded backend call.
type Op struct {
	Name string
	Args []any
}

// String formats the call as name(args).
func (o Op) String() string {
	args := make([]string, len(o.Args))
	for i, a := range o.Args {
		args[i] = fmt.Sprint(a)
	}
	return o.Name + "(" + strings.Join(args, ", ") + ")"
}

// Recorder is a headless Backend. It hands out handles, records every call
// and keeps count of what is still alive. Safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	next     uint32
	ops      []Op
	shaders  map[uint32]string
	buffers  map[uint32]bool
	fbos     map[uint32]Framebuffer
	uniforms map[uint32]map[string]int32

	// FailCompile makes compiles of the named shaders fail.
	FailCompile map[string]bool
	// FailFramebuffers makes every framebuffer allocation fail.
	FailFramebuffers bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		shaders:     make(map[uint32]string),
		buffers:     make(map[uint32]bool),
		fbos:        make(map[uint32]Framebuffer),
		uniforms:    make(map[uint32]map[string]int32),
		FailCompile: make(map[string]bool),
	}
}

func (r *Recorder) record(name string, args ...any) {
	r.ops = append(r.ops, Op{Name: name, Args: args})
}

func (r *Recorder) handle() uint32 {
	r.next++
	return r.next
}

// Ops returns a copy of the recorded calls.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Count returns how many times a call was recorded.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op.Name == name {
			n++
		}
	}
	return n
}

// Reset drops the recorded calls but keeps live objects.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
}

// Live returns the number of live shaders, buffers and framebuffers.
func (r *Recorder) Live() (shaders, buffers, framebuffers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shaders), len(r.buffers), len(r.fbos)
}

func (r *Recorder) BindFramebuffer(fbo uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("BindFramebuffer", fbo)
}

func (r *Recorder) Viewport(x, y, width, height int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Viewport", x, y, width, height)
}

func (r *Recorder) Clear(red, green, blue, alpha float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Clear", red, green, blue, alpha)
}

func (r *Recorder) BindTexture(unit int32, texture uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("BindTexture", unit, texture)
}

func (r *Recorder) UseProgram(program uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("UseProgram", program)
}

func (r *Recorder) Uniform1i(location int32, v int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Uniform1i", location, v)
}

func (r *Recorder) Uniform1fv(location int32, v []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Uniform1fv", location, append([]float32(nil), v...))
}

func (r *Recorder) DrawQuad(tx2, ty2 float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DrawQuad", tx2, ty2)
}

func (r *Recorder) GenBuffer() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.handle()
	r.buffers[id] = true
	r.record("GenBuffer", id)
	return id
}

func (r *Recorder) DeleteBuffer(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, id)
	r.record("DeleteBuffer", id)
}

func (r *Recorder) CompileShader(stage shader.Stage, name, source string) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("CompileShader", stage, name)
	if r.FailCompile[name] {
		return 0, fmt.Errorf("compile %s %q: forced failure", stage, name)
	}
	id := r.handle()
	r.shaders[id] = name
	return id, nil
}

func (r *Recorder) LinkProgram(name string, vert, frag uint32) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("LinkProgram", name, vert, frag)
	if r.FailCompile[name] {
		return 0, fmt.Errorf("link %q: forced failure", name)
	}
	id := r.handle()
	r.shaders[id] = name
	return id, nil
}

func (r *Recorder) DeleteShader(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.shaders, id)
	r.record("DeleteShader", id)
}

// UniformLocation numbers names per program in first-seen order.
// Program 0 has no uniforms.
func (r *Recorder) UniformLocation(program uint32, name string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("UniformLocation", program, name)
	if program == 0 {
		return -1
	}
	locs := r.uniforms[program]
	if locs == nil {
		locs = make(map[string]int32)
		r.uniforms[program] = locs
	}
	loc, ok := locs[name]
	if !ok {
		loc = int32(len(locs))
		locs[name] = loc
	}
	return loc
}

func (r *Recorder) CreateFramebuffer(width, height uint32, depth bool) (Framebuffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("CreateFramebuffer", width, height, depth)
	if r.FailFramebuffers || width == 0 || height == 0 {
		return Framebuffer{}, fmt.Errorf("%w: %dx%d", ErrFramebuffer, width, height)
	}
	fb := Framebuffer{FBO: r.handle(), Texture: r.handle()}
	if depth {
		fb.Depth = r.handle()
	}
	r.fbos[fb.FBO] = fb
	return fb, nil
}

func (r *Recorder) ReleaseFramebuffer(fb Framebuffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.fbos, fb.FBO)
	r.record("ReleaseFramebuffer", fb.FBO)
}
