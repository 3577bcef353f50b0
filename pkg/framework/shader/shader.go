// Package shader describes the shaders a plugin asks the host to build and
// the uniforms it binds on them.
package shader

import (
	"errors"
	"fmt"
)

const (
	// MaxDescriptors is the number of shader slots in the shared object.
	MaxDescriptors = 128
	// MaxUniforms is the number of uniforms one descriptor can carry.
	MaxUniforms = 128
)

var (
	// ErrCapacity is returned when a descriptor or uniform table is full.
	ErrCapacity = errors.New("shader: capacity exceeded")
	// ErrIndex is returned for an undeclared shader slot.
	ErrIndex = errors.New("shader: no such slot")
	// ErrInvalid is returned for a descriptor missing the names its stage needs.
	ErrInvalid = errors.New("shader: invalid descriptor")
)

// Stage is the pipeline stage a descriptor builds.
type Stage int32

const (
	// StageVertex is a vertex shader.
	StageVertex Stage = iota
	// StageFragment is a fragment shader.
	StageFragment
	// StageProgram links a named vertex and fragment shader.
	StageProgram
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageProgram:
		return "program"
	default:
		return "unknown"
	}
}

// UniformKind is the type a uniform value is converted to on upload.
type UniformKind int32

const (
	// UniformInt uploads the value truncated to an integer.
	UniformInt UniformKind = iota
	// UniformFloat uploads the value as a float.
	UniformFloat
)

// Uniform is one named shader input.
type Uniform struct {
	Kind  UniformKind
	Name  string
	Value float32
	// ID is the location assigned by the host.
	ID int32
}

// Descriptor describes one shader resource. Names are a namespace shared
// by every plugin instance the host runs: a name is compiled once and
// the result is shared, so two plugins must never reuse a name for
// different code.
type Descriptor struct {
	Stage       Stage
	Source      string
	VertName    string
	FragName    string
	ProgramName string
	Uniforms    []Uniform

	// Set by the host.
	CompileFailed bool
	ID            uint32
}

// Name returns the cache key for the descriptor's stage.
func (d *Descriptor) Name() string {
	switch d.Stage {
	case StageVertex:
		return d.VertName
	case StageFragment:
		return d.FragName
	default:
		return d.ProgramName
	}
}

// Uniform returns the uniform with the given name.
func (d *Descriptor) Uniform(name string) (*Uniform, bool) {
	for i := range d.Uniforms {
		if d.Uniforms[i].Name == name {
			return &d.Uniforms[i], true
		}
	}
	return nil, false
}

// Ready reports whether the host built the descriptor successfully.
func (d *Descriptor) Ready() bool {
	return !d.CompileFailed && d.ID != 0
}

func (d *Descriptor) validate() error {
	switch d.Stage {
	case StageVertex:
		if d.VertName == "" {
			return fmt.Errorf("%w: vertex shader needs a vertex name", ErrInvalid)
		}
	case StageFragment:
		if d.FragName == "" {
			return fmt.Errorf("%w: fragment shader needs a fragment name", ErrInvalid)
		}
	case StageProgram:
		if d.ProgramName == "" || d.VertName == "" || d.FragName == "" {
			return fmt.Errorf("%w: program %q needs vertex, fragment and program names", ErrInvalid, d.ProgramName)
		}
	default:
		return fmt.Errorf("%w: stage %d", ErrInvalid, d.Stage)
	}
	return nil
}

// Table is the ordered list of descriptors a plugin publishes.
type Table struct {
	shaders []*Descriptor
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// DeclareShader appends a descriptor and returns its slot index.
// Source is only set for stages authored inline.
func (t *Table) DeclareShader(stage Stage, source, vertName, fragName, programName string) (int, error) {
	if len(t.shaders) >= MaxDescriptors {
		return -1, fmt.Errorf("%w: %d shaders", ErrCapacity, MaxDescriptors)
	}
	d := &Descriptor{
		Stage:       stage,
		Source:      source,
		VertName:    vertName,
		FragName:    fragName,
		ProgramName: programName,
	}
	if err := d.validate(); err != nil {
		return -1, err
	}
	t.shaders = append(t.shaders, d)
	return len(t.shaders) - 1, nil
}

// DeclareUniform appends a typed uniform to a shader.
func (t *Table) DeclareUniform(shaderIndex int, kind UniformKind, name string, value float32) error {
	d := t.Get(shaderIndex)
	if d == nil {
		return fmt.Errorf("%w: %d", ErrIndex, shaderIndex)
	}
	if len(d.Uniforms) >= MaxUniforms {
		return fmt.Errorf("%w: %d uniforms on %q", ErrCapacity, MaxUniforms, d.Name())
	}
	d.Uniforms = append(d.Uniforms, Uniform{Kind: kind, Name: name, Value: value})
	return nil
}

// Get returns the descriptor in a slot.
func (t *Table) Get(index int) *Descriptor {
	if index < 0 || index >= len(t.shaders) {
		return nil
	}
	return t.shaders[index]
}

// Len returns the published shader count.
func (t *Table) Len() int {
	return len(t.shaders)
}

// All returns the descriptors in slot order.
func (t *Table) All() []*Descriptor {
	out := make([]*Descriptor, len(t.shaders))
	copy(out, t.shaders)
	return out
}
