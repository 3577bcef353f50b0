// Package buffer describes the framebuffers a plugin renders into.
package buffer

import (
	"errors"
	"fmt"
)

// MaxRequested is the number of private framebuffers a plugin may ask for.
const MaxRequested = 3

// ErrCapacity is returned when the request table is full.
var ErrCapacity = errors.New("buffer: capacity exceeded")

// Status is the allocation state the host reports back.
type Status int32

const (
	// Unallocated means the host has not created the buffer yet.
	Unallocated Status = iota
	// Complete means the framebuffer is ready to bind.
	Complete
	// Incomplete means the host tried and the backend rejected the attachment set.
	Incomplete
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case Incomplete:
		return "incomplete"
	default:
		return "unallocated"
	}
}

// Env is the host's default geometry for buffers that leave their size open.
type Env struct {
	Width  uint32
	Height uint32
}

// Descriptor is one framebuffer with its colour texture.
type Descriptor struct {
	FBO     uint32
	Texture uint32
	// Depth is a request flag on the way in and the depth texture handle once allocated.
	Depth  uint32
	Status Status

	// Width and Height of zero take the environment default.
	Width      uint32
	Height     uint32
	PowerOfTwo uint32
	OrthoX     float32
	OrthoY     float32
	SizeHint   int32
}

// WantsDepth reports whether the plugin asked for a depth attachment.
func (d *Descriptor) WantsDepth() bool { return d.Depth != 0 }

// Ready reports whether the buffer can be bound.
func (d *Descriptor) Ready() bool { return d.Status == Complete && d.FBO != 0 }

// Resolve fills in the allocation geometry: default size, the power-of-two
// texture that holds it and the ortho extents of the used region.
func (d *Descriptor) Resolve(env Env) {
	if d.Width == 0 {
		d.Width = env.Width
	}
	if d.Height == 0 {
		d.Height = env.Height
	}
	d.PowerOfTwo = NextPowerOfTwo(max(d.Width, d.Height))
	if d.PowerOfTwo == 0 {
		d.OrthoX, d.OrthoY = 0, 0
		return
	}
	d.OrthoX = float32(d.Width) / float32(d.PowerOfTwo)
	d.OrthoY = float32(d.Height) / float32(d.PowerOfTwo)
}

// NextPowerOfTwo returns the smallest power of two not below v. Zero stays zero.
func NextPowerOfTwo(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	return v + 1
}

// Table holds the buffers a plugin requests at Init.
type Table struct {
	buffers []*Descriptor
}

// NewTable creates an empty request table.
func NewTable() *Table {
	return &Table{}
}

// Request appends a buffer and returns its slot. Zero sizes take the host default.
func (t *Table) Request(width, height uint32, depth bool) (int, error) {
	if len(t.buffers) >= MaxRequested {
		return -1, fmt.Errorf("%w: %d buffers", ErrCapacity, MaxRequested)
	}
	d := &Descriptor{Width: width, Height: height}
	if depth {
		d.Depth = 1
	}
	t.buffers = append(t.buffers, d)
	return len(t.buffers) - 1, nil
}

// Get returns a requested buffer.
func (t *Table) Get(index int) *Descriptor {
	if index < 0 || index >= len(t.buffers) {
		return nil
	}
	return t.buffers[index]
}

// Len returns the number of requests.
func (t *Table) Len() int { return len(t.buffers) }

// All returns the requests in slot order.
func (t *Table) All() []*Descriptor {
	out := make([]*Descriptor, len(t.buffers))
	copy(out, t.buffers)
	return out
}
