// Package state carries plugin state between host and plugin as versioned blobs.
package state

import (
	"bytes"
	"io"
)

// Blob is a versioned, opaque state payload.
//
// The producing side hands its bytes over with NewBlob and the receiver moves
// them out with Take. The restoring side only ever Borrows: the View it gets
// is valid for the duration of the call and cannot alias the host's buffer.
type Blob struct {
	version int
	data    []byte
	taken   bool
}

// NewBlob wraps data. The blob owns data from here on; the caller must not
// touch it again.
func NewBlob(version int, data []byte) *Blob {
	return &Blob{version: version, data: data}
}

// Version returns the payload version.
func (b *Blob) Version() int {
	if b == nil {
		return 0
	}
	return b.version
}

// Size returns the payload length. Zero after Take.
func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Taken reports whether the payload has been moved out.
func (b *Blob) Taken() bool {
	return b != nil && b.taken
}

// Take moves the payload out. Only the first call returns the bytes.
func (b *Blob) Take() []byte {
	if b == nil || b.taken {
		return nil
	}
	data := b.data
	b.data = nil
	b.taken = true
	return data
}

// Borrow returns a read-only view of the payload.
func (b *Blob) Borrow() View {
	if b == nil {
		return View{}
	}
	return View{version: b.version, data: b.data}
}

// View is a read-only window onto a blob.
type View struct {
	version int
	data    []byte
}

// Version returns the payload version.
func (v View) Version() int { return v.version }

// Size returns the payload length.
func (v View) Size() int { return len(v.data) }

// Reader returns a fresh reader over the payload.
func (v View) Reader() io.Reader { return bytes.NewReader(v.data) }

// CopyBytes returns a private copy of the payload.
func (v View) CopyBytes() []byte {
	return bytes.Clone(v.data)
}
