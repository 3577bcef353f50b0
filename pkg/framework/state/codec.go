package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Magic prefixes every payload written by Writer.
const Magic = "VFXS"

// maxString bounds string fields so a corrupt length cannot allocate unbounded memory.
const maxString = 1 << 16

var (
	// ErrCorrupt is returned for payloads that do not decode.
	ErrCorrupt = errors.New("state: corrupt payload")
	// ErrUnknownVersion is returned for versions a schema has no decoder for.
	ErrUnknownVersion = errors.New("state: unknown version")
)

// Writer encodes little-endian fields behind the magic header.
// The first failing write sticks and is reported by Bytes.
type Writer struct {
	buf bytes.Buffer
	err error
}

// NewWriter starts a payload.
func NewWriter() *Writer {
	w := &Writer{}
	w.buf.WriteString(Magic)
	return w
}

func (w *Writer) write(v any) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(&w.buf, binary.LittleEndian, v)
}

// Int64 writes a signed integer.
func (w *Writer) Int64(v int64) { w.write(v) }

// Uint32 writes an unsigned integer.
func (w *Writer) Uint32(v uint32) { w.write(v) }

// Float32 writes a float.
func (w *Writer) Float32(v float32) { w.write(math.Float32bits(v)) }

// Bool writes a flag byte.
func (w *Writer) Bool(v bool) {
	var b uint8
	if v {
		b = 1
	}
	w.write(b)
}

// String writes a length-prefixed string.
func (w *Writer) String(s string) {
	if len(s) > maxString {
		w.err = fmt.Errorf("state: string of %d bytes", len(s))
		return
	}
	w.Uint32(uint32(len(s)))
	if w.err == nil {
		w.buf.WriteString(s)
	}
}

// Bytes returns the payload or the first write error.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// Reader decodes a payload written by Writer.
// After the first failure every read returns zero and Err reports it.
type Reader struct {
	r   io.Reader
	err error
}

// NewReader checks the magic header of a borrowed payload.
func NewReader(v View) *Reader {
	rd := &Reader{r: v.Reader()}
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(rd.r, magic); err != nil || string(magic) != Magic {
		rd.err = fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	return rd
}

func (r *Reader) read(v any) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		r.err = fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
}

// Int64 reads a signed integer.
func (r *Reader) Int64() int64 {
	var v int64
	r.read(&v)
	return v
}

// Uint32 reads an unsigned integer.
func (r *Reader) Uint32() uint32 {
	var v uint32
	r.read(&v)
	return v
}

// Float32 reads a float.
func (r *Reader) Float32() float32 {
	var v uint32
	r.read(&v)
	return math.Float32frombits(v)
}

// Bool reads a flag byte.
func (r *Reader) Bool() bool {
	var v uint8
	r.read(&v)
	return v != 0
}

// String reads a length-prefixed string.
func (r *Reader) String() string {
	n := r.Uint32()
	if r.err != nil {
		return ""
	}
	if n > maxString {
		r.err = fmt.Errorf("%w: string of %d bytes", ErrCorrupt, n)
		return ""
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = fmt.Errorf("%w: %v", ErrCorrupt, err)
		return ""
	}
	return string(b)
}

// Err returns the first decode failure.
func (r *Reader) Err() error { return r.err }
