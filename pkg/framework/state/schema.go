package state

import (
	"fmt"
	"sort"
)

// EncodeFunc writes the current form of T.
type EncodeFunc[T any] func(w *Writer, v T)

// DecodeFunc reads one historical layout into T. Fields the layout did not
// carry are left for the migration chain to fill in.
type DecodeFunc[T any] func(r *Reader) T

// UpgradeFunc moves a value decoded at one version to the next version.
type UpgradeFunc[T any] func(v T) T

// Schema is the set of payload layouts a plugin understands, keyed by version.
// Only the current version is ever written. Older versions decode through
// their own layout and then walk the upgrade chain one version at a time.
type Schema[T any] struct {
	current  int
	encode   EncodeFunc[T]
	decoders map[int]DecodeFunc[T]
	upgrades map[int]UpgradeFunc[T]
}

// NewSchema creates a schema whose current version is written by encode and read by decode.
func NewSchema[T any](current int, encode EncodeFunc[T], decode DecodeFunc[T]) *Schema[T] {
	return &Schema[T]{
		current:  current,
		encode:   encode,
		decoders: map[int]DecodeFunc[T]{current: decode},
		upgrades: make(map[int]UpgradeFunc[T]),
	}
}

// Legacy registers an older layout together with the step that upgrades it
// to version+1.
func (s *Schema[T]) Legacy(version int, decode DecodeFunc[T], upgrade UpgradeFunc[T]) *Schema[T] {
	if version >= s.current {
		panic(fmt.Sprintf("state: legacy version %d is not older than current %d", version, s.current))
	}
	s.decoders[version] = decode
	s.upgrades[version] = upgrade
	return s
}

// Current returns the version Encode writes.
func (s *Schema[T]) Current() int { return s.current }

// Versions returns every readable version, oldest first.
func (s *Schema[T]) Versions() []int {
	out := make([]int, 0, len(s.decoders))
	for v := range s.decoders {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Supports reports whether version can be decoded.
func (s *Schema[T]) Supports(version int) bool {
	if version > s.current {
		return false
	}
	if _, ok := s.decoders[version]; !ok {
		return false
	}
	for v := version; v < s.current; v++ {
		if _, ok := s.upgrades[v]; !ok {
			return false
		}
	}
	return true
}

// Encode writes v at the current version into a new blob.
func (s *Schema[T]) Encode(v T) (*Blob, error) {
	w := NewWriter()
	s.encode(w, v)
	data, err := w.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode v%d: %w", s.current, err)
	}
	return NewBlob(s.current, data), nil
}

// Decode reads a borrowed payload and migrates it to the current version.
// Unknown versions fail without running any decoder.
func (s *Schema[T]) Decode(view View) (T, error) {
	var zero T
	version := view.Version()
	if !s.Supports(version) {
		return zero, fmt.Errorf("%w: %d (current %d)", ErrUnknownVersion, version, s.current)
	}

	r := NewReader(view)
	if err := r.Err(); err != nil {
		return zero, err
	}
	v := s.decoders[version](r)
	if err := r.Err(); err != nil {
		return zero, fmt.Errorf("decode v%d: %w", version, err)
	}
	for step := version; step < s.current; step++ {
		v = s.upgrades[step](v)
	}
	return v, nil
}
