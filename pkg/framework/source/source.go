// Package source holds the upstream render sources the host feeds a plugin instance.
package source

import (
	"errors"
	"fmt"
)

// MaxSlots is the size of the source table.
const MaxSlots = 32

// Slot layout. Slot 0 is always the chain input. The bus slots are only
// populated when the instance sits in a bus or output position.
const (
	SlotInput      = 0
	SlotBusA       = 1
	SlotBusB       = 6
	LayersPerBus   = 4
	slotsPerBus    = LayersPerBus + 1
	StandardSlots  = 11
	UnknownPercent = -1
)

var (
	// ErrSlot is returned for a slot outside the table.
	ErrSlot = errors.New("source: no such slot")
	// ErrLayers is returned when a bus is given more layers than it has slots.
	ErrLayers = errors.New("source: too many layers")
)

// Labels names the standard slots for source picker parameters.
var Labels = [StandardSlots]string{
	"Source In",
	"A Output", "A Top Layer", "A Upper", "A Lower", "A Bottom Layer",
	"B Output", "B Top Layer", "B Upper", "B Lower", "B Bottom Layer",
}

// Bus identifies one of the two mixing buses.
type Bus int

const (
	BusA Bus = iota
	BusB
)

// OutputSlot returns the slot carrying the bus mix.
func (b Bus) OutputSlot() int {
	return SlotBusA + int(b)*slotsPerBus
}

// LayerSlot returns the slot of a layer, 0 being the top layer.
func (b Bus) LayerSlot(layer int) int {
	return b.OutputSlot() + 1 + layer
}

// Entry describes one source as the host sees it this frame.
type Entry struct {
	// Texture is the host texture handle, 0 when unavailable.
	Texture uint32
	// TX2 and TY2 are the used texture extents. Below 1 the source is a
	// sub-rectangle of a larger power-of-two texture.
	TX2 float32
	TY2 float32
	// Width, Height and Depth (3 RGB, 4 RGBA) are zero when the plugin itself is the source.
	Width  uint32
	Height uint32
	Depth  uint32

	StartTimestamp       float64
	EffectStartTimestamp float64
	// Length is zero unless the source is a video.
	Length float64
	// PlaybackPercent is UnknownPercent when not known.
	PlaybackPercent float32

	// Valid only for video sources.
	FrameCount int64
	Frame      int64
	Timebase   float32
	LocalSpeed float32
	Reversed   bool

	Paused bool
}

// Available reports whether the slot carries a texture.
func (e Entry) Available() bool { return e.Texture != 0 }

// IsSubRect reports whether the source only fills part of its texture.
func (e Entry) IsSubRect() bool { return e.TX2 < 1 || e.TY2 < 1 }

// IsVideo reports whether the frame-accurate fields are meaningful.
func (e Entry) IsVideo() bool { return e.Length > 0 && e.FrameCount > 0 }

// TexelSize returns the size of one texel in normalized coordinates.
func (e Entry) TexelSize() (float32, float32) {
	if e.Width == 0 || e.Height == 0 {
		return 0, 0
	}
	return e.TX2 / float32(e.Width), e.TY2 / float32(e.Height)
}

// Table is the ordered source list. Plugins only read it.
type Table struct {
	entries []Entry
}

// NewTable creates a table with every slot unavailable.
func NewTable() *Table {
	t := &Table{entries: make([]Entry, MaxSlots)}
	for i := range t.entries {
		t.entries[i].PlaybackPercent = UnknownPercent
	}
	return t
}

// Get returns a copy of a slot. Out-of-range slots read as unavailable.
func (t *Table) Get(slot int) Entry {
	if slot < 0 || slot >= len(t.entries) {
		return Entry{PlaybackPercent: UnknownPercent}
	}
	return t.entries[slot]
}

// Primary returns the chain input.
func (t *Table) Primary() Entry {
	return t.entries[SlotInput]
}

// SelfIsSource reports whether the instance renders as a source rather than
// consuming one, signalled by zero dimensions on the chain input.
func (t *Table) SelfIsSource() bool {
	p := t.entries[SlotInput]
	return p.Width == 0 || p.Height == 0
}

// Available returns the slots carrying a texture.
func (t *Table) Available() []int {
	var out []int
	for i, e := range t.entries {
		if e.Available() {
			out = append(out, i)
		}
	}
	return out
}

// Set replaces a slot. Host only.
func (t *Table) Set(slot int, e Entry) error {
	if slot < 0 || slot >= len(t.entries) {
		return fmt.Errorf("%w: %d", ErrSlot, slot)
	}
	t.entries[slot] = e
	return nil
}

// Clear marks a slot unavailable. Host only.
func (t *Table) Clear(slot int) error {
	return t.Set(slot, Entry{PlaybackPercent: UnknownPercent})
}

// Update edits a slot in place. Host only.
func (t *Table) Update(slot int, fn func(e *Entry)) error {
	if slot < 0 || slot >= len(t.entries) {
		return fmt.Errorf("%w: %d", ErrSlot, slot)
	}
	fn(&t.entries[slot])
	return nil
}

// ArrangeBus publishes a bus mix and its layers. Layers arrive in render
// order, bottom first, and are stored top to bottom so every plugin sees
// the same presentation order. Unused layer slots are cleared. Host only.
func (t *Table) ArrangeBus(b Bus, output Entry, renderOrder []Entry) error {
	if len(renderOrder) > LayersPerBus {
		return fmt.Errorf("%w: %d layers on bus %d", ErrLayers, len(renderOrder), b)
	}
	if err := t.Set(b.OutputSlot(), output); err != nil {
		return err
	}
	n := len(renderOrder)
	for layer := 0; layer < LayersPerBus; layer++ {
		slot := b.LayerSlot(layer)
		if layer < n {
			t.entries[slot] = renderOrder[n-1-layer]
			continue
		}
		t.entries[slot] = Entry{PlaybackPercent: UnknownPercent}
	}
	return nil
}
