package param

import (
	"errors"
	"fmt"
)

// MaxRecords is the number of parameter slots the shared object provides.
const MaxRecords = 128

var (
	// ErrCapacity is returned when the table is full. It is a configuration
	// error and must surface during Init.
	ErrCapacity = errors.New("param: capacity exceeded")
	// ErrRange is returned for a declaration whose default or current value lies outside [min,max].
	ErrRange = errors.New("param: value out of range")
	// ErrInvalidKind is returned for an unknown kind.
	ErrInvalidKind = errors.New("param: invalid kind")
	// ErrIndex is returned for a slot that was never declared.
	ErrIndex = errors.New("param: no such slot")
)

// RandomFunc picks a new value for one record. Returning false leaves the record alone.
type RandomFunc func(index int, r *Record) (int64, bool)

// Store manages the ordered parameter table. Slot order is display order.
// A store is owned by one instance and is not safe for concurrent use.
type Store struct {
	records  []*Record
	capacity int
}

// NewStore creates a store with the standard capacity.
func NewStore() *Store {
	return NewStoreWithCapacity(MaxRecords)
}

// NewStoreWithCapacity creates a store with a custom capacity.
func NewStoreWithCapacity(capacity int) *Store {
	return &Store{
		records:  make([]*Record, 0, capacity),
		capacity: capacity,
	}
}

// Declare appends a record and returns its slot index.
func (s *Store) Declare(kind Kind, name string, min, max, current, def int64) (int, error) {
	if len(s.records) >= s.capacity {
		return -1, fmt.Errorf("%w: %q would be slot %d of %d", ErrCapacity, name, len(s.records)+1, s.capacity)
	}
	r, err := newRecord(kind, name, min, max, current, def)
	if err != nil {
		return -1, err
	}
	s.records = append(s.records, r)
	return len(s.records) - 1, nil
}

// Add declares a record from a builder spec.
func (s *Store) Add(spec *Spec) (int, error) {
	idx, err := s.Declare(spec.kind, spec.name, spec.min, spec.max, spec.current, spec.def)
	if err != nil {
		return -1, err
	}
	r := s.records[idx]
	if len(spec.options) > 0 {
		r.options = append([]string(nil), spec.options...)
	}
	if spec.display != "" {
		r.display = spec.display
	}
	return idx, nil
}

// SetOptions replaces the option list of a selector.
func (s *Store) SetOptions(index int, options ...string) error {
	r := s.Get(index)
	if r == nil {
		return fmt.Errorf("%w: %d", ErrIndex, index)
	}
	r.options = append([]string(nil), options...)
	return nil
}

// Get retrieves a record by slot index.
func (s *Store) Get(index int) *Record {
	if index < 0 || index >= len(s.records) {
		return nil
	}
	return s.records[index]
}

// ByName returns the first record with the given name.
func (s *Store) ByName(name string) (*Record, int) {
	for i, r := range s.records {
		if r.name == name {
			return r, i
		}
	}
	return nil, -1
}

// Len returns the number of declared records.
func (s *Store) Len() int {
	return len(s.records)
}

// Capacity returns the maximum number of records.
func (s *Store) Capacity() int {
	return s.capacity
}

// All returns the records in slot order.
func (s *Store) All() []*Record {
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// Values returns every current value in slot order.
func (s *Store) Values() []int64 {
	out := make([]int64, len(s.records))
	for i, r := range s.records {
		out[i] = r.current
	}
	return out
}

// ApplyDefaults snaps every record to its default and marks it pending.
// Benders also get a reset request since their state is the accumulated delta.
func (s *Store) ApplyDefaults() {
	for _, r := range s.records {
		r.current = r.def
		r.update.Request()
		if r.kind == KindBender {
			r.delta = 0
			r.reset.Request()
		}
	}
}

// ApplyRandom lets fn pick new values and marks every changed record pending.
// It returns the number of records changed.
func (s *Store) ApplyRandom(fn RandomFunc) int {
	if fn == nil {
		return 0
	}
	changed := 0
	for i, r := range s.records {
		v, ok := fn(i, r)
		if !ok {
			continue
		}
		r.current = r.clamp(v)
		r.update.Request()
		changed++
	}
	return changed
}

// MarkAllPending raises the update flag on every record.
func (s *Store) MarkAllPending() {
	for _, r := range s.records {
		r.update.Request()
	}
}

// Suppress drops the update flag on the given slots so they are not echoed,
// e.g. triggers that must not fire on a reset or a restore.
func (s *Store) Suppress(indices ...int) {
	for _, i := range indices {
		if r := s.Get(i); r != nil {
			r.update.Settle()
		}
	}
}

// DropResets clears every reset request, e.g. echoes left over from a
// reset envelope that must not reach the Update after a restore.
func (s *Store) DropResets() {
	for _, r := range s.records {
		r.reset.Settle()
	}
}

// Settle clears flags the plugin left raised for the host. Host only, after a frame.
func (s *Store) Settle() {
	for _, r := range s.records {
		r.update.Settle()
		r.reset.Settle()
	}
}

// TakeDisplayChanges returns the slots whose display value changed and clears
// their notices. Host only, after repainting.
func (s *Store) TakeDisplayChanges() []int {
	var out []int
	for i, r := range s.records {
		if r.displayChanged.Raised() {
			out = append(out, i)
			r.displayChanged.Clear()
		}
	}
	return out
}

// Pending returns the indices of records with a raised update flag.
func (s *Store) Pending() []int {
	var out []int
	for i, r := range s.records {
		if r.update.Pending() {
			out = append(out, i)
		}
	}
	return out
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{
		records:  make([]*Record, len(s.records), s.capacity),
		capacity: s.capacity,
	}
	for i, r := range s.records {
		c.records[i] = r.clone()
	}
	return c
}
