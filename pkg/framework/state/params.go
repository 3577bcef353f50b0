package state

import (
	"fmt"

	"github.com/justyntemme/vfxgo/pkg/framework/param"
)

// ParamSchema snapshots every parameter's current value. Plugins whose whole
// state is their panel use it instead of a hand-written schema.
func ParamSchema(version int) *Schema[[]int64] {
	return NewSchema(version, encodeValues, decodeValues)
}

func encodeValues(w *Writer, values []int64) {
	w.Uint32(uint32(len(values)))
	for _, v := range values {
		w.Int64(v)
	}
}

func decodeValues(r *Reader) []int64 {
	n := r.Uint32()
	if r.Err() != nil {
		return nil
	}
	if n > param.MaxRecords {
		r.err = fmt.Errorf("%w: %d values", ErrCorrupt, n)
		return nil
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = r.Int64()
	}
	return out
}

// LoadValues copies restored values into the store. Extra values are ignored
// and missing ones keep their current value. No flags are touched.
func LoadValues(store *param.Store, values []int64) {
	for i, v := range values {
		if rec := store.Get(i); rec != nil {
			rec.Load(v)
		}
	}
}
