package param

import (
	"fmt"
)

// Record is one interface control slot shared between host and plugin.
// Values live in the integer domain; the plugin derives whatever internal
// representation it needs during Update.
type Record struct {
	kind    Kind
	name    string
	display string
	options []string

	min     int64
	max     int64
	def     int64
	current int64
	delta   int64

	update         UpdateFlag
	reset          ResetFlag
	displayChanged NoticeFlag
}

// newRecord validates the declared range.
func newRecord(kind Kind, name string, min, max, current, def int64) (*Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidKind, kind)
	}
	if min > max {
		return nil, fmt.Errorf("%w: %q min %d > max %d", ErrRange, name, min, max)
	}
	if def < min || def > max {
		return nil, fmt.Errorf("%w: %q default %d outside [%d,%d]", ErrRange, name, def, min, max)
	}
	if current < min || current > max {
		return nil, fmt.Errorf("%w: %q current %d outside [%d,%d]", ErrRange, name, current, min, max)
	}

	r := &Record{
		kind:    kind,
		name:    name,
		min:     min,
		max:     max,
		def:     def,
		current: current,
	}
	if kind == KindLabel {
		r.display = name
	}
	return r, nil
}

// Kind returns the control kind.
func (r *Record) Kind() Kind { return r.kind }

// Name returns the default label.
func (r *Record) Name() string { return r.name }

// IsGlobal is reserved for parameters shared across instances. Always false.
func (r *Record) IsGlobal() bool { return false }

// Min returns the lower bound.
func (r *Record) Min() int64 { return r.min }

// Max returns the upper bound.
func (r *Record) Max() int64 { return r.max }

// Default returns the reset value.
func (r *Record) Default() int64 { return r.def }

// Current returns the current value.
func (r *Record) Current() int64 { return r.current }

// Delta returns the bender offset. Zero for every other kind.
func (r *Record) Delta() int64 { return r.delta }

// DisplayValue returns the label override (or text payload for text entries).
func (r *Record) DisplayValue() string { return r.display }

// Options returns the selector options.
func (r *Record) Options() []string {
	out := make([]string, len(r.options))
	copy(out, r.options)
	return out
}

// Update returns the tri-owner update flag.
func (r *Record) Update() *UpdateFlag { return &r.update }

// Reset returns the reset request flag.
func (r *Record) Reset() *ResetFlag { return &r.reset }

// DisplayChanged returns the display notice flag.
func (r *Record) DisplayChanged() *NoticeFlag { return &r.displayChanged }

// Normalized maps the current value onto 0..1.
func (r *Record) Normalized() float64 {
	if r.max <= r.min {
		return 0
	}
	return float64(r.current-r.min) / float64(r.max-r.min)
}

// Bool reports a toggle as on.
func (r *Record) Bool() bool { return r.current != 0 }

func (r *Record) clamp(v int64) int64 {
	if v < r.min {
		return r.min
	}
	if v > r.max {
		return r.max
	}
	return v
}

// Host side.

// HostSetValue stores a new value from the panel and requests an update.
func (r *Record) HostSetValue(v int64) {
	r.current = r.clamp(v)
	r.update.Request()
}

// HostNudge stores a bender offset and requests an update.
func (r *Record) HostNudge(delta int64) {
	if delta < -BenderSpan {
		delta = -BenderSpan
	} else if delta > BenderSpan {
		delta = BenderSpan
	}
	r.delta = delta
	r.update.Request()
}

// HostSetText delivers text picked in a host dialog (text entry, font and file pickers).
func (r *Record) HostSetText(s string) {
	r.display = s
	r.update.Request()
}

// HostRequestReset asks the plugin to snap back to the default.
func (r *Record) HostRequestReset() {
	r.current = r.def
	r.delta = 0
	r.reset.Request()
	r.update.Request()
}

// Plugin side.

// SetDisplayValue publishes a new label and raises the display notice.
func (r *Record) SetDisplayValue(s string) {
	r.display = s
	r.displayChanged.Raise()
}

// PluginSetValue changes the value from inside the plugin and echoes it to the host.
func (r *Record) PluginSetValue(v int64) {
	r.current = r.clamp(v)
	r.update.Echo()
}

// Load writes a restored value without touching any flag.
// The caller marks the store pending afterwards.
func (r *Record) Load(v int64) {
	r.current = r.clamp(v)
}

// ClearDelta drops the bender offset once it has been folded into derived state.
func (r *Record) ClearDelta() { r.delta = 0 }

func (r *Record) clone() *Record {
	c := *r
	if r.options != nil {
		c.options = append([]string(nil), r.options...)
	}
	return &c
}
