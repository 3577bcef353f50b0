package plugin

import (
	"fmt"
	"math/rand/v2"

	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/param"
	"github.com/justyntemme/vfxgo/pkg/framework/process"
	"github.com/justyntemme/vfxgo/pkg/framework/render"
	"github.com/justyntemme/vfxgo/pkg/framework/state"
)

// Effect is what a plugin author implements. The Controller calls it one
// method at a time and owns every protocol rule around it.
type Effect interface {
	// Info describes the plugin. Called once at Init.
	Info() fx.Info
	// Declare publishes parameters, shaders and buffer requests. Called once at Init.
	Declare(d *Declarer) error
	// Apply consumes one pending parameter. Returning true echoes the
	// record back to the host, e.g. after rewriting its display value.
	Apply(index int, rec *param.Record) bool
	// Render draws one frame.
	Render(ctx *process.Context) error
	// Snapshot encodes the plugin state.
	Snapshot(params *param.Store) (*state.Blob, error)
	// Restore decodes a state. It must not modify params unless it returns nil.
	Restore(view state.View, params *param.Store) error
	// Release frees device objects created by the plugin.
	Release(dev render.Device)
}

// Initializer is implemented by effects that need the object after declaring,
// e.g. to create device buffers.
type Initializer interface {
	Init(obj *fx.Object) error
}

// Resetter is implemented by effects with internal state beyond parameters.
// OnReset runs before the defaults are applied.
type Resetter interface {
	OnReset()
}

// Randomizer replaces the default randomisation of one record.
type Randomizer interface {
	Random(index int, rec *param.Record, rng *rand.Rand) (int64, bool)
}

// Suppressor lists parameters whose update must not fire on reset or
// restore, such as triggers.
type Suppressor interface {
	SuppressUpdates() []int
}

// BeatFollower is implemented by effects that react to beat hits.
// The division is read every frame.
type BeatFollower interface {
	BeatDivision() int
}

// DefaultRandom draws a uniform value for value-carrying controls with a
// range. Benders, triggers and dialog-driven kinds are left alone.
func DefaultRandom(rec *param.Record, rng *rand.Rand) (int64, bool) {
	switch rec.Kind() {
	case param.KindRange, param.KindToggle, param.KindSelector,
		param.KindMultiState, param.KindBeatPicker:
	default:
		return 0, false
	}
	span := rec.Max() - rec.Min()
	if span <= 0 {
		return rec.Min(), true
	}
	return rec.Min() + rng.Int64N(span+1), true
}

// Base provides the optional parts of Effect for plugins whose state is
// their parameter panel.
type Base struct {
	info   fx.Info
	schema *state.Schema[[]int64]
}

// NewBase creates a base that snapshots parameters at the given state version.
func NewBase(info fx.Info, stateVersion int) *Base {
	return &Base{info: info, schema: state.ParamSchema(stateVersion)}
}

// Info implements Effect.
func (b *Base) Info() fx.Info { return b.info }

// Apply implements Effect. It consumes without echoing.
func (b *Base) Apply(int, *param.Record) bool { return false }

// Render implements Effect. It draws nothing.
func (b *Base) Render(*process.Context) error { return nil }

// Snapshot implements Effect.
func (b *Base) Snapshot(params *param.Store) (*state.Blob, error) {
	return b.schema.Encode(params.Values())
}

// Restore implements Effect.
func (b *Base) Restore(view state.View, params *param.Store) error {
	values, err := b.schema.Decode(view)
	if err != nil {
		return err
	}
	if len(values) != params.Len() {
		return fmt.Errorf("%w: %d values for %d parameters", state.ErrCorrupt, len(values), params.Len())
	}
	state.LoadValues(params, values)
	return nil
}

// Release implements Effect.
func (b *Base) Release(render.Device) {}
