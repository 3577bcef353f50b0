package plugin

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/param"
	"github.com/justyntemme/vfxgo/pkg/framework/process"
	"github.com/justyntemme/vfxgo/pkg/framework/render"
	"github.com/justyntemme/vfxgo/pkg/framework/shader"
	"github.com/justyntemme/vfxgo/pkg/framework/source"
	"github.com/justyntemme/vfxgo/pkg/framework/state"
	"github.com/justyntemme/vfxgo/pkg/framework/timing"
)

const (
	pRed = iota
	pZoom
	pMode
	pFire
)

var modeLabels = []string{"Soft", "Hard", "Wild"}

type testEffect struct {
	*Base
	info fx.Info

	red      float64
	zoom     float32
	fired    int
	applied  []int
	frames   int
	starts   int
	hits     int
	released bool

	renderErr   error
	panicRender bool
	overDeclare bool
	division    int
}

func newTestEffect() *testEffect {
	info := fx.Info{Type: fx.TypeEffect, CanonicalName: "acme-test", Version: "1.0.0"}
	return &testEffect{Base: NewBase(info, 1), info: info}
}

func (e *testEffect) Info() fx.Info { return e.info }

func (e *testEffect) Declare(d *Declarer) error {
	d.Param(param.RangeParameter("Red", 0, 100, 0))
	d.Param(param.BenderParameter("Zoom"))
	d.Param(param.MultiStateParameter("Mode", 0, modeLabels...))
	d.Param(param.TriggerParameter("Fire"))
	d.Shader(shader.StageFragment, "void main(){}", "", "acme-test-frag", "")
	prog := d.Shader(shader.StageProgram, "", "builtin-vert", "acme-test-frag", "acme-test-prog")
	d.Uniform(prog, shader.UniformInt, "tex0", 0)
	d.Uniform(prog, shader.UniformFloat, "red", 0)
	if e.overDeclare {
		for i := 0; i < param.MaxRecords; i++ {
			d.Param(param.PercentParameter("extra", 0))
		}
	}
	return nil
}

func (e *testEffect) Apply(index int, rec *param.Record) bool {
	e.applied = append(e.applied, index)
	switch index {
	case pRed:
		e.red = rec.Normalized()
	case pZoom:
		if rec.Reset().Pending() {
			e.zoom = 1
		} else {
			e.zoom += param.BenderCurve(rec.Delta())
		}
	case pMode:
		rec.SetDisplayValue(param.LabelFormatter(modeLabels, rec.Current()))
		return true
	case pFire:
		e.fired++
	}
	return false
}

func (e *testEffect) Render(ctx *process.Context) error {
	if e.panicRender {
		panic("boom")
	}
	if e.renderErr != nil {
		return e.renderErr
	}
	e.frames++
	if ctx.Started {
		e.starts++
	}
	if ctx.Hit.New {
		e.hits++
	}
	ctx.BindOutput()
	if err := ctx.SetUniform(1, "red", float32(e.red)); err != nil {
		return err
	}
	if err := ctx.UseShader(1); err != nil {
		return err
	}
	ctx.DrawSource(0, source.SlotInput)
	return nil
}

func (e *testEffect) Release(render.Device) { e.released = true }

func (e *testEffect) SuppressUpdates() []int { return []int{pFire} }

func (e *testEffect) BeatDivision() int { return e.division }

// readyObject returns an object whose handles satisfy every render precondition.
func readyObject(dev render.Device) *fx.Object {
	obj := fx.New()
	obj.Device = dev
	obj.Output.FBO = 1
	obj.Output.Width, obj.Output.Height = 640, 360
	_ = obj.Sources.Set(source.SlotInput, source.Entry{Texture: 7, TX2: 1, TY2: 1, Width: 640, Height: 360})
	return obj
}

// buildShaders plays the host's part after Init.
func buildShaders(obj *fx.Object) {
	for i, d := range obj.Shaders.All() {
		d.ID = uint32(100 + i)
		for j := range d.Uniforms {
			d.Uniforms[j].ID = int32(j)
		}
	}
}

func newStarted(t *testing.T, e *testEffect) (*Controller, *fx.Object, *render.Recorder) {
	t.Helper()
	rec := render.NewRecorder()
	obj := readyObject(rec)
	c := New(e, WithSeed(1))
	require.NoError(t, c.Init(obj))
	buildShaders(obj)
	obj.Params.Settle()
	return c, obj, rec
}

func TestInitDeclaresAndResets(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)

	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, "acme-test", obj.Info.CanonicalName)
	assert.Equal(t, fx.Counts{Params: 4, Shaders: 2}, obj.Counts())
	assert.False(t, obj.Failed())
	assert.ElementsMatch(t, []int{pRed, pZoom, pMode}, e.applied, "implicit reset skips suppressed trigger")
	assert.Zero(t, e.fired)

	err := c.Init(obj)
	assert.ErrorIs(t, err, ErrState, "second Init")
}

func TestResetProperty(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)

	obj.Params.Get(pRed).HostSetValue(80)
	obj.Params.Get(pZoom).HostNudge(40)
	require.NoError(t, c.Update())
	obj.Params.Settle()

	require.NoError(t, c.Reset())
	for i, rec := range obj.Params.All() {
		assert.Equal(t, rec.Default(), rec.Current(), "slot %d", i)
		if i == pFire {
			continue
		}
		assert.True(t, rec.Update().Pending(), "slot %d echoed", i)
	}
	assert.True(t, obj.Params.Get(pZoom).Reset().Pending())
	assert.False(t, obj.Params.Get(pRed).Reset().Pending())
	assert.Equal(t, float32(1), e.zoom)

	obj.Params.Settle()
	assert.Empty(t, obj.Params.Pending())
}

func TestUpdateNormalizedScenario(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)

	obj.Params.Get(pRed).HostSetValue(42)
	require.NoError(t, c.Update())

	assert.InDelta(t, 0.42, e.red, 1e-12)
	assert.False(t, obj.Params.Get(pRed).Update().Pending())
}

func TestUpdateIdempotent(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)

	obj.Params.Get(pZoom).HostNudge(50)
	require.NoError(t, c.Update())
	zoom := e.zoom
	e.applied = nil

	require.NoError(t, c.Update())
	require.NoError(t, c.Update())
	assert.Equal(t, zoom, e.zoom)
	assert.Empty(t, e.applied, "records not pending are not touched")
}

func TestUpdateEchoes(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)

	obj.Params.Get(pMode).HostSetValue(2)
	require.NoError(t, c.Update())

	mode := obj.Params.Get(pMode)
	assert.True(t, mode.Update().Pending(), "plugin echoed")
	assert.Equal(t, "Wild", mode.DisplayValue())
	assert.Equal(t, []int{pMode}, obj.Params.TakeDisplayChanges())

	obj.Params.Settle()
	assert.False(t, mode.Update().Pending())
}

func TestRandomize(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)

	require.NoError(t, c.Randomize())
	for i, rec := range obj.Params.All() {
		assert.GreaterOrEqual(t, rec.Current(), rec.Min(), "slot %d", i)
		assert.LessOrEqual(t, rec.Current(), rec.Max(), "slot %d", i)
	}
	assert.True(t, obj.Params.Get(pRed).Update().Pending(), "echoed inside the envelope")
	assert.Zero(t, obj.Params.Get(pZoom).Delta(), "benders are not randomized")

	// same seed, same values
	e2 := newTestEffect()
	c2, obj2, _ := newStarted(t, e2)
	require.NoError(t, c2.Randomize())
	assert.Equal(t, obj.Params.Values(), obj2.Params.Values())
}

func TestDefaultRandom(t *testing.T) {
	store := param.NewStore()
	_, err := store.Add(param.BenderParameter("b").Build())
	require.NoError(t, err)
	_, err = store.Add(param.RangeParameter("r", 5, 5, 5).Build())
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	_, ok := DefaultRandom(store.Get(0), rng)
	assert.False(t, ok)
	v, ok := DefaultRandom(store.Get(1), rng)
	assert.True(t, ok)
	assert.Equal(t, int64(5), v)
}

func TestStateRoundTrip(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)

	obj.Params.Get(pRed).HostSetValue(66)
	obj.Params.Get(pMode).HostSetValue(1)
	require.NoError(t, c.Update())
	obj.Params.Settle()

	require.NoError(t, c.GetState())
	blob := obj.State
	require.NotNil(t, blob)
	assert.Equal(t, 1, blob.Version())
	want := obj.Params.Values()

	fresh := newTestEffect()
	c2, obj2, _ := newStarted(t, fresh)
	fresh.applied = nil
	assert.True(t, c2.SetState(blob))
	assert.Equal(t, want, obj2.Params.Values())
	assert.InDelta(t, 0.66, fresh.red, 1e-12)
	assert.NotContains(t, fresh.applied, pFire, "suppressed on restore")
	assert.False(t, obj2.Params.Get(pRed).Update().Pending(), "no force echo on restore")
	assert.True(t, obj2.Params.Get(pMode).Update().Pending(), "plugin echo still honoured")
	assert.Equal(t, want, obj.Params.Values(), "source unchanged")
}

func TestSetStateUnknownVersion(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)
	obj.Params.Get(pRed).HostSetValue(12)
	require.NoError(t, c.Update())

	before := obj.Params.Values()
	pending := obj.Params.Pending()
	w := state.NewWriter()
	w.Uint32(4)
	data, err := w.Bytes()
	require.NoError(t, err)
	blob := state.NewBlob(7, data)
	raw := blob.Borrow().CopyBytes()

	assert.False(t, c.SetState(blob))
	assert.False(t, c.SetState(nil))
	assert.Equal(t, before, obj.Params.Values(), "records untouched")
	assert.Equal(t, pending, obj.Params.Pending())
	assert.Equal(t, raw, blob.Borrow().CopyBytes(), "blob untouched")
}

func TestProcessRenders(t *testing.T) {
	e := newTestEffect()
	c, obj, rec := newStarted(t, e)

	obj.Transport.CurTime = timing.FromNanos(int64(1e9))
	require.NoError(t, c.Process())
	assert.False(t, obj.Bypass)
	assert.Equal(t, 1, e.frames)
	assert.Equal(t, 1, rec.Count("DrawQuad"))
	assert.Equal(t, 1, rec.Count("UseProgram"))
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestProcessBypassesOnError(t *testing.T) {
	e := newTestEffect()
	c, obj, rec := newStarted(t, e)

	obj.SetError("host says no")
	rec.Reset()
	require.NoError(t, c.Process())
	assert.True(t, obj.Bypass)
	assert.Empty(t, rec.Ops(), "no device calls")
	assert.Zero(t, e.frames)
}

func TestPreconditionRecovery(t *testing.T) {
	e := newTestEffect()
	c, obj, rec := newStarted(t, e)

	require.NoError(t, obj.Sources.Clear(source.SlotInput))
	_ = obj.Sources.Update(source.SlotInput, func(en *source.Entry) { en.Width, en.Height = 640, 360 })
	rec.Reset()
	require.NoError(t, c.Process())
	assert.True(t, obj.Bypass)
	assert.True(t, obj.Failed())
	assert.Contains(t, obj.ErrorMessage(), "input texture")
	assert.Empty(t, rec.Ops())

	require.NoError(t, c.Update())
	assert.True(t, obj.Failed(), "still missing")

	require.NoError(t, obj.Sources.Update(source.SlotInput, func(en *source.Entry) { en.Texture = 9 }))
	require.NoError(t, c.Update())
	assert.False(t, obj.Failed(), "cleared once the handle is back")
	require.NoError(t, c.Process())
	assert.False(t, obj.Bypass)
}

func TestPreconditionShaderCompile(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)
	obj.Shaders.Get(0).CompileFailed = true

	require.NoError(t, c.Process())
	assert.True(t, obj.Bypass)
	assert.Contains(t, obj.ErrorMessage(), "compile")
}

func TestSourcePluginNeedsNoInput(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)
	require.NoError(t, obj.Sources.Clear(source.SlotInput))

	require.NoError(t, c.Process())
	assert.False(t, obj.Bypass, "zero dimensions mean the plugin is the source")
}

func TestMixerOutsideBusBypasses(t *testing.T) {
	e := newTestEffect()
	e.info.Type = fx.TypeMixer
	c, obj, _ := newStarted(t, e)

	require.NoError(t, c.Process())
	assert.True(t, obj.Bypass)
	assert.False(t, obj.Failed())

	require.NoError(t, obj.Sources.Set(source.BusA.OutputSlot(), source.Entry{Texture: 4}))
	require.NoError(t, c.Process())
	assert.False(t, obj.Bypass)
}

func TestRenderFailures(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		e := newTestEffect()
		c, obj, _ := newStarted(t, e)
		e.renderErr = errors.New("bad frame")

		require.NoError(t, c.Process())
		assert.True(t, obj.Bypass)
		assert.Equal(t, "bad frame", obj.ErrorMessage())

		e.renderErr = nil
		require.NoError(t, c.Update())
		assert.True(t, obj.Failed(), "render errors stay until reset")
		require.NoError(t, c.Reset())
		assert.False(t, obj.Failed())
	})

	t.Run("panic", func(t *testing.T) {
		e := newTestEffect()
		c, obj, _ := newStarted(t, e)
		e.panicRender = true

		assert.NotPanics(t, func() { require.NoError(t, c.Process()) })
		assert.True(t, obj.Bypass)
		assert.Contains(t, obj.ErrorMessage(), "boom")
		assert.Equal(t, PhaseIdle, c.Phase())
	})
}

func TestInitFailure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *testEffect)
		want   error
	}{
		{"capacity", func(e *testEffect) { e.overDeclare = true }, param.ErrCapacity},
		{"info", func(e *testEffect) { e.info.Version = "latest" }, fx.ErrInvalidInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEffect()
			tt.mutate(e)
			rec := render.NewRecorder()
			obj := readyObject(rec)
			c := New(e)

			err := c.Init(obj)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, c.Failed())
			assert.True(t, obj.Failed())

			rec.Reset()
			require.NoError(t, c.Process())
			assert.True(t, obj.Bypass)
			assert.Empty(t, rec.Ops())
			assert.ErrorIs(t, c.Update(), ErrInitFailed)
			assert.False(t, c.SetState(state.NewBlob(1, nil)))
			require.NoError(t, c.Deinit())
		})
	}
}

func TestPhaseRules(t *testing.T) {
	c := New(newTestEffect())
	assert.Equal(t, PhaseConstructed, c.Phase())
	assert.Equal(t, "constructed", c.Phase().String())
	assert.ErrorIs(t, c.Process(), ErrState)
	assert.ErrorIs(t, c.Reset(), ErrState)
	assert.ErrorIs(t, c.GetState(), ErrState)

	e := newTestEffect()
	c, _, _ = newStarted(t, e)
	require.NoError(t, c.Deinit())
	assert.True(t, e.released)
	assert.Equal(t, PhaseDeinitialized, c.Phase())
	assert.ErrorIs(t, c.Process(), ErrState)
	assert.ErrorIs(t, c.Deinit(), ErrState)
	assert.Equal(t, "deinitialized", c.Phase().String())
}

func TestStartEdgeAndBeats(t *testing.T) {
	e := newTestEffect()
	e.division = 2
	c, obj, _ := newStarted(t, e)

	now := timing.FromNanos(5_000_000_000)
	obj.Transport.CurTime = now
	obj.Transport.BPM = 120
	require.NoError(t, obj.Sources.Update(source.SlotInput, func(en *source.Entry) {
		en.EffectStartTimestamp = float64(now.Nanos())
	}))

	require.NoError(t, c.Process())
	assert.Equal(t, 1, e.starts)

	obj.Transport.CurTime = timing.FromNanos(5_040_000_000)
	obj.Transport.SubBeatCount = 64
	require.NoError(t, c.Process())
	assert.Equal(t, 1, e.starts, "edge fires once")
	assert.Equal(t, 1, e.hits)

	obj.Transport.SubBeatCount = 70
	require.NoError(t, c.Process())
	assert.Equal(t, 1, e.hits)
}

func TestStartEdgeAtWallClock(t *testing.T) {
	e := newTestEffect()
	c, obj, _ := newStarted(t, e)

	now := timing.FromNanos(1_760_000_000_123_456_789)
	obj.Transport.CurTime = now
	require.NoError(t, obj.Sources.Update(source.SlotInput, func(en *source.Entry) {
		en.EffectStartTimestamp = float64(now.Nanos())
	}))

	require.NoError(t, c.Process())
	assert.Equal(t, 1, e.starts)

	obj.Transport.CurTime = timing.FromNanos(now.Nanos() + 40_000_000)
	require.NoError(t, c.Process())
	assert.Equal(t, 1, e.starts)
}

func TestSetStateIgnoresStaleResets(t *testing.T) {
	e := newTestEffect()
	obj := readyObject(render.NewRecorder())
	c := New(e, WithSeed(1))
	require.NoError(t, c.Init(obj))
	require.True(t, obj.Params.Get(pZoom).Reset().Pending(), "reset envelope echoes")

	require.NoError(t, c.GetState())
	e.zoom = 0.5
	require.True(t, c.SetState(obj.State))
	assert.Equal(t, float32(0.5), e.zoom)
	assert.False(t, obj.Params.Get(pZoom).Reset().Pending())
}
