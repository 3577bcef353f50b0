package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/param"
	fwplugin "github.com/justyntemme/vfxgo/pkg/framework/plugin"
	"github.com/justyntemme/vfxgo/pkg/framework/render"
	"github.com/justyntemme/vfxgo/pkg/framework/source"
	"github.com/justyntemme/vfxgo/pkg/framework/state"
)

type dimmer struct {
	*fwplugin.Base
	level float64
}

var dimmerInfo = fx.Info{Type: fx.TypeEffect, CanonicalName: "acme-dimmer", Version: "0.3.0"}

func newDimmer() fwplugin.Effect {
	return &dimmer{Base: fwplugin.NewBase(dimmerInfo, 1)}
}

func (d *dimmer) Declare(dc *fwplugin.Declarer) error {
	dc.Param(param.PercentParameter("Level", 100))
	return nil
}

func (d *dimmer) Apply(_ int, rec *param.Record) bool {
	d.level = rec.Normalized()
	return false
}

func readyObject() *fx.Object {
	obj := fx.New()
	obj.Device = render.NewRecorder()
	obj.Output.FBO = 1
	_ = obj.Sources.Set(source.SlotInput, source.Entry{Texture: 2, TX2: 1, TY2: 1, Width: 8, Height: 8})
	return obj
}

func TestModuleLifecycle(t *testing.T) {
	m := Export(newDimmer)
	assert.Equal(t, 9, m.QuerySchemaVersion())
	assert.Equal(t, "acme-dimmer", m.Info().CanonicalName)

	h := m.CreateInstance()
	require.NotZero(t, h)
	obj := readyObject()
	require.NoError(t, m.Init(h, obj))

	obj.Params.Get(0).HostSetValue(30)
	require.NoError(t, m.Update(h))
	require.NoError(t, m.Process(h))
	assert.False(t, obj.Bypass)

	require.NoError(t, m.GetState(h))
	blob := obj.State
	require.NotNil(t, blob)

	h2 := m.CreateInstance()
	assert.NotEqual(t, h, h2)
	obj2 := readyObject()
	require.NoError(t, m.Init(h2, obj2))
	assert.True(t, m.SetState(h2, blob))
	assert.Equal(t, int64(30), obj2.Params.Get(0).Current())

	require.NoError(t, m.Reset(h))
	assert.Equal(t, int64(100), obj.Params.Get(0).Current())
	require.NoError(t, m.Randomize(h))

	require.NoError(t, m.Deinit(h))
	assert.ErrorIs(t, m.Process(h), ErrUnknownHandle, "released")
	require.NoError(t, m.Deinit(h2))
	assert.Zero(t, m.(*module).reg.len())
}

func TestUnknownHandle(t *testing.T) {
	m := Export(newDimmer)
	for _, h := range []Handle{0, 77} {
		assert.ErrorIs(t, m.Init(h, fx.New()), ErrUnknownHandle)
		assert.ErrorIs(t, m.Reset(h), ErrUnknownHandle)
		assert.ErrorIs(t, m.Randomize(h), ErrUnknownHandle)
		assert.ErrorIs(t, m.Update(h), ErrUnknownHandle)
		assert.ErrorIs(t, m.Process(h), ErrUnknownHandle)
		assert.ErrorIs(t, m.GetState(h), ErrUnknownHandle)
		assert.False(t, m.SetState(h, state.NewBlob(1, nil)))
		assert.ErrorIs(t, m.Deinit(h), ErrUnknownHandle)
	}
}

func TestPanicsStayInside(t *testing.T) {
	calls := 0
	m := Export(func() fwplugin.Effect {
		calls++
		if calls > 1 {
			panic("factory exploded")
		}
		return newDimmer()
	})

	var h Handle
	assert.NotPanics(t, func() { h = m.CreateInstance() })
	assert.Zero(t, h)

	m = Export(newDimmer)
	h = m.CreateInstance()
	assert.NotPanics(t, func() {
		err := m.Init(h, nil)
		assert.ErrorIs(t, err, fwplugin.ErrState)
	})
}

func TestRegister(t *testing.T) {
	m := Export(func() fwplugin.Effect {
		info := dimmerInfo
		info.CanonicalName = "acme-register-test"
		return &dimmer{Base: fwplugin.NewBase(info, 1)}
	})
	// Base carries the info, so the module sees the renamed effect.
	Register(m)

	got, ok := Lookup("acme-register-test")
	require.True(t, ok)
	assert.Same(t, m, got)
	assert.Contains(t, Registered(), "acme-register-test")
	assert.Panics(t, func() { Register(m) })

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestConfigure(t *testing.T) {
	base := Export(newDimmer)
	randomLevel := func(m Module) int64 {
		h := m.CreateInstance()
		obj := readyObject()
		require.NoError(t, m.Init(h, obj))
		require.NoError(t, m.Randomize(h))
		defer m.Deinit(h)
		return obj.Params.Get(0).Current()
	}

	a := Configure(base, WithControllerOptions(fwplugin.WithSeed(7)))
	b := Configure(base, WithControllerOptions(fwplugin.WithSeed(7)))
	assert.NotSame(t, base, a)
	assert.Equal(t, randomLevel(a), randomLevel(b))
	assert.Equal(t, base.Info(), a.Info())
}
