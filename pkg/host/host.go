// Package host drives effect plugins: it builds the shared object, resolves
// shaders and framebuffers through a render backend and runs the lifecycle
// one frame at a time.
package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/justyntemme/vfxgo/pkg/config"
	fxdebug "github.com/justyntemme/vfxgo/pkg/framework/debug"
	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/render"
	"github.com/justyntemme/vfxgo/pkg/framework/shader"
	"github.com/justyntemme/vfxgo/pkg/host/audio"
	"github.com/justyntemme/vfxgo/pkg/host/preset"
	"github.com/justyntemme/vfxgo/pkg/plugin"
)

var (
	// ErrSchemaVersion is returned for a module built against another object layout.
	ErrSchemaVersion = errors.New("host: schema version mismatch")
	// ErrClosed is returned by calls on a closed instance.
	ErrClosed = errors.New("host: instance closed")
	// ErrNoPresets is returned by preset calls when the host has no preset store.
	ErrNoPresets = errors.New("host: no preset store")
	// ErrStateRejected is returned when the plugin refuses a state blob.
	ErrStateRejected = errors.New("host: state rejected by plugin")
)

// Option configures a Host.
type Option func(*Host)

// WithHook installs a lifecycle hook.
func WithHook(h Hook) Option {
	return func(o *Host) { o.hook = h }
}

// WithLogger sets the host logger.
func WithLogger(l *fxdebug.Logger) Option {
	return func(o *Host) { o.log = l }
}

// WithPresets gives instances a preset store.
func WithPresets(s *preset.Store) Option {
	return func(o *Host) { o.presets = s }
}

// Host owns the render backend and the shader cache every instance shares.
type Host struct {
	cfg     config.Config
	backend render.Backend
	hook    Hook
	log     *fxdebug.Logger
	presets *preset.Store
	cache   *shader.Cache
}

// New creates a host. The built-in shaders are compiled up front.
func New(cfg config.Config, backend render.Backend, opts ...Option) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Host{
		cfg:     cfg,
		backend: backend,
		hook:    nopHook{},
		log:     fxdebug.Discard(),
		cache:   shader.NewCache(backend),
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := preloadBuiltins(h.cache); err != nil {
		return nil, fmt.Errorf("host: builtin shaders: %w", err)
	}
	return h, nil
}

// Config returns the host configuration.
func (h *Host) Config() config.Config { return h.cfg }

// Load creates an instance of a module and initializes it. When Init
// fails the instance is torn down again and the plugin's error returned.
func (h *Host) Load(ctx context.Context, m plugin.Module) (*Instance, error) {
	if v := m.QuerySchemaVersion(); v != fx.SchemaVersion {
		return nil, fmt.Errorf("%w: module %d, host %d", ErrSchemaVersion, v, fx.SchemaVersion)
	}
	info := m.Info()
	handle := m.CreateInstance()
	if handle == 0 {
		return nil, fmt.Errorf("host: %s: instance creation failed", info.CanonicalName)
	}

	inst := &Instance{
		host:   h,
		module: m,
		handle: handle,
		id:     uuid.New(),
		obj:    fx.New(),
		prof:   fxdebug.NewFrameProfiler(h.cfg.Render.FPS),
		bands: audio.NewAnalyzer(audio.Config{
			SampleRate:   h.cfg.Audio.SampleRate,
			ThresholdDB:  h.cfg.Audio.ThresholdDB,
			HysteresisDB: h.cfg.Audio.HysteresisDB,
		}),
	}
	inst.log = h.log.With("plugin", info.CanonicalName, "instance", inst.id.String())
	inst.setupObject()

	if err := inst.allocateStandard(); err != nil {
		inst.releaseResources()
		m.Deinit(handle)
		return nil, err
	}
	err := inst.hooked(ctx, "Init", func() error { return m.Init(handle, inst.obj) })
	if err != nil {
		inst.log.Error("init failed", "err", err, "message", inst.obj.ErrorMessage())
		inst.hooked(ctx, "Deinit", func() error { return m.Deinit(handle) })
		inst.releaseResources()
		return nil, fmt.Errorf("host: load %s: %w", info.CanonicalName, err)
	}

	inst.resolveShaders()
	inst.allocateRequested()
	inst.supplySpecialTextures()
	inst.obj.Params.Settle()
	inst.obj.Params.TakeDisplayChanges()
	inst.log.Info("loaded", "params", inst.obj.Params.Len(), "shaders", inst.obj.Shaders.Len())
	return inst, nil
}

// CachedShaders returns how many compiled shaders the cache holds.
func (h *Host) CachedShaders() int { return h.cache.Len() }
