// Package plugin runs an Effect under the host/plugin lifecycle protocol.
package plugin

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"time"

	fxdebug "github.com/justyntemme/vfxgo/pkg/framework/debug"
	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/param"
	"github.com/justyntemme/vfxgo/pkg/framework/process"
	"github.com/justyntemme/vfxgo/pkg/framework/shader"
	"github.com/justyntemme/vfxgo/pkg/framework/state"
	"github.com/justyntemme/vfxgo/pkg/framework/timing"
)

var (
	// ErrState is returned for a call the current phase does not allow.
	ErrState = errors.New("plugin: call not allowed in this phase")
	// ErrInitFailed is returned by calls on an instance whose Init failed.
	ErrInitFailed = errors.New("plugin: init failed")
	// ErrMissingHandle means a texture, framebuffer or program the frame needs is absent.
	ErrMissingHandle = errors.New("plugin: missing render handle")
	// ErrShaderCompile means the host could not build a declared shader.
	ErrShaderCompile = errors.New("plugin: shader failed to compile")
	// ErrPanic wraps a recovered panic from effect code.
	ErrPanic = errors.New("plugin: effect panicked")
)

// Phase is the lifecycle position of a Controller.
type Phase int

const (
	// PhaseConstructed is the start phase, before Init.
	PhaseConstructed Phase = iota
	// PhaseInitialized is held only while Init runs the effect's declarations.
	PhaseInitialized
	PhaseIdle
	PhaseUpdating
	PhaseProcessing
	PhaseDeinitialized
)

var phaseNames = [...]string{"constructed", "initialized", "idle", "updating", "processing", "deinitialized"}

// String returns the phase name.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards.
func WithLogger(l *fxdebug.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithSeed makes Randomize reproducible.
func WithSeed(seed uint64) Option {
	return func(c *Controller) { c.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithFPS sets the frame clock rate.
func WithFPS(fps float64) Option {
	return func(c *Controller) { c.clock.SetFPS(fps) }
}

// WithProfiler times Update and Process.
func WithProfiler(p *fxdebug.FrameProfiler) Option {
	return func(c *Controller) { c.prof = p }
}

// Controller drives one effect instance. Calls must not overlap; the host
// serialises them per instance.
type Controller struct {
	effect Effect
	obj    *fx.Object
	phase  Phase

	// failed is set when Init failed. The instance only ever bypasses.
	failed bool
	// envelope is set while Reset or Randomize run Update. Every consumed
	// flag is echoed so the host repaints the whole panel.
	envelope bool
	// precondition is set when the error flag was raised by a missing
	// handle or failed shader, which Update may clear again.
	precondition bool

	rng   *rand.Rand
	clock *timing.Clock
	beat  *timing.BeatClock

	firstFrame bool
	ratioX     float32
	ratioY     float32
	lastStart  float64

	log  *fxdebug.Logger
	prof *fxdebug.FrameProfiler
}

// New wraps an effect. The controller starts Constructed.
func New(effect Effect, opts ...Option) *Controller {
	c := &Controller{
		effect: effect,
		phase:  PhaseConstructed,
		clock:  timing.NewClock(timing.DefaultFPS),
		beat:   timing.NewBeatClock(0),
		log:    fxdebug.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		seed := uint64(time.Now().UnixNano())
		c.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return c
}

// Phase returns the lifecycle phase.
func (c *Controller) Phase() Phase { return c.phase }

// Failed reports whether Init failed.
func (c *Controller) Failed() bool { return c.failed }

// Object returns the bound object, nil before Init.
func (c *Controller) Object() *fx.Object { return c.obj }

// Effect returns the wrapped effect.
func (c *Controller) Effect() Effect { return c.effect }

func (c *Controller) refuse(call string) error {
	err := fmt.Errorf("%w: %s while %s", ErrState, call, c.phase)
	c.log.Warn("illegal call", "call", call, "phase", c.phase.String())
	return err
}

// ready checks that the instance may take a call outside Init and Deinit.
func (c *Controller) ready(call string) error {
	if c.phase != PhaseIdle {
		return c.refuse(call)
	}
	if c.failed {
		return ErrInitFailed
	}
	return nil
}

// guard runs fn and turns a panic into an error.
func (c *Controller) guard(call string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w in %s: %v", ErrPanic, call, r)
			c.log.Error("effect panic", "call", call, "panic", r, "stack", string(debug.Stack()))
			if c.obj != nil {
				c.obj.SetError(err.Error())
				c.obj.Bypass = true
			}
		}
	}()
	return fn()
}

// Init binds obj, publishes the effect's info and declarations, and runs
// one Reset. On failure the error flag is raised and the instance bypasses
// from then on.
func (c *Controller) Init(obj *fx.Object) error {
	if c.phase != PhaseConstructed {
		return c.refuse("Init")
	}
	if obj == nil {
		return fmt.Errorf("%w: nil object", ErrState)
	}
	c.obj = obj
	c.phase = PhaseInitialized

	err := c.guard("Init", func() error {
		info := c.effect.Info()
		if err := info.Validate(); err != nil {
			return err
		}
		obj.Info = info
		c.log = c.log.With("plugin", info.CanonicalName)

		d := newDeclarer(obj)
		if err := c.effect.Declare(d); err != nil {
			return err
		}
		if err := d.Err(); err != nil {
			return err
		}
		if in, ok := c.effect.(Initializer); ok {
			return in.Init(obj)
		}
		return nil
	})
	if err != nil {
		c.failed = true
		c.phase = PhaseIdle
		obj.SetError(err.Error())
		obj.Bypass = true
		c.log.Error("init failed", "err", err)
		return fmt.Errorf("init: %w", err)
	}

	obj.ClearError()
	c.clock.Start(obj.Transport.CurTime)
	c.firstFrame = true
	c.phase = PhaseIdle
	counts := obj.Counts()
	c.log.Info("initialized", "params", counts.Params, "shaders", counts.Shaders, "buffers", counts.Buffers)
	return c.Reset()
}

// Reset restores every parameter to its default and lets the effect consume
// them with every flag echoed.
func (c *Controller) Reset() error {
	if err := c.ready("Reset"); err != nil {
		return err
	}
	return c.guard("Reset", func() error {
		if r, ok := c.effect.(Resetter); ok {
			r.OnReset()
		}
		c.clearRenderError()
		c.obj.Params.ApplyDefaults()
		c.suppress()
		c.envelope = true
		defer func() { c.envelope = false }()
		return c.update()
	})
}

// Randomize draws new values and lets the effect consume them with every
// flag echoed.
func (c *Controller) Randomize() error {
	if err := c.ready("Randomize"); err != nil {
		return err
	}
	return c.guard("Randomize", func() error {
		changed := c.obj.Params.ApplyRandom(c.randomFunc())
		c.log.Debug("randomized", "changed", changed)
		c.envelope = true
		defer func() { c.envelope = false }()
		return c.update()
	})
}

func (c *Controller) randomFunc() param.RandomFunc {
	if r, ok := c.effect.(Randomizer); ok {
		return func(i int, rec *param.Record) (int64, bool) {
			return r.Random(i, rec, c.rng)
		}
	}
	return func(_ int, rec *param.Record) (int64, bool) {
		return DefaultRandom(rec, c.rng)
	}
}

func (c *Controller) suppress() {
	if s, ok := c.effect.(Suppressor); ok {
		c.obj.Params.Suppress(s.SuppressUpdates()...)
	}
}

// Update lets the effect consume every pending parameter.
func (c *Controller) Update() error {
	if err := c.ready("Update"); err != nil {
		return err
	}
	if c.prof != nil {
		defer c.prof.Start(fxdebug.SectionUpdate)()
	}
	c.phase = PhaseUpdating
	defer func() { c.phase = PhaseIdle }()
	return c.guard("Update", c.update)
}

func (c *Controller) update() error {
	params := c.obj.Params
	for _, i := range params.Pending() {
		rec := params.Get(i)
		echo := c.effect.Apply(i, rec) || c.envelope
		rec.Update().Consume(echo)
		if rec.Kind() == param.KindBender && rec.Reset().Pending() {
			rec.Reset().Consume(echo)
		}
	}
	if c.precondition && c.checkPreconditions() == nil {
		c.log.Info("render preconditions restored")
		c.clearRenderError()
	}
	return nil
}

func (c *Controller) clearRenderError() {
	c.precondition = false
	c.obj.ClearError()
}

// checkPreconditions verifies the handles a frame needs.
func (c *Controller) checkPreconditions() error {
	obj := c.obj
	if obj.Device == nil {
		return fmt.Errorf("%w: no device", ErrMissingHandle)
	}
	if !obj.Sources.SelfIsSource() && !obj.Sources.Primary().Available() {
		return fmt.Errorf("%w: input texture", ErrMissingHandle)
	}
	if obj.Output.FBO == 0 {
		return fmt.Errorf("%w: output framebuffer", ErrMissingHandle)
	}
	for _, d := range obj.Shaders.All() {
		if d.CompileFailed {
			return fmt.Errorf("%w: %s %q", ErrShaderCompile, d.Stage, d.Name())
		}
		if d.Stage == shader.StageProgram && d.ID == 0 {
			return fmt.Errorf("%w: program %q", ErrMissingHandle, d.Name())
		}
	}
	return nil
}

// Process renders one frame. With the error flag raised it only sets Bypass.
func (c *Controller) Process() error {
	if c.phase != PhaseIdle {
		return c.refuse("Process")
	}
	obj := c.obj
	if c.failed || obj.Failed() {
		obj.Bypass = true
		return nil
	}
	if err := c.checkPreconditions(); err != nil {
		c.precondition = true
		obj.SetError(err.Error())
		obj.Bypass = true
		c.log.Warn("bypassing frame", "err", err)
		return nil
	}
	if obj.Info.Type.Has(fx.TypeMixer) && !obj.InBusPosition() {
		obj.Bypass = true
		return nil
	}

	if c.prof != nil {
		defer c.prof.Start(fxdebug.SectionProcess)()
	}
	c.phase = PhaseProcessing
	defer func() { c.phase = PhaseIdle }()

	ctx := c.frame()
	err := c.guard("Process", func() error { return c.effect.Render(ctx) })
	if err != nil {
		obj.SetError(err.Error())
		obj.Bypass = true
		c.log.Error("render failed", "err", err)
		return nil
	}
	obj.Bypass = false
	return nil
}

// frame advances the clocks and builds the render context.
func (c *Controller) frame() *process.Context {
	obj := c.obj
	tr := obj.Transport
	ctx := process.NewContext(obj)
	ctx.Step = c.clock.Advance(tr.CurTime, float64(tr.GlobalSpeed), tr.GlobalReverse)

	if c.firstFrame {
		c.ratioX, c.ratioY = obj.DisplayRatio()
		ctx.FirstFrame = true
		c.firstFrame = false
	}
	ctx.DisplayRatioX, ctx.DisplayRatioY = c.ratioX, c.ratioY

	beat := tr.Beat()
	start := obj.Sources.Primary().EffectStartTimestamp
	if start != 0 && start != c.lastStart && start == float64(tr.CurTime.Nanos()) {
		c.lastStart = start
		c.beat.Restart(beat)
		ctx.Started = true
	}
	if bf, ok := c.effect.(BeatFollower); ok {
		if div := timing.Division(int64(bf.BeatDivision())); div != c.beat.Division() {
			c.beat.SetDivision(div, beat)
		}
	}
	ctx.Hit = c.beat.Observe(beat)
	return ctx
}

// GetState stores a snapshot in the object's state slot. The host takes it from there.
func (c *Controller) GetState() error {
	if err := c.ready("GetState"); err != nil {
		return err
	}
	var blob *state.Blob
	err := c.guard("GetState", func() error {
		var err error
		blob, err = c.effect.Snapshot(c.obj.Params)
		return err
	})
	if err != nil {
		c.log.Error("snapshot failed", "err", err)
		return fmt.Errorf("get state: %w", err)
	}
	c.obj.State = blob
	return nil
}

// SetState restores a snapshot the host saved earlier. It returns false and
// leaves the instance untouched when the effect cannot read the blob.
func (c *Controller) SetState(blob *state.Blob) bool {
	if c.ready("SetState") != nil || blob == nil {
		return false
	}
	err := c.guard("SetState", func() error {
		return c.effect.Restore(blob.Borrow(), c.obj.Params)
	})
	if err != nil {
		c.log.Warn("state rejected", "version", blob.Version(), "err", err)
		return false
	}
	c.clearRenderError()
	c.obj.Params.DropResets()
	c.obj.Params.MarkAllPending()
	c.suppress()
	if err := c.guard("SetState", c.update); err != nil {
		c.log.Error("update after restore failed", "err", err)
	}
	return true
}

// Deinit releases the effect's device objects. No call is allowed afterwards.
func (c *Controller) Deinit() error {
	switch c.phase {
	case PhaseIdle, PhaseConstructed:
	default:
		return c.refuse("Deinit")
	}
	if c.obj != nil {
		dev := c.obj.Device
		if err := c.guard("Deinit", func() error { c.effect.Release(dev); return nil }); err != nil {
			c.log.Error("release failed", "err", err)
		}
	}
	c.phase = PhaseDeinitialized
	c.log.Debug("deinitialized")
	return nil
}
