package host

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	fxdebug "github.com/justyntemme/vfxgo/pkg/framework/debug"
	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/param"
	"github.com/justyntemme/vfxgo/pkg/framework/render"
	"github.com/justyntemme/vfxgo/pkg/framework/source"
	"github.com/justyntemme/vfxgo/pkg/framework/state"
	"github.com/justyntemme/vfxgo/pkg/framework/timing"
	"github.com/justyntemme/vfxgo/pkg/host/audio"
	"github.com/justyntemme/vfxgo/pkg/host/preset"
	"github.com/justyntemme/vfxgo/pkg/plugin"
)

// Instance is one loaded plugin. Its methods serialise on the instance, so
// a single instance may be driven from several goroutines.
type Instance struct {
	host   *Host
	module plugin.Module
	handle plugin.Handle
	id     uuid.UUID
	obj    *fx.Object
	log    *fxdebug.Logger
	prof   *fxdebug.FrameProfiler
	bands  *audio.Analyzer

	mu      sync.Mutex
	closed  bool
	shaders []string
	fbos    []render.Framebuffer
}

// FrameResult is the outcome of one Frame.
type FrameResult struct {
	Bypassed bool
	// Failed and Message mirror the plugin error flag.
	Failed  bool
	Message string
	// Repaint lists the parameter slots whose value or label the plugin echoed.
	Repaint []int
	// Err is set when a lifecycle call was refused.
	Err error
}

// ID returns the instance identifier.
func (i *Instance) ID() uuid.UUID { return i.id }

// Info returns what the plugin published at Init.
func (i *Instance) Info() fx.Info { return i.obj.Info }

// Profiler returns the Update and Process timings.
func (i *Instance) Profiler() *fxdebug.FrameProfiler { return i.prof }

// Object returns the shared object. It must not be touched while another
// goroutine drives the instance.
func (i *Instance) Object() *fx.Object { return i.obj }

func (i *Instance) hooked(ctx context.Context, call string, fn func() error) error {
	info := CallInfo{Call: call, Plugin: i.module.Info().CanonicalName, Instance: i.id.String()}
	ctx, token := i.host.hook.OnCallStart(ctx, info)
	err := fn()
	if call == "Process" {
		info.Bypassed = i.obj.Bypass
	}
	i.host.hook.OnCallEnd(ctx, token, info, err)
	return err
}

// lock takes the instance lock and fails on a closed instance.
func (i *Instance) lock() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return ErrClosed
	}
	return nil
}

func (i *Instance) record(index int) (*param.Record, error) {
	rec := i.obj.Params.Get(index)
	if rec == nil {
		return nil, fmt.Errorf("%w: %d", param.ErrIndex, index)
	}
	return rec, nil
}

// withParam runs fn on a parameter under the instance lock.
func (i *Instance) withParam(index int, fn func(r *param.Record)) error {
	if err := i.lock(); err != nil {
		return err
	}
	defer i.mu.Unlock()
	rec, err := i.record(index)
	if err != nil {
		return err
	}
	fn(rec)
	return nil
}

// ParamIndex returns the slot of the first parameter with the given name.
func (i *Instance) ParamIndex(name string) (int, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	rec, idx := i.obj.Params.ByName(name)
	return idx, rec != nil
}

// SetParam sets a parameter as if the user moved its control.
func (i *Instance) SetParam(index int, value int64) error {
	return i.withParam(index, func(r *param.Record) { r.HostSetValue(value) })
}

// SetText sets a text or file parameter.
func (i *Instance) SetText(index int, text string) error {
	return i.withParam(index, func(r *param.Record) { r.HostSetText(text) })
}

// Nudge moves a bender.
func (i *Instance) Nudge(index int, delta int64) error {
	return i.withParam(index, func(r *param.Record) { r.HostNudge(delta) })
}

// ResetParam asks the plugin to reset one parameter.
func (i *Instance) ResetParam(index int) error {
	return i.withParam(index, func(r *param.Record) { r.HostRequestReset() })
}

// SetTempo publishes the beat position.
func (i *Instance) SetTempo(bpm float32, bar uint32, subBeat float64) error {
	return i.withTransport(func(t *fx.Transport) {
		t.BPM, t.Bar, t.SubBeatCount = bpm, bar, subBeat
	})
}

// SetSpeed sets the global playback speed and direction. Zero pauses.
func (i *Instance) SetSpeed(speed float32, reverse bool) error {
	return i.withTransport(func(t *fx.Transport) {
		t.GlobalSpeed, t.GlobalReverse = speed, reverse
	})
}

// SetMix sets the dry/wet level.
func (i *Instance) SetMix(level float32) error {
	return i.withTransport(func(t *fx.Transport) { t.MixLevel = level })
}

func (i *Instance) withTransport(fn func(t *fx.Transport)) error {
	if err := i.lock(); err != nil {
		return err
	}
	defer i.mu.Unlock()
	fn(&i.obj.Transport)
	return nil
}

// StartEffect marks the effect as (re)started at the given time. The plugin
// sees the start on the frame rendered at exactly that time.
func (i *Instance) StartEffect(at timing.Timespec) error {
	return i.withSources(func(s *source.Table) error {
		return s.Update(source.SlotInput, func(e *source.Entry) {
			e.EffectStartTimestamp = float64(at.Nanos())
		})
	})
}

// SetSource publishes one source slot.
func (i *Instance) SetSource(slot int, e source.Entry) error {
	return i.withSources(func(s *source.Table) error { return s.Set(slot, e) })
}

// ClearSource marks a slot unavailable.
func (i *Instance) ClearSource(slot int) error {
	return i.withSources(func(s *source.Table) error { return s.Clear(slot) })
}

// ArrangeBus publishes a bus mix with its layers in render order.
func (i *Instance) ArrangeBus(b source.Bus, output source.Entry, renderOrder []source.Entry) error {
	return i.withSources(func(s *source.Table) error { return s.ArrangeBus(b, output, renderOrder) })
}

func (i *Instance) withSources(fn func(s *source.Table) error) error {
	if err := i.lock(); err != nil {
		return err
	}
	defer i.mu.Unlock()
	return fn(i.obj.Sources)
}

// SetAudio publishes the latest audio block, interleaved stereo. Samples
// beyond fx.MaxAudioSamples are dropped.
func (i *Instance) SetAudio(samples []int16, bands fx.Bands, at timing.Timespec) error {
	if err := i.lock(); err != nil {
		return err
	}
	defer i.mu.Unlock()
	i.setAudio(samples, bands, at)
	return nil
}

// FeedAudio publishes an audio block like SetAudio but derives the band
// triggers from the samples.
func (i *Instance) FeedAudio(samples []int16, at timing.Timespec) (fx.Bands, error) {
	if err := i.lock(); err != nil {
		return fx.Bands{}, err
	}
	defer i.mu.Unlock()
	bands := i.bands.Analyze(samples)
	i.setAudio(samples, bands, at)
	return bands, nil
}

func (i *Instance) setAudio(samples []int16, bands fx.Bands, at timing.Timespec) {
	n := min(len(samples), fx.MaxAudioSamples)
	a := &i.obj.Audio
	a.Samples = append(a.Samples[:0], samples[:n]...)
	a.Bands = bands
	a.Active = n > 0
	a.LastUpdate = at.Seconds()
}

// Frame runs Update and Process at time now, then settles the flags the
// plugin left for the host.
func (i *Instance) Frame(ctx context.Context, now timing.Timespec) FrameResult {
	if err := i.lock(); err != nil {
		return FrameResult{Err: err}
	}
	defer i.mu.Unlock()

	obj := i.obj
	obj.Transport.CurTime = now

	stop := i.prof.Start(fxdebug.SectionUpdate)
	err := i.hooked(ctx, "Update", func() error { return i.module.Update(i.handle) })
	stop()
	if err == nil {
		stop = i.prof.Start(fxdebug.SectionProcess)
		err = i.hooked(ctx, "Process", func() error { return i.module.Process(i.handle) })
		stop()
	}
	if err != nil {
		i.log.Warn("frame refused", "err", err)
	}
	return FrameResult{
		Bypassed: obj.Bypass,
		Failed:   obj.Failed(),
		Message:  obj.ErrorMessage(),
		Repaint:  i.settle(),
		Err:      err,
	}
}

// settle collects the slots to repaint and clears the plugin's echoes.
func (i *Instance) settle() []int {
	params := i.obj.Params
	repaint := append(params.Pending(), params.TakeDisplayChanges()...)
	params.Settle()
	slices.Sort(repaint)
	return slices.Compact(repaint)
}

// Reset restores every parameter to its default and returns the slots to repaint.
func (i *Instance) Reset(ctx context.Context) ([]int, error) {
	return i.envelope(ctx, "Reset", i.module.Reset)
}

// Randomize draws new parameter values and returns the slots to repaint.
func (i *Instance) Randomize(ctx context.Context) ([]int, error) {
	return i.envelope(ctx, "Randomize", i.module.Randomize)
}

func (i *Instance) envelope(ctx context.Context, call string, fn func(plugin.Handle) error) ([]int, error) {
	if err := i.lock(); err != nil {
		return nil, err
	}
	defer i.mu.Unlock()
	err := i.hooked(ctx, call, func() error { return fn(i.handle) })
	return i.settle(), err
}

// Snapshot asks the plugin for its state. The blob belongs to the caller.
func (i *Instance) Snapshot(ctx context.Context) (*state.Blob, error) {
	if err := i.lock(); err != nil {
		return nil, err
	}
	defer i.mu.Unlock()
	return i.snapshot(ctx)
}

func (i *Instance) snapshot(ctx context.Context) (*state.Blob, error) {
	if err := i.hooked(ctx, "GetState", func() error { return i.module.GetState(i.handle) }); err != nil {
		return nil, err
	}
	blob := i.obj.State
	i.obj.State = nil
	if blob == nil {
		return nil, errors.New("host: plugin returned no state")
	}
	return blob, nil
}

// Restore hands a saved state to the plugin. The caller keeps the blob.
func (i *Instance) Restore(ctx context.Context, blob *state.Blob) error {
	if err := i.lock(); err != nil {
		return err
	}
	defer i.mu.Unlock()
	return i.restore(ctx, blob)
}

// restore settles the plugin's echoes; the host repaints the whole panel after a restore.
func (i *Instance) restore(ctx context.Context, blob *state.Blob) error {
	err := i.hooked(ctx, "SetState", func() error {
		if !i.module.SetState(i.handle, blob) {
			return fmt.Errorf("%w: version %d", ErrStateRejected, blob.Version())
		}
		return nil
	})
	i.settle()
	return err
}

// SavePreset stores the current state under name.
func (i *Instance) SavePreset(ctx context.Context, name string) error {
	if i.host.presets == nil {
		return ErrNoPresets
	}
	if err := i.lock(); err != nil {
		return err
	}
	defer i.mu.Unlock()
	blob, err := i.snapshot(ctx)
	if err != nil {
		return err
	}
	return i.host.presets.Save(ctx, i.obj.Info, name, blob)
}

// LoadPreset restores a stored state.
func (i *Instance) LoadPreset(ctx context.Context, name string) (preset.Entry, error) {
	if i.host.presets == nil {
		return preset.Entry{}, ErrNoPresets
	}
	if err := i.lock(); err != nil {
		return preset.Entry{}, err
	}
	defer i.mu.Unlock()
	blob, entry, err := i.host.presets.Load(ctx, i.obj.Info, name)
	if err != nil {
		return entry, err
	}
	return entry, i.restore(ctx, blob)
}

// Close deinitializes the plugin and releases its shaders and framebuffers.
// Further calls return ErrClosed.
func (i *Instance) Close(ctx context.Context) error {
	if err := i.lock(); err != nil {
		return err
	}
	defer i.mu.Unlock()
	err := i.hooked(ctx, "Deinit", func() error { return i.module.Deinit(i.handle) })
	i.releaseResources()
	i.closed = true
	i.log.Info("closed")
	return err
}

func (i *Instance) withObject(fn func()) error {
	if err := i.lock(); err != nil {
		return err
	}
	defer i.mu.Unlock()
	fn()
	return nil
}

// outputEntry describes the output framebuffer as a source, keeping the
// timing fields of the entry it was drawn from.
func (i *Instance) outputEntry(from source.Entry) source.Entry {
	var out source.Entry
	_ = i.withObject(func() {
		o := i.obj.Output
		out = from
		out.Texture = o.Texture
		out.TX2, out.TY2 = 1, 1
		out.Width, out.Height = o.Width, o.Height
		out.Depth = 4
	})
	return out
}
