package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/timing"
	"github.com/justyntemme/vfxgo/pkg/host"
	"github.com/justyntemme/vfxgo/pkg/host/audio"
	"github.com/justyntemme/vfxgo/pkg/host/telemetry"
)

// subBeatsPerBeat follows the host's 4/4 sub-beat counter.
const subBeatsPerBeat = timing.SubBeatsPerBar / 4

type runOptions struct {
	frames    int
	chain     int
	fps       float64
	bpm       float32
	telemetry bool
	randomize bool
	sets      map[string]int64
	tone      float32
	toneDB    float32
}

func newRunCmd(a *app) *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the plugin through frames and print the profiler report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("fps") {
				a.cfg.Render.FPS = o.fps
			}
			if o.telemetry {
				a.cfg.Telemetry.Traces, a.cfg.Telemetry.Metrics = true, true
			}
			if err := a.validate(); err != nil {
				return err
			}
			return a.run(cmd, o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.frames, "frames", 100, "number of frames to render")
	f.IntVar(&o.chain, "chain", 1, fmt.Sprintf("instances of the plugin to chain, up to %d", host.MaxChain))
	f.Float64Var(&o.fps, "fps", 25, "frame rate, overrides the configuration")
	f.Float32Var(&o.bpm, "bpm", 120, "tempo the transport runs at")
	f.BoolVar(&o.telemetry, "telemetry", false, "write OpenTelemetry spans and metrics to stderr")
	f.BoolVar(&o.randomize, "randomize", false, "randomize the panel before the first frame")
	f.StringToInt64Var(&o.sets, "set", nil, "parameter values by name, e.g. --set Red=40")
	f.Float32Var(&o.tone, "tone", 0, "feed a sine of this frequency in Hz as the audio input")
	f.Float32Var(&o.toneDB, "tone-db", -6, "level of --tone in dB")
	return cmd
}

func (a *app) run(cmd *cobra.Command, o runOptions) error {
	if o.frames < 1 {
		return fmt.Errorf("--frames must be positive, got %d", o.frames)
	}
	if o.chain < 1 || o.chain > host.MaxChain {
		return fmt.Errorf("--chain must be between 1 and %d, got %d", host.MaxChain, o.chain)
	}
	ctx := cmd.Context()

	var opts []host.Option
	tc := a.cfg.Telemetry
	if tc.Traces || tc.Metrics {
		tcfg, shutdown, err := telemetry.SetupStdout(a.errOut, tc)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				a.log.Warn("telemetry shutdown", "err", err)
			}
		}()
		opts = append(opts, host.WithHook(telemetry.New(tcfg)))
	}

	s, err := a.open(ctx, opts...)
	if err != nil {
		return err
	}
	defer s.close(ctx)
	if err := s.extend(ctx, o.chain); err != nil {
		return err
	}
	inst := s.inst

	for k := range s.chain.Len() {
		link := s.chain.At(k)
		if o.randomize {
			if _, err := link.Randomize(ctx); err != nil {
				return err
			}
		}
		if err := applySets(link, o.sets); err != nil {
			return err
		}
	}

	frame := time.Duration(float64(time.Second) / a.cfg.Render.FPS)
	subPerFrame := float64(o.bpm) / 60 * subBeatsPerBeat * frame.Seconds()
	if err := s.each(func(i *host.Instance) error { return i.StartEffect(timing.FromNanos(int64(frame))) }); err != nil {
		return err
	}

	rate := a.cfg.Audio.SampleRate
	block := min(int(float64(rate)*frame.Seconds()), audio.Size)
	var phase float32

	bypassed, repaints, triggered := 0, 0, 0
	for n := 1; n <= o.frames; n++ {
		now := timing.FromNanos(int64(n) * int64(frame))
		if o.tone > 0 {
			var samples []int16
			samples, phase = audio.Tone(block, o.tone, o.toneDB, rate, phase)
			var heard bool
			err := s.each(func(i *host.Instance) error {
				bands, err := i.FeedAudio(samples, now)
				heard = heard || bands != (fx.Bands{})
				return err
			})
			if err != nil {
				return err
			}
			if heard {
				triggered++
			}
		}
		sub := float64(n) * subPerFrame
		bar := uint32(sub / timing.SubBeatsPerBar)
		err := s.each(func(i *host.Instance) error {
			return i.SetTempo(o.bpm, bar, math.Mod(sub, timing.SubBeatsPerBar))
		})
		if err != nil {
			return err
		}
		_, results := s.chain.Frame(ctx, s.entry, now)
		for pos, res := range results {
			if res.Err != nil {
				return res.Err
			}
			if res.Bypassed {
				bypassed++
				a.log.Debug("frame bypassed", "frame", n, "pos", pos, "message", res.Message)
			}
			repaints += len(res.Repaint)
		}
	}

	name := inst.Info().CanonicalName
	if o.chain > 1 {
		name = fmt.Sprintf("%s x%d", name, o.chain)
	}
	fmt.Fprintf(a.out, "%s: %d frames, %d bypassed, %d repaints, %d with audio triggers\n",
		name, o.frames, bypassed, repaints, triggered)
	fmt.Fprint(a.out, inst.Profiler().FrameReport())
	return nil
}
