package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/justyntemme/vfxgo/pkg/framework/source"
	"github.com/justyntemme/vfxgo/pkg/framework/timing"
)

// MaxChain is the most instances a chain holds.
const MaxChain = 8

// ErrChainFull is returned by Add on a chain of MaxChain instances.
var ErrChainFull = errors.New("host: chain full")

// Chain runs instances in order. Each one renders from the output of the
// one before it; a bypassed or failed instance passes its input through.
type Chain struct {
	name   string
	insts  []*Instance
	bypass bool
}

// NewChain creates an empty chain.
func NewChain(name string) *Chain {
	return &Chain{name: name}
}

// Name returns the chain name.
func (c *Chain) Name() string { return c.name }

// Add appends an instance and tells it its position.
func (c *Chain) Add(inst *Instance) error {
	if len(c.insts) == MaxChain {
		return fmt.Errorf("%w: %s holds %d", ErrChainFull, c.name, MaxChain)
	}
	pos := int32(len(c.insts))
	err := inst.withObject(func() { inst.obj.Transport.SequencePos = pos })
	if err != nil {
		return err
	}
	c.insts = append(c.insts, inst)
	return nil
}

// Len returns the number of instances.
func (c *Chain) Len() int { return len(c.insts) }

// At returns the instance at position pos.
func (c *Chain) At(pos int) *Instance { return c.insts[pos] }

// SetBypass makes Frame return its input untouched.
func (c *Chain) SetBypass(bypass bool) { c.bypass = bypass }

// Frame renders one frame through every instance and returns the entry the
// last active instance drew into, plus each instance's result.
func (c *Chain) Frame(ctx context.Context, input source.Entry, now timing.Timespec) (source.Entry, []FrameResult) {
	if c.bypass {
		return input, nil
	}
	entry := input
	results := make([]FrameResult, len(c.insts))
	for k, inst := range c.insts {
		if err := inst.SetSource(source.SlotInput, entry); err != nil {
			results[k] = FrameResult{Err: err}
			continue
		}
		res := inst.Frame(ctx, now)
		results[k] = res
		if res.Err == nil && !res.Bypassed && !res.Failed {
			entry = inst.outputEntry(entry)
		}
	}
	return entry, results
}

// Close closes every instance in reverse order.
func (c *Chain) Close(ctx context.Context) error {
	var errs []error
	for k := len(c.insts) - 1; k >= 0; k-- {
		if err := c.insts[k].Close(ctx); err != nil && !errors.Is(err, ErrClosed) {
			errs = append(errs, err)
		}
	}
	c.insts = nil
	return errors.Join(errs...)
}
