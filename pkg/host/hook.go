package host

import "context"

// CallInfo describes one lifecycle call for hooks.
type CallInfo struct {
	// Call is the entry point name, e.g. "Process".
	Call     string
	Plugin   string
	Instance string
	// Bypassed is set on the end of a Process call that did not render.
	Bypassed bool
}

// HookToken is returned by OnCallStart and passed back to OnCallEnd. Only
// the hook that created it interprets it.
type HookToken any

// Hook observes lifecycle calls. Implementations must be safe for
// concurrent use since instances run independently.
type Hook interface {
	OnCallStart(ctx context.Context, info CallInfo) (context.Context, HookToken)
	OnCallEnd(ctx context.Context, token HookToken, info CallInfo, err error)
}

type nopHook struct{}

func (nopHook) OnCallStart(ctx context.Context, _ CallInfo) (context.Context, HookToken) {
	return ctx, nil
}

func (nopHook) OnCallEnd(context.Context, HookToken, CallInfo, error) {}
