package dispatch

import (
	"context"

	"github.com/schemarpc/gateway/internal/types"
)

// Decision is the outcome of the pre-call hook: either proceed with the
// normal decode/invoke/encode path, or short-circuit with a finished reply.
// Modeled as an explicit value rather than a nullable reply so the
// control-flow is visible at the call site.
type Decision struct {
	reply *types.CanonicalReply
}

// Proceed continues with normal dispatch.
func Proceed() Decision {
	return Decision{}
}

// ShortCircuit finishes the call with the given reply; decode, the
// implementation, and encode are all skipped.
func ShortCircuit(reply *types.CanonicalReply) Decision {
	return Decision{reply: reply}
}

// ShortCircuited returns the short-circuit reply, if any.
func (d Decision) ShortCircuited() (*types.CanonicalReply, bool) {
	return d.reply, d.reply != nil
}

// Hooks is the caller-supplied extension surface. Implementations must be
// safe for concurrent use; the transport dispatches calls concurrently.
type Hooks interface {
	// OnHealthCheck answers the transport's health probe.
	OnHealthCheck(ctx context.Context) bool

	// OnRequestStart runs before argument decoding on every known call.
	// It may short-circuit with a finished reply (authentication, rate
	// limiting). It never observes unknown calls.
	OnRequestStart(ctx context.Context, req *types.CanonicalRequest) (Decision, error)

	// OnRequestEnd runs after the reply is formed but before taxonomy
	// enforcement. A non-nil return replaces the reply.
	OnRequestEnd(ctx context.Context, req *types.CanonicalRequest, reply *types.CanonicalReply) (*types.CanonicalReply, error)
}

// NopHooks is the default Hooks implementation: healthy, no interception.
type NopHooks struct{}

func (NopHooks) OnHealthCheck(ctx context.Context) bool { return true }

func (NopHooks) OnRequestStart(ctx context.Context, req *types.CanonicalRequest) (Decision, error) {
	return Proceed(), nil
}

func (NopHooks) OnRequestEnd(ctx context.Context, req *types.CanonicalRequest, reply *types.CanonicalReply) (*types.CanonicalReply, error) {
	return nil, nil
}

// HookToken is an opaque value returned by OnDispatchStart and handed back to
// OnDispatchEnd. Only meaningful to the DispatchHook that created it.
type HookToken interface{}

// DispatchInfo carries call metadata to dispatch hooks.
type DispatchInfo struct {
	Call      string
	RequestID string
	Version   int
	SourceIP  string
}

// DispatchHook provides observability callpoints around dispatch, independent
// of the user-facing Hooks. Implementations must be safe for concurrent use.
type DispatchHook interface {
	OnDispatchStart(ctx context.Context, info DispatchInfo) (context.Context, HookToken)
	OnDispatchEnd(ctx context.Context, token HookToken, info DispatchInfo, callErr *types.CallError)
}
