// Package dispatch resolves a canonical request against the compiled schema,
// runs the hook pipeline around the call implementation, and enforces the
// declared error contract on the way out.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/schemarpc/gateway/internal/schema"
	"github.com/schemarpc/gateway/internal/types"
)

// Implementation is the in-process function backing one call. args is the
// codec-decoded argument value; the returned value is encoded against the
// call's declared return type before transmission.
type Implementation func(ctx context.Context, req *types.CanonicalRequest, args any) (any, error)

// Dispatcher owns the call lifecycle between normalization and response
// encoding. Implementations are registered at startup; the maps are read-only
// while serving.
type Dispatcher struct {
	schema schema.Provider
	decode schema.DecodeFunc
	encode schema.EncodeFunc
	hooks  Hooks
	hook   DispatchHook
	impls  map[string]Implementation
}

// New creates a dispatcher over the given schema and codec functions.
func New(provider schema.Provider, decode schema.DecodeFunc, encode schema.EncodeFunc, hooks Hooks) *Dispatcher {
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Dispatcher{
		schema: provider,
		decode: decode,
		encode: encode,
		hooks:  hooks,
		impls:  make(map[string]Implementation),
	}
}

// Register binds an implementation to a call name.
func (d *Dispatcher) Register(name string, fn Implementation) {
	d.impls[name] = fn
}

// SetDispatchHook installs an instrumentation hook. Must be called before
// serving begins.
func (d *Dispatcher) SetDispatchHook(h DispatchHook) {
	d.hook = h
}

// Schema returns the dispatcher's interface description provider.
func (d *Dispatcher) Schema() schema.Provider {
	return d.schema
}

// Hooks returns the caller-supplied hook set.
func (d *Dispatcher) Hooks() Hooks {
	return d.hooks
}

// Dispatch runs one call to completion and always returns a reply; no
// failure in hooks, codec or implementation ever propagates out. The
// returned reply is already taxonomy-enforced.
func (d *Dispatcher) Dispatch(ctx context.Context, req *types.CanonicalRequest) *types.CanonicalReply {
	info := DispatchInfo{
		Call:      req.Name,
		RequestID: req.RequestID,
		Version:   req.Version,
		SourceIP:  req.SourceIP,
	}
	var token HookToken
	if d.hook != nil {
		ctx, token = d.hook.OnDispatchStart(ctx, info)
	}

	call, known := d.schema.LookupCall(req.Name)
	impl, implemented := d.impls[req.Name]

	var reply *types.CanonicalReply
	if !known || !implemented {
		// Resolved before any hook runs: hooks never observe unknown
		// calls.
		slog.Warn("unknown call", "name", req.Name, "requestId", req.RequestID)
		reply = types.ErrorReply(types.FatalError, fmt.Sprintf("function %q does not exist", req.Name))
	} else {
		reply = d.run(ctx, call, impl, req)
		if reply.Error != nil {
			slog.Debug("call failed", "name", req.Name, "requestId", req.RequestID,
				"errorType", reply.Error.Type, "error", reply.Error.Message)
		}
		reply = Enforce(call, reply)
	}

	if d.hook != nil {
		d.hook.OnDispatchEnd(ctx, token, info, reply.Error)
	}
	return reply
}

// run executes the hook pipeline and the decode/invoke/encode path for a
// known call, converting every failure into an error reply.
func (d *Dispatcher) run(ctx context.Context, call *schema.Call, impl Implementation, req *types.CanonicalRequest) (reply *types.CanonicalReply) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in call", "name", req.Name, "requestId", req.RequestID, "panic", r)
			reply = types.ErrorReply(types.FatalError, fmt.Sprint(r))
		}
	}()

	decision, err := d.hooks.OnRequestStart(ctx, req)
	if err != nil {
		return errorReplyFrom(err)
	}
	if short, ok := decision.ShortCircuited(); ok {
		reply = short
	} else {
		reply = d.invoke(ctx, call, impl, req)
	}

	replacement, err := d.hooks.OnRequestEnd(ctx, req, reply)
	if err != nil {
		return errorReplyFrom(err)
	}
	if replacement != nil {
		reply = replacement
	}
	return reply
}

// invoke is the decode → implementation → encode leg.
func (d *Dispatcher) invoke(ctx context.Context, call *schema.Call, impl Implementation, req *types.CanonicalRequest) *types.CanonicalReply {
	args, err := d.decode(d.schema.TypeTable(), call.Name+".args", call.Args, req.Args)
	if err != nil {
		return errorReplyFrom(err)
	}

	result, err := impl(ctx, req, args)
	if err != nil {
		return errorReplyFrom(err)
	}

	encoded, err := d.encode(d.schema.TypeTable(), call.Name+".ret", call.Ret, result)
	if err != nil {
		return errorReplyFrom(err)
	}
	return types.ResultReply(encoded)
}

// errorReplyFrom maps a Go error to a typed error reply. A *types.CallError
// keeps its type; anything else is the generic fatal category.
func errorReplyFrom(err error) *types.CanonicalReply {
	var ce *types.CallError
	if errors.As(err, &ce) {
		return &types.CanonicalReply{Error: &types.CallError{Type: ce.Type, Message: ce.Message}}
	}
	return types.ErrorReply(types.FatalError, err.Error())
}
