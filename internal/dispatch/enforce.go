package dispatch

import (
	"slices"

	"github.com/schemarpc/gateway/internal/schema"
	"github.com/schemarpc/gateway/internal/types"
)

// Enforce cross-checks a reply's error type against the call's
// declared-throws set. An undeclared type is rewritten to the generic fatal
// category with the message preserved; calls with an empty declared set are
// unrestricted and pass every type through. Success replies are untouched.
func Enforce(call *schema.Call, reply *types.CanonicalReply) *types.CanonicalReply {
	if reply.Error == nil || len(call.Throws) == 0 {
		return reply
	}
	if slices.Contains(call.Throws, reply.Error.Type) {
		return reply
	}
	return &types.CanonicalReply{
		Error: &types.CallError{
			Type:    types.FatalError,
			Message: reply.Error.Message,
		},
	}
}
