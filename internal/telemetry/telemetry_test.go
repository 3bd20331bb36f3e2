package telemetry

import (
	"context"
	"testing"

	"github.com/schemarpc/gateway/internal/dispatch"
	"github.com/schemarpc/gateway/internal/schema"
	"github.com/schemarpc/gateway/internal/types"
)

// TestInstrumentedDispatch verifies the hook is installed and dispatch still
// completes against the no-op global providers.
func TestInstrumentedDispatch(t *testing.T) {
	doc, err := schema.FromJSON([]byte(`{"typeTable":{},"functionTable":{"ping":{"args":{},"ret":"bool"}}}`))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	d := dispatch.New(doc, schema.Passthrough, schema.Passthrough, nil)
	d.Register("ping", func(ctx context.Context, req *types.CanonicalRequest, args any) (any, error) {
		return true, nil
	})
	Instrument(d, DefaultConfig())

	reply := d.Dispatch(context.Background(), &types.CanonicalRequest{
		Version:   types.Version3,
		RequestID: "r1",
		Name:      "ping",
		Args:      map[string]any{},
		SourceIP:  "203.0.113.1",
	})
	if !reply.OK() || reply.Result != true {
		t.Errorf("reply = %+v", reply)
	}

	// Failure path ends the span with an error status; must not panic.
	reply = d.Dispatch(context.Background(), &types.CanonicalRequest{
		Version:   types.Version3,
		RequestID: "r2",
		Name:      "missing",
		Args:      map[string]any{},
		SourceIP:  "203.0.113.1",
	})
	if reply.Error == nil || reply.Error.Type != types.FatalError {
		t.Errorf("reply = %+v, want fatal", reply)
	}
}
