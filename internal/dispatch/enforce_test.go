package dispatch

import (
	"testing"

	"github.com/schemarpc/gateway/internal/schema"
	"github.com/schemarpc/gateway/internal/types"
)

// TestEnforce verifies the declared-throws cross-check in isolation.
func TestEnforce(t *testing.T) {
	restricted := &schema.Call{Name: "f", Throws: []string{"NotFound", "Denied"}}
	unrestricted := &schema.Call{Name: "g"}

	cases := []struct {
		name     string
		call     *schema.Call
		reply    *types.CanonicalReply
		wantType string
	}{
		{"success untouched", restricted, types.ResultReply(1), ""},
		{"declared kept", restricted, types.ErrorReply("NotFound", "m"), "NotFound"},
		{"second declared kept", restricted, types.ErrorReply("Denied", "m"), "Denied"},
		{"undeclared downgraded", restricted, types.ErrorReply("Other", "m"), types.FatalError},
		{"fatal stays fatal", restricted, types.ErrorReply(types.FatalError, "m"), types.FatalError},
		{"unrestricted passes anything", unrestricted, types.ErrorReply("Other", "m"), "Other"},
	}
	for _, c := range cases {
		got := Enforce(c.call, c.reply)
		if c.wantType == "" {
			if got.Error != nil {
				t.Errorf("%s: error = %+v, want nil", c.name, got.Error)
			}
			continue
		}
		if got.Error == nil || got.Error.Type != c.wantType {
			t.Errorf("%s: error = %+v, want type %s", c.name, got.Error, c.wantType)
		}
		if got.Error.Message != "m" {
			t.Errorf("%s: message = %q, want preserved", c.name, got.Error.Message)
		}
	}
}
