// Package schema defines the read-only collaborator surface the gateway
// consumes: the compiled interface description produced by the external
// compiler, the value-level codec, and the stub generators. The gateway never
// mutates any of it.
package schema

import "encoding/json"

// Call is one entry of the compiled function table.
type Call struct {
	// Name is the call name as it appears on the wire.
	Name string

	// Args and Ret are opaque type descriptors, only meaningful to the
	// codec functions.
	Args any
	Ret  any

	// Throws is the declared-throws set: the error type names this call is
	// documented to be permitted to return. Empty means unrestricted.
	Throws []string
}

// Provider exposes the compiled interface description.
type Provider interface {
	// LookupCall returns the function-table entry for a call name.
	LookupCall(name string) (*Call, bool)

	// TypeTable returns the named-type table referenced by type
	// descriptors. Passed through to the codec functions untouched.
	TypeTable() map[string]any

	// Description returns the full compiled description as one JSON
	// document, served verbatim on the introspection endpoint and fed to
	// the stub generators.
	Description() json.RawMessage
}

// DecodeFunc converts a wire-safe value into a schema-typed value, failing on
// type mismatch. path names the value's location for error messages.
type DecodeFunc func(table map[string]any, path string, typ any, value any) (any, error)

// EncodeFunc converts a schema-typed value back into a wire-safe value,
// failing on type mismatch.
type EncodeFunc func(table map[string]any, path string, typ any, value any) (any, error)

// Generator emits generated source text for one target platform from the
// compiled description.
type Generator func(description json.RawMessage) (string, error)

// Passthrough is the identity codec function, for schemas whose values need
// no conversion and for tests.
func Passthrough(table map[string]any, path string, typ any, value any) (any, error) {
	return value, nil
}
