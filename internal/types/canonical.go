package types

import "net/http"

// Protocol generations accepted on the wire. Version 3 is current; 1 and 2
// exist only for backward compatibility with old generated clients.
const (
	Version1 = 1
	Version2 = 2
	Version3 = 3
)

// FatalError is the reserved generic error type. Any error whose type is not
// in a call's declared-throws set is downgraded to this before transmission.
const FatalError = "Fatal"

// Extra-bag keys populated by the version-2 normalizer.
const (
	ExtraPartnerID = "partnerId"
	ExtraSessionID = "sessionId"
)

// CanonicalRequest is the unified internal representation of a call, after
// wire-format normalization. It is version-agnostic except for the Version
// field, which pins the response-encoding branch for the whole call.
type CanonicalRequest struct {
	// Version is the detected protocol generation (1, 2 or 3). Immutable
	// once set.
	Version int

	// RequestID uniquely identifies the call. Generated when the client
	// did not supply one.
	RequestID string

	// Name is the call name, matched against the schema's function table.
	Name string

	// Args is the raw decoded argument value, before codec type-checking.
	Args any

	// Device describes the calling device, defaulted per version rules.
	Device DeviceInfo

	// Extra is an open bag for version-specific side channels (version 2
	// partner/session identifiers, version 3 client extras).
	Extra map[string]any

	// SourceIP is the client address. Normalization rejects requests for
	// which it cannot be determined.
	SourceIP string

	// Headers is the transport header set, read-only.
	Headers http.Header
}

// DeviceInfo carries the optional device description of a request.
type DeviceInfo struct {
	ID       string
	Language string
	Platform map[string]any
	Timezone string
	Type     string
	Version  string
}

// CallError is a typed call failure. It implements error so implementations
// can return it directly to surface a specific error type to the client.
type CallError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *CallError) Error() string {
	return e.Type + ": " + e.Message
}

// Fatal builds a CallError of the reserved generic type.
func Fatal(message string) *CallError {
	return &CallError{Type: FatalError, Message: message}
}

// CanonicalReply is the outcome of a dispatched call: either an encoded
// result value or a typed error, never both.
type CanonicalReply struct {
	Result any
	Error  *CallError
}

// OK reports whether the reply carries no error.
func (r *CanonicalReply) OK() bool {
	return r.Error == nil
}

// ErrorReply builds a reply carrying a typed error.
func ErrorReply(errType, message string) *CanonicalReply {
	return &CanonicalReply{Error: &CallError{Type: errType, Message: message}}
}

// ResultReply builds a successful reply.
func ResultReply(result any) *CanonicalReply {
	return &CanonicalReply{Result: result}
}
