package wire

import (
	"net/http"
	"time"

	"github.com/schemarpc/gateway/internal/types"
)

// RequestIDHeader carries the request id out-of-band on version-3 responses.
const RequestIDHeader = "X-Request-Id"

type envelopeV1 struct {
	ID       string           `json:"id"`
	DeviceID string           `json:"deviceId"`
	OK       bool             `json:"ok"`
	Result   any              `json:"result"`
	Error    *types.CallError `json:"error"`
	Duration float64          `json:"duration"`
	Host     string           `json:"host"`
}

type envelopeV2 struct {
	RequestID string           `json:"requestId"`
	DeviceID  string           `json:"deviceId"`
	SessionID any              `json:"sessionId"`
	OK        bool             `json:"ok"`
	Result    any              `json:"result"`
	Error     *types.CallError `json:"error"`
}

type envelopeV3 struct {
	Result   any              `json:"result"`
	Error    *types.CallError `json:"error"`
	Duration float64          `json:"duration"`
	Host     string           `json:"host"`
}

type envelopeFallback struct {
	Error *types.CallError `json:"error"`
}

// StatusFor maps a taxonomy-normalized reply to an HTTP status: 200 on
// success, 500 for the generic fatal type, 400 for any declared error type.
func StatusFor(reply *types.CanonicalReply) int {
	switch {
	case reply.Error == nil:
		return http.StatusOK
	case reply.Error.Type == types.FatalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Envelope serializes a reply into the wire shape matching the request's
// protocol generation. The returned value marshals to a single JSON document.
func Envelope(req *types.CanonicalRequest, reply *types.CanonicalReply, elapsed time.Duration, host string) (int, any) {
	status := StatusFor(reply)
	result := reply.Result
	if reply.Error != nil {
		result = nil
	}

	switch req.Version {
	case types.Version1:
		return status, envelopeV1{
			ID:       req.RequestID,
			DeviceID: req.Device.ID,
			OK:       reply.OK(),
			Result:   result,
			Error:    reply.Error,
			Duration: elapsed.Seconds(),
			Host:     host,
		}
	case types.Version2:
		return status, envelopeV2{
			RequestID: req.RequestID,
			DeviceID:  req.Device.ID,
			SessionID: req.Extra[types.ExtraSessionID],
			OK:        reply.OK(),
			Result:    result,
			Error:     reply.Error,
		}
	default:
		return status, envelopeV3{
			Result:   result,
			Error:    reply.Error,
			Duration: elapsed.Seconds(),
			Host:     host,
		}
	}
}

// Fallback is the fixed envelope written when normalization failed before a
// canonical request could be built. Always status 500.
func Fallback(message string) (int, any) {
	return http.StatusInternalServerError, envelopeFallback{Error: types.Fatal(message)}
}
