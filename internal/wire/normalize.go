package wire

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/schemarpc/gateway/internal/types"
)

// ErrMalformed marks any payload that failed the version-specific shape
// check. The call never reaches dispatch; the transport layer answers with
// the fixed fallback envelope.
var ErrMalformed = errors.New("failed to understand request")

// Normalize maps a raw payload of the given protocol generation into a
// CanonicalRequest. The source address is mandatory: a request whose origin
// cannot be determined is rejected before dispatch.
func Normalize(version int, body []byte, ip string, headers http.Header) (*types.CanonicalRequest, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformed)
	}
	if ip == "" {
		return nil, fmt.Errorf("%w: source address could not be determined", ErrMalformed)
	}

	var (
		req *types.CanonicalRequest
		err error
	)
	switch version {
	case types.Version1:
		req, err = normalizeV1(root)
	case types.Version2:
		req, err = normalizeV2(root)
	case types.Version3:
		req, err = normalizeV3(root)
	default:
		return nil, fmt.Errorf("%w: unsupported protocol version %d", ErrMalformed, version)
	}
	if err != nil {
		return nil, err
	}

	req.Version = version
	req.SourceIP = ip
	req.Headers = headers
	return req, nil
}

// normalizeV1 handles the oldest generation: top-level id/name/args plus a
// mandatory device object.
func normalizeV1(root gjson.Result) (*types.CanonicalRequest, error) {
	name, err := requireString(root, "name")
	if err != nil {
		return nil, err
	}
	args, err := requireArgs(root)
	if err != nil {
		return nil, err
	}
	device, err := requireObject(root, "device")
	if err != nil {
		return nil, err
	}
	outerID, err := optionalString(root, "id")
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	for _, f := range []string{"id", "language", "platform", "timezone", "type", "version"} {
		v, err := optionalString(device, f)
		if err != nil {
			return nil, err
		}
		fields[f] = v
	}

	deviceID := fields["id"]
	if deviceID == "" {
		deviceID = outerID
	}
	deviceType := fields["type"]
	if deviceType == "" {
		deviceType = fields["platform"]
	}

	requestID := outerID
	if requestID == "" {
		requestID = NewID()
	}

	return &types.CanonicalRequest{
		RequestID: requestID,
		Name:      name,
		Args:      args,
		Device: types.DeviceInfo{
			ID:       deviceID,
			Language: fields["language"],
			Timezone: fields["timezone"],
			Type:     deviceType,
			Version:  fields["version"],
		},
	}, nil
}

// normalizeV2 handles the middle generation: requestId/deviceId at top level,
// device description under info, partner/session identifiers as side
// channels.
func normalizeV2(root gjson.Result) (*types.CanonicalRequest, error) {
	requestID, err := requireString(root, "requestId")
	if err != nil {
		return nil, err
	}
	deviceID, err := requireString(root, "deviceId")
	if err != nil {
		return nil, err
	}
	name, err := requireString(root, "name")
	if err != nil {
		return nil, err
	}
	args, err := requireArgs(root)
	if err != nil {
		return nil, err
	}

	device := types.DeviceInfo{ID: deviceID}
	info, ok, err := optionalObject(root, "info")
	if err != nil {
		return nil, err
	}
	if ok {
		if device.Language, err = optionalString(info, "language"); err != nil {
			return nil, err
		}
		if device.Type, err = optionalString(info, "type"); err != nil {
			return nil, err
		}
		ua, err := optionalString(info, "browserUserAgent")
		if err != nil {
			return nil, err
		}
		if ua != "" {
			device.Platform = map[string]any{"browserUserAgent": ua}
		}
	}

	var extra map[string]any
	for _, key := range []string{types.ExtraPartnerID, types.ExtraSessionID} {
		v, err := optionalString(root, key)
		if err != nil {
			return nil, err
		}
		if v != "" {
			if extra == nil {
				extra = map[string]any{}
			}
			extra[key] = v
		}
	}

	return &types.CanonicalRequest{
		RequestID: requestID,
		Name:      name,
		Args:      args,
		Device:    device,
		Extra:     extra,
	}, nil
}

// normalizeV3 handles the current generation. Everything beyond name/args is
// optional; missing identifiers are generated.
func normalizeV3(root gjson.Result) (*types.CanonicalRequest, error) {
	name, err := requireString(root, "name")
	if err != nil {
		return nil, err
	}
	args, err := requireArgs(root)
	if err != nil {
		return nil, err
	}
	requestID, err := optionalString(root, "requestId")
	if err != nil {
		return nil, err
	}
	if requestID == "" {
		requestID = NewID()
	}

	device := types.DeviceInfo{}
	info, ok, err := optionalObject(root, "deviceInfo")
	if err != nil {
		return nil, err
	}
	if ok {
		for f, dst := range map[string]*string{
			"id":       &device.ID,
			"language": &device.Language,
			"timezone": &device.Timezone,
			"type":     &device.Type,
			"version":  &device.Version,
		} {
			if *dst, err = optionalString(info, f); err != nil {
				return nil, err
			}
		}
		platform, ok, err := optionalObject(info, "platform")
		if err != nil {
			return nil, err
		}
		if ok {
			device.Platform, _ = platform.Value().(map[string]any)
		}
		ua, err := optionalString(info, "browserUserAgent")
		if err != nil {
			return nil, err
		}
		if ua != "" {
			if device.Platform == nil {
				device.Platform = map[string]any{}
			}
			device.Platform["browserUserAgent"] = ua
		}
	}
	if device.ID == "" {
		device.ID = NewID()
	}
	if device.Type == "" {
		device.Type = "api"
	}

	var extra map[string]any
	extraObj, ok, err := optionalObject(root, "extra")
	if err != nil {
		return nil, err
	}
	if ok {
		extra, _ = extraObj.Value().(map[string]any)
	}

	return &types.CanonicalRequest{
		RequestID: requestID,
		Name:      name,
		Args:      args,
		Device:    device,
		Extra:     extra,
	}, nil
}

// --- shape-check helpers ---
//
// Missing required fields and wrong-typed known fields fail the call.
// Unrecognized extra fields are ignored.

func requireString(obj gjson.Result, field string) (string, error) {
	v := obj.Get(field)
	if !v.Exists() {
		return "", fmt.Errorf("%w: missing required field %q", ErrMalformed, field)
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("%w: field %q must be a string", ErrMalformed, field)
	}
	return v.String(), nil
}

func optionalString(obj gjson.Result, field string) (string, error) {
	v := obj.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return "", nil
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("%w: field %q must be a string", ErrMalformed, field)
	}
	return v.String(), nil
}

func requireObject(obj gjson.Result, field string) (gjson.Result, error) {
	v := obj.Get(field)
	if !v.Exists() {
		return v, fmt.Errorf("%w: missing required field %q", ErrMalformed, field)
	}
	if !v.IsObject() {
		return v, fmt.Errorf("%w: field %q must be an object", ErrMalformed, field)
	}
	return v, nil
}

func optionalObject(obj gjson.Result, field string) (gjson.Result, bool, error) {
	v := obj.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return v, false, nil
	}
	if !v.IsObject() {
		return v, false, fmt.Errorf("%w: field %q must be an object", ErrMalformed, field)
	}
	return v, true, nil
}

func requireArgs(obj gjson.Result) (any, error) {
	v, err := requireObject(obj, "args")
	if err != nil {
		return nil, err
	}
	return v.Value(), nil
}
