package wire

import "github.com/tidwall/gjson"

// Classify inspects the discriminator fields of a raw payload and returns the
// protocol generation it belongs to. First match wins:
//
//  1. an explicit numeric "version" field is used verbatim, even when other
//     discriminators are also present;
//  2. "requestId" together with "deviceId" marks a version-2 body (a lone
//     requestId is legal in version 3 and must not capture the request);
//  3. a "device" field marks a version-1 body;
//  4. anything else is version 3, the current default — including bodies
//     that are simply malformed. Misclassification is not repaired here;
//     the version-specific shape check rejects them instead.
func Classify(body []byte) int {
	root := gjson.ParseBytes(body)
	if v := root.Get("version"); v.Exists() {
		return int(v.Int())
	}
	if root.Get("requestId").Exists() && root.Get("deviceId").Exists() {
		return 2
	}
	if root.Get("device").Exists() {
		return 1
	}
	return 3
}
