package schema

import (
	"strings"
	"testing"
)

// TestFromJSON verifies call lookup and throws parsing from a compiled
// description document.
func TestFromJSON(t *testing.T) {
	doc, err := FromJSON([]byte(`{
		"typeTable": {"User": {"name": "string"}},
		"functionTable": {
			"getUser": {"args": {"id": "string"}, "ret": "User", "throws": ["NotFound"]},
			"ping": {"args": {}, "ret": "bool"}
		}
	}`))
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}

	call, ok := doc.LookupCall("getUser")
	if !ok {
		t.Fatal("getUser not found")
	}
	if len(call.Throws) != 1 || call.Throws[0] != "NotFound" {
		t.Errorf("Throws = %v", call.Throws)
	}

	ping, ok := doc.LookupCall("ping")
	if !ok || len(ping.Throws) != 0 {
		t.Errorf("ping = %+v, ok = %v", ping, ok)
	}

	if _, ok := doc.LookupCall("absent"); ok {
		t.Error("absent call resolved")
	}

	if _, ok := doc.TypeTable()["User"]; !ok {
		t.Errorf("TypeTable = %v", doc.TypeTable())
	}
	if !strings.Contains(string(doc.Description()), "functionTable") {
		t.Error("Description does not round-trip the document")
	}
}

// TestFromJSONRejects verifies malformed documents fail to parse.
func TestFromJSONRejects(t *testing.T) {
	for _, data := range []string{"not json", `{"typeTable":{}}`} {
		if _, err := FromJSON([]byte(data)); err == nil {
			t.Errorf("FromJSON(%q) succeeded, want error", data)
		}
	}
}
