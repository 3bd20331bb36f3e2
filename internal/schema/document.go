package schema

import (
	"encoding/json"
	"fmt"
)

// Document is a Provider backed by a compiled description in its JSON form,
// as emitted by the interface compiler:
//
//	{
//	  "typeTable": { "<typeName>": <type descriptor>, ... },
//	  "functionTable": {
//	    "<callName>": { "args": <descriptor>, "ret": <descriptor>,
//	                    "throws": ["ErrName", ...] },
//	    ...
//	  }
//	}
//
// The document is parsed once and read-only afterwards.
type Document struct {
	raw       json.RawMessage
	typeTable map[string]any
	calls     map[string]*Call
}

type documentJSON struct {
	TypeTable     map[string]any          `json:"typeTable"`
	FunctionTable map[string]functionJSON `json:"functionTable"`
}

type functionJSON struct {
	Args   any      `json:"args"`
	Ret    any      `json:"ret"`
	Throws []string `json:"throws"`
}

// FromJSON parses a compiled description document.
func FromJSON(data []byte) (*Document, error) {
	var parsed documentJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	if parsed.FunctionTable == nil {
		return nil, fmt.Errorf("parse schema document: missing functionTable")
	}

	doc := &Document{
		raw:       json.RawMessage(data),
		typeTable: parsed.TypeTable,
		calls:     make(map[string]*Call, len(parsed.FunctionTable)),
	}
	for name, fn := range parsed.FunctionTable {
		doc.calls[name] = &Call{
			Name:   name,
			Args:   fn.Args,
			Ret:    fn.Ret,
			Throws: fn.Throws,
		}
	}
	return doc, nil
}

// LookupCall implements Provider.
func (d *Document) LookupCall(name string) (*Call, bool) {
	c, ok := d.calls[name]
	return c, ok
}

// TypeTable implements Provider.
func (d *Document) TypeTable() map[string]any {
	return d.typeTable
}

// Description implements Provider.
func (d *Document) Description() json.RawMessage {
	return d.raw
}
