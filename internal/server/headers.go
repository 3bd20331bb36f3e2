package server

import (
	"net/http"
	"strings"
)

// HeaderPolicy is a process-wide set of headers merged into outgoing
// responses. It is built at startup through Add and read-only while serving.
// Repeated values for the same name are comma-joined, never deduplicated.
type HeaderPolicy struct {
	order  []string
	values map[string][]string
}

// NewHeaderPolicy returns an empty policy.
func NewHeaderPolicy() *HeaderPolicy {
	return &HeaderPolicy{values: make(map[string][]string)}
}

// Add appends a value for the header name.
func (p *HeaderPolicy) Add(name, value string) {
	key := http.CanonicalHeaderKey(name)
	if _, ok := p.values[key]; !ok {
		p.order = append(p.order, key)
	}
	p.values[key] = append(p.values[key], value)
}

// Get returns the joined value for a header name, or "".
func (p *HeaderPolicy) Get(name string) string {
	return strings.Join(p.values[http.CanonicalHeaderKey(name)], ", ")
}

// Apply merges the policy into a response header set.
func (p *HeaderPolicy) Apply(h http.Header) {
	for _, name := range p.order {
		h.Set(name, strings.Join(p.values[name], ", "))
	}
}
