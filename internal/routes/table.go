// Package routes implements the gateway's route table: an ordered, append-only
// registry of (method, matcher, handler) entries with deterministic priority
// resolution. Entries are registered at startup and read-only while serving,
// so concurrent resolution needs no locking.
package routes

import (
	"net/http"
	"regexp"
)

type entry struct {
	method  string
	exact   string
	pattern *regexp.Regexp
	handler http.HandlerFunc
}

// Table resolves a method and path to at most one handler.
//
// Priority among matching entries: an exact-string matcher always outranks a
// pattern matcher; among patterns, the longest matched prefix wins; remaining
// ties go to the first-registered entry. The longest-match rule lets a
// generic prefix route coexist with more specific routes registered later.
type Table struct {
	entries []entry
}

// Handle registers an exact-path route.
func (t *Table) Handle(method, path string, h http.HandlerFunc) {
	t.entries = append(t.entries, entry{method: method, exact: path, handler: h})
}

// HandlePattern registers a pattern route. The pattern must match starting at
// the beginning of the path to be considered.
func (t *Table) HandlePattern(method string, pattern *regexp.Regexp, h http.HandlerFunc) {
	t.entries = append(t.entries, entry{method: method, pattern: pattern, handler: h})
}

// Resolve returns the best-matching handler for the method and path, or nil.
func (t *Table) Resolve(method, path string) http.HandlerFunc {
	var (
		best    http.HandlerFunc
		bestLen = -1
	)
	for _, e := range t.entries {
		if e.method != method {
			continue
		}
		if e.pattern == nil {
			if e.exact == path {
				// Exact matches outrank every pattern and, among
				// themselves, first-registered wins.
				return e.handler
			}
			continue
		}
		loc := e.pattern.FindStringIndex(path)
		if loc == nil || loc[0] != 0 {
			continue
		}
		if loc[1] > bestLen {
			best = e.handler
			bestLen = loc[1]
		}
	}
	return best
}
