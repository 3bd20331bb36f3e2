package routes

import (
	"net/http"
	"regexp"
	"testing"
)

func named(name string, calls *[]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, name)
	}
}

// TestExactOutranksPattern verifies that an exact-string matcher always wins
// over a pattern, regardless of registration order.
func TestExactOutranksPattern(t *testing.T) {
	var calls []string
	tbl := &Table{}
	tbl.HandlePattern(http.MethodGet, regexp.MustCompile(`^/a`), named("pattern", &calls))
	tbl.Handle(http.MethodGet, "/a", named("exact", &calls))

	tbl.Resolve(http.MethodGet, "/a")(nil, nil)
	if len(calls) != 1 || calls[0] != "exact" {
		t.Errorf("resolved %v, want [exact]", calls)
	}
}

// TestLongestPatternWins verifies that among pattern matchers the longest
// matched prefix wins.
func TestLongestPatternWins(t *testing.T) {
	var calls []string
	tbl := &Table{}
	tbl.HandlePattern(http.MethodGet, regexp.MustCompile(`^/ab`), named("long", &calls))
	tbl.HandlePattern(http.MethodGet, regexp.MustCompile(`^/a`), named("short", &calls))

	tbl.Resolve(http.MethodGet, "/ab")(nil, nil)
	if len(calls) != 1 || calls[0] != "long" {
		t.Errorf("resolved %v, want [long]", calls)
	}

	calls = nil
	tbl.Resolve(http.MethodGet, "/ax")(nil, nil)
	if len(calls) != 1 || calls[0] != "short" {
		t.Errorf("resolved %v, want [short]", calls)
	}
}

// TestPatternMustMatchAtStart verifies that a pattern matching mid-path does
// not resolve.
func TestPatternMustMatchAtStart(t *testing.T) {
	tbl := &Table{}
	tbl.HandlePattern(http.MethodGet, regexp.MustCompile(`/play`), func(w http.ResponseWriter, r *http.Request) {})

	if tbl.Resolve(http.MethodGet, "/x/play") != nil {
		t.Error("pattern matched mid-path, want nil")
	}
	if tbl.Resolve(http.MethodGet, "/playground") == nil {
		t.Error("pattern at start did not resolve")
	}
}

// TestMethodFilter verifies that entries only match their own method.
func TestMethodFilter(t *testing.T) {
	tbl := &Table{}
	tbl.Handle(http.MethodGet, "/a", func(w http.ResponseWriter, r *http.Request) {})

	if tbl.Resolve(http.MethodPost, "/a") != nil {
		t.Error("POST resolved a GET route")
	}
	if tbl.Resolve(http.MethodGet, "/a") == nil {
		t.Error("GET route did not resolve")
	}
}

// TestFirstRegisteredBreaksTies verifies registration order breaks ties
// between equally long pattern matches.
func TestFirstRegisteredBreaksTies(t *testing.T) {
	var calls []string
	tbl := &Table{}
	tbl.HandlePattern(http.MethodGet, regexp.MustCompile(`^/ab`), named("first", &calls))
	tbl.HandlePattern(http.MethodGet, regexp.MustCompile(`^/a.`), named("second", &calls))

	tbl.Resolve(http.MethodGet, "/ab")(nil, nil)
	if len(calls) != 1 || calls[0] != "first" {
		t.Errorf("resolved %v, want [first]", calls)
	}
}
