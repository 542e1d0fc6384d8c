// Package extract locates and validates structured JSON objects embedded in
// free-text LLM replies.
//
// Replies are inherently unstructured and sometimes malformed, so extraction
// is built as a pipeline of strategies tried in order, each producing
// candidate objects; a candidate that fails to parse is recorded as a
// diagnostic and skipped, never aborting the search. Extract never returns
// an error value; every failure mode is encoded in the Result.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Strategy identifies how a structured object was located in the text.
type Strategy string

const (
	// StrategyAuto is reported when no strategy produced a candidate.
	StrategyAuto Strategy = "auto"

	// StrategyFencedBlock scans fenced ```json code regions.
	StrategyFencedBlock Strategy = "fenced_block"

	// StrategyBraceScan scans for balanced {...} substrings in raw text.
	StrategyBraceScan Strategy = "brace_scan"

	// StrategyCustomPattern uses a caller-supplied regular expression
	// instead of the two built-in scans.
	StrategyCustomPattern Strategy = "custom_pattern"
)

// Result is the outcome of one extraction call.
type Result struct {
	// Success reports whether at least one valid object was found.
	Success bool

	// Data is the first valid candidate in encounter order (fenced blocks
	// before brace-scan matches). Nil on failure.
	Data map[string]interface{}

	// All holds every valid candidate when Options.AllMatches is set.
	All []map[string]interface{}

	// Err describes the failure when Success is false.
	Err string

	// Warnings are non-fatal observations, e.g. content removed during
	// normalization.
	Warnings []string

	// Diagnostics records per-candidate parse failures that were skipped.
	Diagnostics []string

	// Strategy is the strategy that produced Data.
	Strategy Strategy

	// CandidateCount is the number of valid objects found across all
	// strategies.
	CandidateCount int

	// Elapsed is the wall-clock duration of the extraction.
	Elapsed time.Duration
}

// Options controls one extraction call.
type Options struct {
	// MarkerKeys are substrings at least one of which must appear in the
	// input for the full strategy pipeline to run. Empty disables the
	// marker pre-check.
	MarkerKeys []string

	// Pattern, when set, replaces the built-in scans: only its first
	// capture group (or whole match) is parsed as a candidate.
	Pattern *regexp.Regexp

	// AllMatches requests every valid candidate in Result.All rather than
	// just the first.
	AllMatches bool
}

var fencedBlockRegexp = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\n(.*?)```")

// Extract runs the strategy pipeline over text. It never panics and never
// returns an error: inspect Result.Success and Result.Err.
func Extract(text string, opts Options) *Result {
	start := time.Now()
	result := &Result{Strategy: StrategyAuto}

	defer func() {
		result.Elapsed = time.Since(start)
	}()

	if reason, ok := precheck(text, opts.MarkerKeys); !ok {
		result.Err = reason
		return result
	}

	type candidate struct {
		raw      string
		strategy Strategy
	}
	var candidates []candidate

	if opts.Pattern != nil {
		for _, m := range opts.Pattern.FindAllStringSubmatch(text, -1) {
			raw := m[0]
			if len(m) > 1 && m[1] != "" {
				raw = m[1]
			}
			candidates = append(candidates, candidate{raw: raw, strategy: StrategyCustomPattern})
		}
	} else {
		for _, m := range fencedBlockRegexp.FindAllStringSubmatch(text, -1) {
			candidates = append(candidates, candidate{raw: m[1], strategy: StrategyFencedBlock})
		}
		for _, raw := range scanBalancedObjects(text) {
			candidates = append(candidates, candidate{raw: raw, strategy: StrategyBraceScan})
		}
	}

	for _, c := range candidates {
		obj, err := parseObject(c.raw)
		if err != nil {
			// Malformed candidates must not abort the search for a valid
			// one; keep the error for diagnostics.
			result.Diagnostics = append(result.Diagnostics,
				fmt.Sprintf("%s candidate rejected: %v", c.strategy, err))
			continue
		}

		result.CandidateCount++
		// First match in encounter order wins; later candidates are only
		// counted (and collected when AllMatches is set).
		if result.Data == nil {
			result.Data = obj
			result.Strategy = c.strategy
		}
		if opts.AllMatches {
			result.All = append(result.All, obj)
		}
	}

	if result.CandidateCount == 0 {
		result.Err = "no valid structured data found"
		return result
	}

	result.Success = true
	return result
}

// precheck cheaply rejects input that cannot contain a structured object,
// avoiding the full scan on obviously non-conforming text. Input holding a
// brace still passes without any marker: it may carry an object with
// unexpected keys, and scanning it yields a more precise failure than the
// generic precheck message.
func precheck(text string, markers []string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "input is empty", false
	}
	if len(markers) == 0 || strings.Contains(text, "{") {
		return "", true
	}
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return "", true
		}
	}
	return "response does not contain expected patterns", false
}

// parseObject decodes raw as JSON and keeps only non-null, non-array
// objects.
func parseObject(raw string) (map[string]interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("parsed value is not an object")
	}
	return obj, nil
}

// scanBalancedObjects returns every substring of text bounded by an
// outermost pair of matching braces, in encounter order. Braces inside JSON
// string literals are ignored.
func scanBalancedObjects(text string) []string {
	var out []string

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}

		depth := 0
		inString := false
		escaped := false
		end := -1

	scan:
		for j := i; j < len(text); j++ {
			ch := text[j]
			switch {
			case escaped:
				escaped = false
			case ch == '\\' && inString:
				escaped = true
			case ch == '"':
				inString = !inString
			case inString:
				// skip structural characters inside strings
			case ch == '{':
				depth++
			case ch == '}':
				depth--
				if depth == 0 {
					end = j
					break scan
				}
			}
		}

		if end == -1 {
			// Unbalanced tail; no further object can start inside it.
			break
		}
		out = append(out, text[i:end+1])
		i = end
	}

	return out
}
