package extract

import (
	"fmt"
	"strings"
)

// Top-level keys of the structured reply the assistant is instructed to
// emit.
const (
	KeyClientResponse    = "client_response"
	KeyCaseFacts         = "case_facts"
	KeyCaseSummary       = "case_summary"
	KeyClientProfile     = "client_profile"
	KeyCurrentHypothesis = "current_hypothesis"
	KeySessionStatus     = "session_status"
	KeyActions           = "actions"
)

// ReplyMarkerKeys are the pre-check markers: a reply that contains none of
// these cannot hold a usable structured object.
var ReplyMarkerKeys = []string{KeyClientResponse, KeyCaseFacts, KeyActions}

// ReplyShape is the expected shape of an assistant reply object. Only the
// client response text is mandatory; every structured-state field is a
// partial update the model may omit.
var ReplyShape = Shape{
	{Name: KeyClientResponse, Type: FieldString, Required: true},
	{Name: KeyCaseFacts, Type: FieldStringArray},
	{Name: KeyCaseSummary, Type: FieldString},
	{Name: KeyClientProfile, Type: FieldObject},
	{Name: KeyCurrentHypothesis, Type: FieldObject},
	{Name: KeySessionStatus, Type: FieldObject},
	{Name: KeyActions, Type: FieldStringArray},
}

// ExtractReply runs the full domain pipeline over an assistant reply:
// strategy extraction, shape validation with aggregated violations, and
// normalization. Like Extract it never returns an error value.
func ExtractReply(text string) *Result {
	result := Extract(text, Options{MarkerKeys: ReplyMarkerKeys})
	if !result.Success {
		return result
	}

	if violations := ValidateShape(result.Data, ReplyShape); violations != nil {
		result.Success = false
		result.Data = nil
		result.Err = "extracted object failed validation: " + strings.Join(violations, "; ")
		return result
	}

	data, warnings := Normalize(result.Data)
	result.Data = data
	result.Warnings = append(result.Warnings, warnings...)
	return result
}

// Normalize cleans a validated reply object in place of trust: string
// fields are trimmed and blank entries are dropped from string arrays.
// Removed content and an empty primary response are reported as warnings,
// never errors, so callers can tell "technically valid but suspicious"
// apart from "valid".
func Normalize(obj map[string]interface{}) (map[string]interface{}, []string) {
	var warnings []string
	out := make(map[string]interface{}, len(obj))

	for key, value := range obj {
		switch v := value.(type) {
		case string:
			out[key] = strings.TrimSpace(v)
		case []interface{}:
			cleaned, removed := cleanStringSlice(v)
			out[key] = cleaned
			if removed > 0 {
				warnings = append(warnings,
					fmt.Sprintf("normalization removed %d empty entries from %q", removed, key))
			}
		default:
			out[key] = value
		}
	}

	if response, ok := out[KeyClientResponse].(string); ok && response == "" {
		warnings = append(warnings, "cleaned client response text is empty")
	}

	return out, warnings
}

// cleanStringSlice trims string entries and drops the blank ones, counting
// removals. Non-string entries pass through untouched.
func cleanStringSlice(in []interface{}) ([]interface{}, int) {
	out := make([]interface{}, 0, len(in))
	removed := 0

	for _, entry := range in {
		s, ok := entry.(string)
		if !ok {
			out = append(out, entry)
			continue
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			removed++
			continue
		}
		out = append(out, trimmed)
	}

	return out, removed
}
