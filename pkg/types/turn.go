package types

import "time"

// TurnResult is the client-facing payload produced by one conversation turn.
//
// A turn "succeeds" even when the generation backend or the structured-data
// extraction failed: in those cases Response carries a fixed advisory or
// apology string and StructuredFields is empty. Callers are never exposed to
// raw provider errors or partial JSON.
type TurnResult struct {
	// Success reports whether the turn completed. Storage and prompt
	// assembly faults are the only hard failures; those are returned as
	// errors, not encoded here.
	Success bool `json:"success"`

	// Response is the cleaned primary response text shown to the client.
	Response string `json:"response"`

	// StructuredFields holds the top-level structured fields that were
	// merged into session state this turn. Empty (not nil) when extraction
	// fell back.
	StructuredFields map[string]interface{} `json:"structured_fields"`

	// Actions is the list of suggested follow-up actions, possibly empty.
	Actions []string `json:"actions"`

	// Timestamp marks when the turn completed.
	Timestamp time.Time `json:"timestamp"`
}
