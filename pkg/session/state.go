// Package session defines the per-session cognitive state document and its
// durable stores.
//
// A State is the accumulated structured memory of one conversation: case
// facts, client profile, working hypothesis, status, and the full dialogue
// history. It is created lazily on the first turn for an unseen session id
// and mutated in place on every subsequent turn; this package never deletes
// state.
package session

import (
	"fmt"
	"time"
)

// Status values for SessionStatus.Status.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Metadata identifies a session and tracks its lifecycle timestamps.
type Metadata struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CaseFacts is the ordered factual record of the matter under discussion.
// It is replaced wholesale whenever the extractor supplies case facts.
type CaseFacts struct {
	Facts   []string `json:"facts"`
	Summary string   `json:"summary"`
}

// CurrentHypothesis is the assistant's working legal assessment.
type CurrentHypothesis struct {
	Hypothesis string  `json:"hypothesis"`
	Confidence float64 `json:"confidence"`
}

// SessionStatus tracks where the session stands.
type SessionStatus struct {
	Status     string `json:"status"`
	LastAction string `json:"last_action"`
}

// DialogueTurn is one user-message/model-reply exchange.
type DialogueTurn struct {
	MessageNumber int       `json:"message_number"`
	UserText      string    `json:"user_text"`
	ModelText     string    `json:"model_text"`
	Timestamp     time.Time `json:"timestamp"`
}

// DialogueHistory is the append-only transcript of a session.
type DialogueHistory struct {
	Turns []DialogueTurn `json:"turns"`
}

// State is the unit of persistence: one cognitive-state document per
// session identifier.
type State struct {
	Metadata          Metadata          `json:"metadata"`
	CaseFacts         CaseFacts         `json:"case_facts"`
	ClientProfile     map[string]string `json:"client_profile"`
	DialogueHistory   DialogueHistory   `json:"dialogue_history"`
	CurrentHypothesis CurrentHypothesis `json:"current_hypothesis"`
	SessionStatus     SessionStatus     `json:"session_status"`
}

// NewState constructs a zero-value state for the given session id. Pure
// construction, no I/O.
func NewState(sessionID string) *State {
	now := time.Now().UTC()
	return &State{
		Metadata: Metadata{
			SessionID: sessionID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		CaseFacts:     CaseFacts{Facts: []string{}},
		ClientProfile: map[string]string{},
		DialogueHistory: DialogueHistory{
			Turns: []DialogueTurn{},
		},
		SessionStatus: SessionStatus{Status: StatusActive},
	}
}

// AppendTurn appends a dialogue turn with the next sequential message
// number. Message numbers are 1-indexed, strictly increasing, and gapless:
// each new turn's number equals 1 plus the count of prior turns.
func (s *State) AppendTurn(userText, modelText string, at time.Time) DialogueTurn {
	turn := DialogueTurn{
		MessageNumber: len(s.DialogueHistory.Turns) + 1,
		UserText:      userText,
		ModelText:     modelText,
		Timestamp:     at,
	}
	s.DialogueHistory.Turns = append(s.DialogueHistory.Turns, turn)
	return turn
}

// Touch updates the last-modified timestamp.
func (s *State) Touch(at time.Time) {
	s.Metadata.UpdatedAt = at
}

// Validate checks the structural invariants of a loaded state document.
func (s *State) Validate() error {
	if s.Metadata.SessionID == "" {
		return fmt.Errorf("session: state missing session id")
	}
	for i, turn := range s.DialogueHistory.Turns {
		if turn.MessageNumber != i+1 {
			return fmt.Errorf("session: dialogue turn %d has message number %d", i, turn.MessageNumber)
		}
	}
	return nil
}
