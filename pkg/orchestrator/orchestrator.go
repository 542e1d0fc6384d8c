// Package orchestrator coordinates one conversation turn end to end:
// load-or-create session state, assemble the layered prompt, call the
// generation backend, extract the structured reply, merge it into state,
// append the exchange to the dialogue history, and persist.
//
// Failure policy (see also the error taxonomy below): storage and prompt
// assembly faults are hard failures surfaced to the caller; generation and
// extraction faults degrade into fixed advisory/fallback responses so the
// conversation keeps its continuity and the client is never exposed to a
// raw error.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lexhq/counsel/pkg/extract"
	"github.com/lexhq/counsel/pkg/llm"
	"github.com/lexhq/counsel/pkg/logging"
	"github.com/lexhq/counsel/pkg/prompt"
	"github.com/lexhq/counsel/pkg/session"
	"github.com/lexhq/counsel/pkg/types"
)

// TurnState names a step of the per-turn state machine. A turn walks
// Loading → Prompting → Generating → Extracting → Merging → Persisting →
// Done; Failed is terminal and reachable from any step.
type TurnState string

const (
	StateLoading    TurnState = "loading"
	StatePrompting  TurnState = "prompting"
	StateGenerating TurnState = "generating"
	StateExtracting TurnState = "extracting"
	StateMerging    TurnState = "merging"
	StatePersisting TurnState = "persisting"
	StateDone       TurnState = "done"
	StateFailed     TurnState = "failed"
)

const (
	// generationAdvisory is returned when the generation backend fails.
	// The turn still succeeds so the conversation keeps flowing.
	generationAdvisory = "I'm having trouble reaching the reasoning service right now. " +
		"Please try again in a moment — your session and everything you've told me are safe."

	// extractionApology is the client response of the fallback object
	// substituted when no valid structured reply could be extracted.
	extractionApology = "I'm sorry — I wasn't able to put together a proper answer just now. " +
		"Could you rephrase or add a bit more detail?"
)

// Request is one incoming client turn.
type Request struct {
	SessionID string
	TaskID    string
	Message   string
}

// Orchestrator owns the read-modify-write cycle of a session state for the
// duration of one turn. Turns on the same session id are serialized through
// the locker; turns on different sessions run independently.
type Orchestrator struct {
	store     session.Store
	locker    *session.Locker
	assembler *prompt.Assembler
	provider  llm.Provider
	logger    *logging.Logger
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New wires an orchestrator over its collaborators.
func New(store session.Store, assembler *prompt.Assembler, provider llm.Provider, opts ...Option) *Orchestrator {
	logger, _ := logging.NewLogger("orchestrator")

	o := &Orchestrator{
		store:     store,
		locker:    session.NewLocker(),
		assembler: assembler,
		provider:  provider,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleTurn processes one client message against its session.
//
// The returned error is non-nil only for hard failures: a storage fault
// (wrapping session.ErrStorage) or a prompt assembly fault
// (*prompt.AssemblyError). Generation and extraction faults are degraded
// into a successful TurnResult carrying fixed advisory text.
func (o *Orchestrator) HandleTurn(ctx context.Context, req Request) (*types.TurnResult, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("orchestrator: session id is required")
	}

	// One turn fully applies before the next begins, per session.
	o.locker.Lock(req.SessionID)
	defer o.locker.Unlock(req.SessionID)

	now := o.now()
	st := StateLoading

	fail := func(err error) (*types.TurnResult, error) {
		o.logger.Errorf("turn failed for session %s in state %s: %v", req.SessionID, st, err)
		return nil, fmt.Errorf("turn failed in state %s: %w", st, err)
	}

	// LOADING: fetch existing state or create a fresh one lazily.
	state, err := o.store.Load(ctx, req.SessionID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		state = session.NewState(req.SessionID)
		state.Metadata.CreatedAt = now
		state.Metadata.UpdatedAt = now
		o.logger.Infof("created new session state for %s", req.SessionID)
	case err != nil:
		return fail(err)
	}

	// PROMPTING: assemble the layered system prompt over prior history.
	st = StatePrompting
	systemPrompt, err := o.assembler.Build(req.TaskID, state)
	if err != nil {
		return fail(err)
	}
	stats := prompt.ComputeStats(systemPrompt)
	o.logger.Debugf("assembled prompt for %s: %d chars, %d tokens", req.SessionID, stats.Chars, stats.Tokens)

	// GENERATING: the single external, highest-latency, highest-failure
	// step. Backend errors degrade, they do not propagate.
	st = StateGenerating
	rawReply := ""
	degraded := false
	resp, err := o.provider.Complete(ctx, []*types.Message{
		types.NewSystemMessage(systemPrompt),
		types.NewUserMessage(req.Message),
	})
	if err != nil {
		o.logger.Warnf("generation failed for %s, degrading turn: %v", req.SessionID, err)
		rawReply = generationAdvisory
		degraded = true
	} else {
		rawReply = resp.Content
		if resp.Usage != nil {
			o.logger.Debugf("generation for %s used %d tokens (%s, %s)",
				req.SessionID, resp.Usage.TotalTokens, resp.Model, resp.FinishReason)
		}
	}

	// EXTRACTING: never fatal. A degraded turn skips extraction outright;
	// otherwise a failed extraction substitutes the fallback object.
	st = StateExtracting
	response := generationAdvisory
	data := map[string]interface{}{}
	if !degraded {
		extraction := extract.ExtractReply(rawReply)
		if extraction.Success {
			data = extraction.Data
			response, _ = data[extract.KeyClientResponse].(string)
			for _, w := range extraction.Warnings {
				o.logger.Warnf("extraction warning for %s: %s", req.SessionID, w)
			}
		} else {
			o.logger.Warnf("extraction failed for %s (%s), using fallback object: %v",
				req.SessionID, extraction.Err, extraction.Diagnostics)
			response = extractionApology
		}
	}

	// MERGING: field-partial update. Only keys present in the extracted
	// object replace the corresponding state section.
	st = StateMerging
	merged := mergeFields(state, data)

	state.AppendTurn(req.Message, rawReply, now)
	state.Touch(now)

	// PERSISTING: storage faults are hard failures.
	st = StatePersisting
	if err := o.store.Save(ctx, req.SessionID, state); err != nil {
		return fail(err)
	}

	st = StateDone
	o.logger.Infof("turn %d complete for session %s (degraded=%t, merged=%d fields)",
		len(state.DialogueHistory.Turns), req.SessionID, degraded, len(merged))

	return &types.TurnResult{
		Success:          true,
		Response:         response,
		StructuredFields: merged,
		Actions:          extractActions(data),
		Timestamp:        now,
	}, nil
}

// mergeFields overwrites each session-state section for which the extracted
// object supplies a top-level field, leaving absent sections untouched. It
// returns what was merged, keyed by field name, for the client-facing
// result.
func mergeFields(state *session.State, data map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})

	if facts, ok := stringSlice(data[extract.KeyCaseFacts]); ok {
		state.CaseFacts.Facts = facts
		merged[extract.KeyCaseFacts] = facts
	}
	if summary, ok := data[extract.KeyCaseSummary].(string); ok {
		state.CaseFacts.Summary = summary
		merged[extract.KeyCaseSummary] = summary
	}
	if profile, ok := stringMap(data[extract.KeyClientProfile]); ok {
		state.ClientProfile = profile
		merged[extract.KeyClientProfile] = profile
	}
	if raw, ok := data[extract.KeyCurrentHypothesis].(map[string]interface{}); ok {
		hyp := session.CurrentHypothesis{}
		hyp.Hypothesis, _ = raw["hypothesis"].(string)
		if c, ok := raw["confidence"].(float64); ok {
			hyp.Confidence = c
		}
		state.CurrentHypothesis = hyp
		merged[extract.KeyCurrentHypothesis] = raw
	}
	if raw, ok := data[extract.KeySessionStatus].(map[string]interface{}); ok {
		status := session.SessionStatus{}
		status.Status, _ = raw["status"].(string)
		status.LastAction, _ = raw["last_action"].(string)
		state.SessionStatus = status
		merged[extract.KeySessionStatus] = raw
	}

	return merged
}

// extractActions pulls the suggested-actions list from the extracted
// object, defaulting to an empty (non-nil) slice.
func extractActions(data map[string]interface{}) []string {
	if actions, ok := stringSlice(data[extract.KeyActions]); ok {
		return actions
	}
	return []string{}
}

func stringSlice(v interface{}) ([]string, bool) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func stringMap(v interface{}) (map[string]string, bool) {
	raw, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(raw))
	for k, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			return nil, false
		}
		out[k] = s
	}
	return out, true
}
