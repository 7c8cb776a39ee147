// Package softtypes defines response simulator types for SoftCode.
package softtypes

import "time"

// SimulatorState tracks a per-conversation reply job through its lifecycle.
type SimulatorState string

const (
	StateIdle      SimulatorState = "idle"
	StateTyping    SimulatorState = "typing"
	StateStreaming SimulatorState = "streaming"
	StateCompleted SimulatorState = "completed"
	StateFailed    SimulatorState = "failed"
)

// SimulatorConfig controls the timing and failure behavior of simulated
// assistant replies.
type SimulatorConfig struct {
	// TypingDelay is how long the typing indicator shows before streaming.
	TypingDelay time.Duration `validate:"gt=0"`
	// WordInterval is the pause between word-by-word stream reveals.
	WordInterval time.Duration `validate:"gt=0"`
	// FailSends switches every accepted submit to the failure path.
	FailSends bool
	// ReplyTemplates are fmt templates with one %s verb for the user text.
	ReplyTemplates []string `validate:"min=1,dive,required"`
}

// DefaultReplyTemplate mirrors the canned assistant reply of the demo UI.
const DefaultReplyTemplate = `Thanks — I received: "%s". I can review it or suggest improvements.`

// DefaultSimulatorConfig returns the stock timing profile: hundreds of
// milliseconds of typing latency, tens of milliseconds per streamed word.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		TypingDelay:    700 * time.Millisecond,
		WordInterval:   40 * time.Millisecond,
		FailSends:      false,
		ReplyTemplates: []string{DefaultReplyTemplate},
	}
}

// Submit rejection reasons surfaced through SubmitResult.Reason.
const (
	RejectEmptyText     = "empty text"
	RejectReplyInFlight = "reply in flight"
	RejectUnknownConv   = "conversation not found"
)

// SubmitResult reports what a Submit call did. Implicit guest creation is
// reported explicitly so callers can react deterministically instead of
// relying on side effects.
type SubmitResult struct {
	// Accepted is false when the submit was rejected as a no-op.
	Accepted bool
	// Reason explains a rejection; empty when Accepted.
	Reason string
	// GuestCreated is true when the submit manufactured a guest actor.
	GuestCreated bool
	// UserMessageID identifies the persisted user message when Accepted.
	UserMessageID string
}
