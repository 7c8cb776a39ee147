// Package softtypes defines the observable events the core publishes for the
// view layer. Payloads are serialized as JSON on the event bus.
package softtypes

// Event bus topics.
const (
	TopicConversationRestored = "conversation.restored"
	TopicTypingStarted        = "simulator.typing"
	TopicStreamChunk          = "simulator.stream"
	TopicStreamCompleted      = "simulator.completed"
	TopicSendFailed           = "simulator.failed"
)

// ConversationRestoredEvent fires at most once per session, when a non-empty
// conversation set is loaded from the session tier.
type ConversationRestoredEvent struct {
	Count int `json:"count"`
}

// TypingStartedEvent signals that a simulated reply entered the typing
// window for a conversation.
type TypingStartedEvent struct {
	ConversationID string `json:"conversationId"`
}

// StreamChunkEvent carries one transient partial reveal of a streaming
// reply. The text is the full reveal so far, not a delta, and is never
// persisted.
type StreamChunkEvent struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
}

// StreamCompletedEvent signals that the full reply was appended to the
// conversation and persisted.
type StreamCompletedEvent struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

// SendFailedEvent signals a simulated send failure; the user message carries
// the error flag until retried.
type SendFailedEvent struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}
