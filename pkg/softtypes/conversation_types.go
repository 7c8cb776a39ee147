// Package softtypes defines conversation and message types for SoftCode.
// This file contains the core types for conversation threads and their
// persisted JSON layout.
package softtypes

// Message sender roles. The persisted value for assistant messages is "ai",
// matching the on-disk conversation layout.
const (
	SenderUser      = "user"
	SenderAssistant = "ai"
)

// Message represents a single turn within a Conversation.
// Text is immutable after creation; the only permitted follow-up mutations
// are setting the error flag after a failed send and removing the flagged
// message on retry.
type Message struct {
	ID        string `json:"id,omitempty"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"` // epoch milliseconds
	Error     bool   `json:"error,omitempty"`
}

// Conversation is a titled, ordered thread of Messages. The identifier never
// changes after allocation and the message sequence preserves insertion
// order; messages are appended, never reordered.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt int64     `json:"createdAt"` // epoch milliseconds
	Messages  []Message `json:"messages"`
}

// DefaultConversationTitle is used when a conversation is created without an
// explicit title.
const DefaultConversationTitle = "New chat"

// FindMessage returns the index of the message with the given ID, or -1.
func (c *Conversation) FindMessage(messageID string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			return i
		}
	}
	return -1
}

// LastMessage returns the most recent message, or nil for an empty thread.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}
