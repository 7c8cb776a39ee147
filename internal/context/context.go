// Package context provides shared state management for SoftCode.
// It owns the storage tier backends, the in-memory Conversation Set, and the
// current Actor across service operations.
package context

import (
	"softcode/internal/storage"
	"softcode/pkg/softtypes"
)

// ChatContext implements the softtypes.Context interface.
// It is the single owner of the active Conversation Set: services mutate the
// set only through whole-sequence replacement, and only ever from one
// logical UI flow, so no finer-grained locking is provided.
type ChatContext struct {
	testMode bool

	durable softtypes.StorageBackend
	session softtypes.StorageBackend

	conversations       []*softtypes.Conversation
	conversationsLoaded bool

	actor *softtypes.Actor
}

// New creates a ChatContext with an in-memory session tier and no durable
// tier configured. The durable backend is installed by the configuration
// service once the storage directory is known; tests frequently leave the
// session backend standing in for both tiers.
func New() *ChatContext {
	return &ChatContext{
		session: storage.NewSessionBackend(),
	}
}

// SetTestMode enables deterministic ID and timestamp generation.
func (c *ChatContext) SetTestMode(testMode bool) {
	c.testMode = testMode
}

// IsTestMode returns whether deterministic test mode is active.
func (c *ChatContext) IsTestMode() bool {
	return c.testMode
}

// DurableStore returns the durable tier backend (may be nil until
// configured).
func (c *ChatContext) DurableStore() softtypes.StorageBackend {
	return c.durable
}

// SessionStore returns the session tier backend.
func (c *ChatContext) SessionStore() softtypes.StorageBackend {
	return c.session
}

// SetDurableStore installs the durable tier backend.
func (c *ChatContext) SetDurableStore(backend softtypes.StorageBackend) {
	c.durable = backend
}

// SetSessionStore installs the session tier backend.
func (c *ChatContext) SetSessionStore(backend softtypes.StorageBackend) {
	c.session = backend
}

// ConversationSet returns the in-memory Conversation Set and whether it has
// been loaded from storage this session.
func (c *ChatContext) ConversationSet() ([]*softtypes.Conversation, bool) {
	return c.conversations, c.conversationsLoaded
}

// SetConversationSet replaces the Conversation Set wholesale and marks it
// loaded.
func (c *ChatContext) SetConversationSet(conversations []*softtypes.Conversation) {
	c.conversations = conversations
	c.conversationsLoaded = true
}

// ClearConversationSet tears down the in-memory set, typically on a tier
// switch (login/logout), forcing the next load to hit storage again.
func (c *ChatContext) ClearConversationSet() {
	c.conversations = nil
	c.conversationsLoaded = false
}

// Actor returns the current actor, or nil when anonymous.
func (c *ChatContext) Actor() *softtypes.Actor {
	return c.actor
}

// SetActor installs the current actor (nil to clear).
func (c *ChatContext) SetActor(actor *softtypes.Actor) {
	c.actor = actor
}
