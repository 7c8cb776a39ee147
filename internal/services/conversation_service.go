// Package services provides the conversation store for SoftCode.
package services

import (
	"encoding/json"
	"fmt"

	"softcode/internal/context"
	"softcode/internal/logger"
	"softcode/internal/storage"
	"softcode/internal/testutils"
	"softcode/pkg/softtypes"
)

// ConversationService owns the Conversation Set for the current actor's
// storage tier. Every mutation replaces the whole set and persists it; there
// is no partial update or transaction concept. Persistence is best-effort:
// read failures degrade to an empty set, write failures to a no-op, and
// neither surfaces an error to callers.
type ConversationService struct {
	initialized bool
}

// NewConversationService creates a new ConversationService instance.
func NewConversationService() *ConversationService {
	return &ConversationService{}
}

// Name returns the service name "conversation" for registration.
func (c *ConversationService) Name() string {
	return "conversation"
}

// Initialize sets up the ConversationService for operation.
func (c *ConversationService) Initialize() error {
	c.initialized = true
	return nil
}

// tierBackend returns the backend and key the current tier routes to. A
// missing durable backend degrades to the session tier rather than failing.
func (c *ConversationService) tierBackend() (softtypes.StorageBackend, string, softtypes.Tier) {
	ctx := context.GetGlobalContext()

	tier := softtypes.TierSession
	if identity := GetIdentityService(); identity != nil {
		tier = identity.ResolveTier().Tier
	}

	if tier == softtypes.TierDurable {
		if durable := ctx.DurableStore(); durable != nil {
			return durable, storage.KeyConversations, softtypes.TierDurable
		}
	}
	return ctx.SessionStore(), storage.KeySessionConversations, softtypes.TierSession
}

// Load reads the Conversation Set from the tier-appropriate storage key and
// caches it in the context. Missing or corrupt data yields an empty set;
// corruption is recovered silently, never surfaced. When a non-empty set
// comes back from the session tier the one-time restore notice event is
// published, gated by a session flag.
func (c *ConversationService) Load() []*softtypes.Conversation {
	ctx := context.GetGlobalContext()
	backend, key, tier := c.tierBackend()
	logger.StorageOperation(string(tier), "load", key)

	conversations := make([]*softtypes.Conversation, 0)
	if raw, ok := backend.Get(key); ok {
		if err := json.Unmarshal(raw, &conversations); err != nil {
			logger.Debug("discarding corrupt conversation data", "key", key, "error", err)
			conversations = make([]*softtypes.Conversation, 0)
		}
	}

	if tier == softtypes.TierSession && len(conversations) > 0 {
		session := ctx.SessionStore()
		if _, shown := session.Get(storage.KeyRestoreNoticeShown); !shown {
			if events := GetEventService(); events != nil {
				events.Publish(softtypes.TopicConversationRestored,
					softtypes.ConversationRestoredEvent{Count: len(conversations)})
			}
			_ = session.Set(storage.KeyRestoreNoticeShown, storage.FlagSet)
		}
	}

	ctx.SetConversationSet(conversations)
	return conversations
}

// Conversations returns the cached Conversation Set, loading it from
// storage on first use.
func (c *ConversationService) Conversations() []*softtypes.Conversation {
	conversations, loaded := context.GetGlobalContext().ConversationSet()
	if !loaded {
		return c.Load()
	}
	return conversations
}

// Save serializes the given set and writes it to the tier-appropriate key,
// replacing the cached set. Write failures (quota, permissions) are
// swallowed: persistence is best-effort and never fatal to the UI.
func (c *ConversationService) Save(conversations []*softtypes.Conversation) {
	ctx := context.GetGlobalContext()
	backend, key, tier := c.tierBackend()
	logger.StorageOperation(string(tier), "save", key)

	ctx.SetConversationSet(conversations)

	data, err := json.MarshalIndent(conversations, "", "  ")
	if err != nil {
		logger.Debug("failed to encode conversation set", "error", err)
		return
	}
	if err := backend.Set(key, data); err != nil {
		logger.Debug("failed to persist conversation set", "key", key, "error", err)
	}
}

// Create allocates a new Conversation with a fresh composite identifier and
// the given title (default "New chat"). Pure allocation: the caller adds it
// to the set with Add.
func (c *ConversationService) Create(title string) *softtypes.Conversation {
	ctx := context.GetGlobalContext()
	if title == "" {
		title = softtypes.DefaultConversationTitle
	}
	return &softtypes.Conversation{
		ID:        testutils.GenerateConversationID(ctx),
		Title:     title,
		CreatedAt: testutils.NowMillis(ctx),
		Messages:  make([]softtypes.Message, 0),
	}
}

// Add prepends the conversation to the set (newest first) and persists.
func (c *ConversationService) Add(conversation *softtypes.Conversation) {
	updated := append([]*softtypes.Conversation{conversation}, c.Conversations()...)
	c.Save(updated)
}

// Get returns the conversation with the given ID, or nil.
func (c *ConversationService) Get(conversationID string) *softtypes.Conversation {
	for _, conversation := range c.Conversations() {
		if conversation.ID == conversationID {
			return conversation
		}
	}
	return nil
}

// AppendMessage appends a message to the conversation and persists the
// replaced set. Message order within a conversation reflects send order;
// messages are never reordered.
func (c *ConversationService) AppendMessage(conversationID, sender, text string) (*softtypes.Message, error) {
	ctx := context.GetGlobalContext()
	message := softtypes.Message{
		ID:        testutils.GenerateUUID(ctx),
		Sender:    sender,
		Text:      text,
		CreatedAt: testutils.NowMillis(ctx),
	}

	err := c.replaceConversation(conversationID, func(conversation *softtypes.Conversation) {
		conversation.Messages = append(conversation.Messages, message)
	})
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// Rename updates a conversation's title and persists.
func (c *ConversationService) Rename(conversationID, title string) error {
	return c.replaceConversation(conversationID, func(conversation *softtypes.Conversation) {
		conversation.Title = title
	})
}

// Delete removes the conversation from the set and persists. Other
// conversations are untouched.
func (c *ConversationService) Delete(conversationID string) error {
	conversations := c.Conversations()
	updated := make([]*softtypes.Conversation, 0, len(conversations))
	found := false
	for _, conversation := range conversations {
		if conversation.ID == conversationID {
			found = true
			continue
		}
		updated = append(updated, conversation)
	}
	if !found {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	c.Save(updated)
	return nil
}

// ClearMessages empties a conversation's message sequence and persists.
func (c *ConversationService) ClearMessages(conversationID string) error {
	return c.replaceConversation(conversationID, func(conversation *softtypes.Conversation) {
		conversation.Messages = make([]softtypes.Message, 0)
	})
}

// RemoveMessage deletes a single message from a conversation and persists.
// Used by the retry path to drop an error-flagged message before resending.
func (c *ConversationService) RemoveMessage(conversationID, messageID string) error {
	return c.replaceConversation(conversationID, func(conversation *softtypes.Conversation) {
		index := conversation.FindMessage(messageID)
		if index < 0 {
			return
		}
		conversation.Messages = append(conversation.Messages[:index], conversation.Messages[index+1:]...)
	})
}

// FlagMessageError marks a message as failed and persists.
func (c *ConversationService) FlagMessageError(conversationID, messageID string) error {
	return c.replaceConversation(conversationID, func(conversation *softtypes.Conversation) {
		index := conversation.FindMessage(messageID)
		if index < 0 {
			return
		}
		conversation.Messages[index].Error = true
	})
}

// replaceConversation applies mutate to a copy of the target conversation,
// rebuilds the whole set around it, and persists. This keeps every mutation
// a whole-set replace, which is all the single-writer ownership model needs.
func (c *ConversationService) replaceConversation(conversationID string, mutate func(*softtypes.Conversation)) error {
	conversations := c.Conversations()
	updated := make([]*softtypes.Conversation, len(conversations))
	found := false
	for index, conversation := range conversations {
		if conversation.ID != conversationID {
			updated[index] = conversation
			continue
		}
		found = true
		clone := *conversation
		clone.Messages = append([]softtypes.Message(nil), conversation.Messages...)
		mutate(&clone)
		updated[index] = &clone
	}
	if !found {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	c.Save(updated)
	return nil
}
