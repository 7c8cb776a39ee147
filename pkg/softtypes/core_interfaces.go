// Package softtypes defines core interfaces and data structures used throughout SoftCode.
// This file contains the fundamental interfaces that enable the modular architecture:
// the shared context, the service contract, and the service registry.
package softtypes

// Context provides shared state management for SoftCode.
// It owns the two storage tiers, the in-memory Conversation Set, and the
// current Actor. Exactly one context is active per process; services reach
// it through the global singleton in internal/context.
type Context interface {
	SetTestMode(testMode bool)
	IsTestMode() bool

	// Storage tier access. The durable store survives across sessions,
	// the session store lives for the current process session only.
	DurableStore() StorageBackend
	SessionStore() StorageBackend
	SetDurableStore(backend StorageBackend)
	SetSessionStore(backend StorageBackend)

	// Conversation Set ownership. The set is loaded at most once per tier
	// and is the single writer to its backing storage key.
	ConversationSet() ([]*Conversation, bool)
	SetConversationSet(conversations []*Conversation)
	ClearConversationSet()

	// Current actor (nil when anonymous).
	Actor() *Actor
	SetActor(actor *Actor)
}

// StorageBackend abstracts one storage tier as a key/value store of JSON
// blobs. Absence of a key is a valid state, not a failure.
type StorageBackend interface {
	// Get returns the stored value for key and whether it was present.
	Get(key string) ([]byte, bool)
	// Set stores value under key. Failures are reported but callers are
	// expected to treat persistence as best-effort.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string)
}

// Service defines the interface for SoftCode services that provide specific
// functionality. Services are initialized at startup and accessed through
// the global registry. Services use the global context singleton for all
// state access.
type Service interface {
	Name() string
	Initialize() error
}

// ServiceRegistry manages the registration and retrieval of services.
type ServiceRegistry interface {
	GetService(name string) (Service, error)
	RegisterService(service Service) error
}
