// Package softtypes defines identity and storage tier types for SoftCode.
package softtypes

// Tier selects which storage backend conversation data is routed to.
type Tier string

const (
	// TierDurable survives across sessions (authenticated users).
	TierDurable Tier = "durable"
	// TierSession is scoped to the current session (guests and anonymous).
	TierSession Tier = "session"
)

// ActorKind distinguishes authenticated users from transient guests.
type ActorKind string

const (
	ActorAuthenticated ActorKind = "authenticated"
	ActorGuest         ActorKind = "guest"
)

// Guest placeholder identity, installed when a visitor starts chatting
// without signing in.
const (
	GuestName  = "Guest"
	GuestToken = "guest-token"
)

// User holds the profile fields of an authenticated user record.
type User struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UserRecord is the durable representation of a signed-in user, stored as
// JSON under the user storage key.
type UserRecord struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Actor is the current user context: either an authenticated user with a
// session token, or the Guest placeholder. Exactly one Actor is active at a
// time.
type Actor struct {
	Kind  ActorKind
	User  User
	Token string
}

// IsGuest reports whether the actor is the transient Guest placeholder.
func (a *Actor) IsGuest() bool {
	return a != nil && a.Kind == ActorGuest
}

// TierResolution is the result of resolving the current storage tier.
// Actor is nil when nobody is signed in and no guest session is active.
type TierResolution struct {
	Tier  Tier
	Actor *Actor
}
