// Package storage implements the two storage tiers conversation data is
// routed to: a durable file-backed store that survives across sessions, and
// a session-scoped in-memory store that is discarded when the session ends.
// Both tiers hold opaque JSON blobs under well-known keys.
package storage

// Well-known storage keys. The durable and session conversation sets live
// under distinct keys so a tier switch never reads the wrong set.
const (
	// KeyConversations holds the durable conversation set.
	KeyConversations = "softcode_conversations_v1"
	// KeySessionConversations holds the session-scoped conversation set.
	KeySessionConversations = "softcode_conversations_session_v1"
	// KeyUser holds the authenticated user record {user, token}.
	KeyUser = "softcode_user"
	// KeyGuestActive marks an active guest session.
	KeyGuestActive = "softcode_guest_active"
	// KeyRestoreNoticeShown gates the one-time "conversation restored"
	// notification for the current session.
	KeyRestoreNoticeShown = "softcode_restore_notice_shown"
	// KeyGuestNoticeShown gates the one-time guest mode notice.
	KeyGuestNoticeShown = "softcode_guest_notice_shown"
)

// FlagSet is the value stored under boolean flag keys.
var FlagSet = []byte("1")
