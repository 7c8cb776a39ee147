// Package services provides identity resolution and mock authentication.
package services

import (
	"encoding/json"
	"fmt"
	"time"

	"softcode/internal/context"
	"softcode/internal/logger"
	"softcode/internal/storage"
	"softcode/internal/testutils"
	"softcode/pkg/softtypes"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityService resolves the current actor and storage tier and owns the
// mock authentication flow: sign-in mints a session token and persists the
// user record durably, guests get a session-scoped marker, logout discards
// the durable record. Other services and the CLI reach it through the
// registry; there is no global login hook.
type IdentityService struct {
	initialized bool
	validate    *validator.Validate
}

// credentials is the validated sign-in/sign-up input. Authentication itself
// is mock: any well-formed email with a non-empty password is accepted.
type credentials struct {
	Name     string
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// sessionClaims is the JWT claim set of a minted mock session token.
type sessionClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewIdentityService creates a new IdentityService instance.
func NewIdentityService() *IdentityService {
	return &IdentityService{
		validate: validator.New(),
	}
}

// Name returns the service name "identity" for registration.
func (i *IdentityService) Name() string {
	return "identity"
}

// Initialize sets up the IdentityService for operation.
func (i *IdentityService) Initialize() error {
	i.initialized = true
	return nil
}

// ResolveTier determines the active actor and which storage tier applies.
// It is a pure read: a durable user record wins, then a session guest
// marker; with neither there is no actor and conversation routing stays on
// the session tier. Absent or corrupt storage data is a valid state, not a
// failure.
func (i *IdentityService) ResolveTier() softtypes.TierResolution {
	ctx := context.GetGlobalContext()

	if durable := ctx.DurableStore(); durable != nil {
		if raw, ok := durable.Get(storage.KeyUser); ok {
			var record softtypes.UserRecord
			if err := json.Unmarshal(raw, &record); err == nil && record.Token != "" {
				return softtypes.TierResolution{
					Tier: softtypes.TierDurable,
					Actor: &softtypes.Actor{
						Kind:  softtypes.ActorAuthenticated,
						User:  record.User,
						Token: record.Token,
					},
				}
			}
		}
	}

	if _, ok := ctx.SessionStore().Get(storage.KeyGuestActive); ok {
		return softtypes.TierResolution{
			Tier: softtypes.TierSession,
			Actor: &softtypes.Actor{
				Kind:  softtypes.ActorGuest,
				User:  softtypes.User{Name: softtypes.GuestName},
				Token: softtypes.GuestToken,
			},
		}
	}

	return softtypes.TierResolution{Tier: softtypes.TierSession}
}

// CurrentActor returns the active actor, resolving and caching it on first
// use. Returns nil when anonymous.
func (i *IdentityService) CurrentActor() *softtypes.Actor {
	ctx := context.GetGlobalContext()
	if actor := ctx.Actor(); actor != nil {
		return actor
	}
	resolution := i.ResolveTier()
	if resolution.Actor != nil {
		ctx.SetActor(resolution.Actor)
	}
	return resolution.Actor
}

// Login performs the mock sign-in: credentials are validated for shape only,
// a session JWT is minted, and the user record is persisted to the durable
// tier. The in-memory Conversation Set is torn down so the next load reads
// the durable tier. Guest to authenticated is a one-way promotion; the guest
// marker is cleared.
func (i *IdentityService) Login(name, email, password string) (*softtypes.Actor, error) {
	if !i.initialized {
		return nil, fmt.Errorf("identity service not initialized")
	}

	input := credentials{Name: name, Email: email, Password: password}
	if err := i.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	token, err := i.mintSessionToken(name, email)
	if err != nil {
		return nil, err
	}

	ctx := context.GetGlobalContext()
	record := softtypes.UserRecord{
		User:  softtypes.User{Name: name, Email: email},
		Token: token,
	}

	// Best-effort persistence: a failed write degrades to an in-memory
	// login for this session.
	if durable := ctx.DurableStore(); durable != nil {
		data, err := json.MarshalIndent(record, "", "  ")
		if err == nil {
			if err := durable.Set(storage.KeyUser, data); err != nil {
				logger.Warn("failed to persist user record", "error", err)
			}
		}
	}

	ctx.SessionStore().Delete(storage.KeyGuestActive)

	actor := &softtypes.Actor{
		Kind:  softtypes.ActorAuthenticated,
		User:  record.User,
		Token: token,
	}
	ctx.SetActor(actor)
	ctx.ClearConversationSet()

	logger.Info("signed in", "email", email)
	return actor, nil
}

// Logout discards the durable user record and returns to the anonymous
// state. The Conversation Set is torn down so subsequent loads route by the
// freshly resolved tier.
func (i *IdentityService) Logout() {
	if !i.initialized {
		return
	}

	ctx := context.GetGlobalContext()
	if durable := ctx.DurableStore(); durable != nil {
		durable.Delete(storage.KeyUser)
	}
	ctx.SetActor(nil)
	ctx.ClearConversationSet()

	logger.Info("signed out")
}

// BeginGuest installs the transient Guest actor and marks the session as
// guest mode. Safe to call when a guest is already active.
func (i *IdentityService) BeginGuest() *softtypes.Actor {
	ctx := context.GetGlobalContext()
	_ = ctx.SessionStore().Set(storage.KeyGuestActive, storage.FlagSet)

	actor := &softtypes.Actor{
		Kind:  softtypes.ActorGuest,
		User:  softtypes.User{Name: softtypes.GuestName},
		Token: softtypes.GuestToken,
	}
	ctx.SetActor(actor)
	return actor
}

// ShouldShowGuestNotice reports whether the one-time guest notice is still
// pending for this session.
func (i *IdentityService) ShouldShowGuestNotice() bool {
	ctx := context.GetGlobalContext()
	if actor := ctx.Actor(); !actor.IsGuest() {
		return false
	}
	_, shown := ctx.SessionStore().Get(storage.KeyGuestNoticeShown)
	return !shown
}

// MarkGuestNoticeShown records that the guest notice was displayed, gating
// it for the rest of the session.
func (i *IdentityService) MarkGuestNoticeShown() {
	ctx := context.GetGlobalContext()
	_ = ctx.SessionStore().Set(storage.KeyGuestNoticeShown, storage.FlagSet)
}

// mintSessionToken creates the mock HS256 session token stored in the user
// record. Nothing verifies these tokens; they exist so the persisted record
// carries a plausible credential shape.
func (i *IdentityService) mintSessionToken(name, email string) (string, error) {
	secret := "softcode-mock-secret"
	if configuration := GetConfigurationService(); configuration != nil {
		secret = configuration.JWTSecret()
	}

	ctx := context.GetGlobalContext()
	now := testutils.GetCurrentTime(ctx)

	claims := sessionClaims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "softcode",
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}
