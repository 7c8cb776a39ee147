package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"softcode/internal/context"
	"softcode/internal/storage"
	"softcode/internal/testutils"
	"softcode/pkg/softtypes"
)

// setupCoreServices builds a fresh context and registry with the event,
// identity, conversation, and simulator services initialized. The durable
// tier is an in-memory backend so tests never touch the filesystem, and the
// simulator runs with millisecond timings.
func setupCoreServices(t *testing.T) (*IdentityService, *ConversationService, *SimulatorService, *EventService) {
	t.Helper()
	testutils.ResetTestCounters()

	ctx := context.New()
	ctx.SetTestMode(true)
	ctx.SetDurableStore(storage.NewSessionBackend())
	context.SetGlobalContext(ctx)

	registry := NewRegistry()
	events := NewEventService()
	identity := NewIdentityService()
	conversations := NewConversationService()
	simulator := NewSimulatorService()

	for _, service := range []softtypes.Service{events, identity, conversations, simulator} {
		require.NoError(t, registry.RegisterService(service))
	}
	SetGlobalRegistry(registry)
	require.NoError(t, registry.InitializeAll())

	simulator.SetConfig(fastSimulatorConfig())

	t.Cleanup(func() {
		_ = events.Close()
	})

	return identity, conversations, simulator, events
}

// fastSimulatorConfig keeps the state machine intact but collapses the
// timers so tests finish quickly.
func fastSimulatorConfig() softtypes.SimulatorConfig {
	return softtypes.SimulatorConfig{
		TypingDelay:    2 * time.Millisecond,
		WordInterval:   time.Millisecond,
		ReplyTemplates: []string{softtypes.DefaultReplyTemplate},
	}
}
