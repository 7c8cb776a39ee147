package services

import (
	stdcontext "context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"softcode/pkg/softtypes"
)

func TestSimulatorService_Submit_RejectsEmptyText(t *testing.T) {
	_, conversations, simulator, _ := setupCoreServices(t)

	conversation := conversations.Create("")
	conversations.Add(conversation)

	result := simulator.Submit(conversation.ID, "   \t  ")
	assert.False(t, result.Accepted)
	assert.Equal(t, softtypes.RejectEmptyText, result.Reason)
	assert.Empty(t, conversations.Get(conversation.ID).Messages)
}

func TestSimulatorService_Submit_RejectsUnknownConversation(t *testing.T) {
	_, _, simulator, _ := setupCoreServices(t)

	result := simulator.Submit("no-such-conversation", "hello")
	assert.False(t, result.Accepted)
	assert.Equal(t, softtypes.RejectUnknownConv, result.Reason)
}

func TestSimulatorService_Submit_CreatesGuestImplicitly(t *testing.T) {
	identity, conversations, simulator, _ := setupCoreServices(t)

	conversation := conversations.Create("")
	conversations.Add(conversation)

	require.Nil(t, identity.CurrentActor())
	result := simulator.Submit(conversation.ID, "hello")
	require.True(t, result.Accepted)
	assert.True(t, result.GuestCreated)

	actor := identity.CurrentActor()
	require.NotNil(t, actor)
	assert.True(t, actor.IsGuest())
	simulator.Wait(conversation.ID)

	// Subsequent sends reuse the guest actor.
	second := simulator.Submit(conversation.ID, "again")
	require.True(t, second.Accepted)
	assert.False(t, second.GuestCreated)
	simulator.Wait(conversation.ID)
}

func TestSimulatorService_FullLifecycle(t *testing.T) {
	identity, conversations, simulator, _ := setupCoreServices(t)
	identity.BeginGuest()

	conversation := conversations.Create("")
	conversations.Add(conversation)

	result := simulator.Submit(conversation.ID, "hello world")
	require.True(t, result.Accepted)
	assert.NotEmpty(t, result.UserMessageID)

	// The user message is persisted before the reply arrives.
	stored := conversations.Get(conversation.ID)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, softtypes.SenderUser, stored.Messages[0].Sender)
	assert.Equal(t, "hello world", stored.Messages[0].Text)

	simulator.Wait(conversation.ID)
	assert.Equal(t, softtypes.StateCompleted, simulator.State(conversation.ID))

	stored = conversations.Get(conversation.ID)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, softtypes.SenderAssistant, stored.Messages[1].Sender)
	assert.Contains(t, stored.Messages[1].Text, "hello world")
	assert.False(t, stored.Messages[1].Error)
}

func TestSimulatorService_StreamChunks_GrowWordByWord(t *testing.T) {
	identity, conversations, simulator, events := setupCoreServices(t)
	identity.BeginGuest()

	conversation := conversations.Create("")
	conversations.Add(conversation)

	chunks, err := events.Subscribe(stdcontext.Background(), softtypes.TopicStreamChunk)
	require.NoError(t, err)
	completed, err := events.Subscribe(stdcontext.Background(), softtypes.TopicStreamCompleted)
	require.NoError(t, err)

	require.True(t, simulator.Submit(conversation.ID, "one two three").Accepted)
	simulator.Wait(conversation.ID)

	select {
	case msg := <-completed:
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("expected a completion event")
	}

	var partials []string
	for draining := true; draining; {
		select {
		case msg := <-chunks:
			var event softtypes.StreamChunkEvent
			require.NoError(t, DecodeEvent(msg, &event))
			partials = append(partials, event.Text)
			msg.Ack()
		case <-time.After(100 * time.Millisecond):
			draining = false
		}
	}

	require.NotEmpty(t, partials)
	// Each partial extends the previous one; the last is the full reply.
	for index := 1; index < len(partials); index++ {
		assert.True(t, strings.HasPrefix(partials[index], partials[index-1]),
			"partial %q does not extend %q", partials[index], partials[index-1])
	}
	final := conversations.Get(conversation.ID).LastMessage()
	require.NotNil(t, final)
	assert.Equal(t, final.Text, partials[len(partials)-1])
}

func TestSimulatorService_ConcurrentSubmit_RejectedUntilSettled(t *testing.T) {
	identity, conversations, simulator, _ := setupCoreServices(t)
	identity.BeginGuest()

	conversation := conversations.Create("")
	conversations.Add(conversation)

	slow := fastSimulatorConfig()
	slow.TypingDelay = 150 * time.Millisecond
	simulator.SetConfig(slow)

	first := simulator.Submit(conversation.ID, "first")
	require.True(t, first.Accepted)

	second := simulator.Submit(conversation.ID, "second")
	assert.False(t, second.Accepted)
	assert.Equal(t, softtypes.RejectReplyInFlight, second.Reason)

	// The rejected submit leaves no trace in the store.
	require.Len(t, conversations.Get(conversation.ID).Messages, 1)

	simulator.Wait(conversation.ID)
	require.Equal(t, softtypes.StateCompleted, simulator.State(conversation.ID))

	third := simulator.Submit(conversation.ID, "third")
	assert.True(t, third.Accepted)
	simulator.Wait(conversation.ID)
}

func TestSimulatorService_Cancel_WritesNothingAfterwards(t *testing.T) {
	identity, conversations, simulator, _ := setupCoreServices(t)
	identity.BeginGuest()

	conversation := conversations.Create("")
	conversations.Add(conversation)

	slow := fastSimulatorConfig()
	slow.TypingDelay = 200 * time.Millisecond
	simulator.SetConfig(slow)

	require.True(t, simulator.Submit(conversation.ID, "never answered").Accepted)
	simulator.Cancel(conversation.ID)
	simulator.Wait(conversation.ID)

	assert.Equal(t, softtypes.StateIdle, simulator.State(conversation.ID))

	stored := conversations.Get(conversation.ID)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, softtypes.SenderUser, stored.Messages[0].Sender)
	assert.False(t, stored.Messages[0].Error)

	// Cancel on a settled or missing job stays a no-op.
	simulator.Cancel(conversation.ID)
	simulator.Cancel("no-such-conversation")
	assert.Equal(t, softtypes.StateIdle, simulator.State(conversation.ID))
}

func TestSimulatorService_FailSends_FlagsMessageAndRetryRecovers(t *testing.T) {
	identity, conversations, simulator, events := setupCoreServices(t)
	identity.BeginGuest()

	conversation := conversations.Create("")
	conversations.Add(conversation)

	failing := fastSimulatorConfig()
	failing.FailSends = true
	simulator.SetConfig(failing)

	failed, err := events.Subscribe(stdcontext.Background(), softtypes.TopicSendFailed)
	require.NoError(t, err)

	result := simulator.Submit(conversation.ID, "doomed message")
	require.True(t, result.Accepted)
	simulator.Wait(conversation.ID)

	assert.Equal(t, softtypes.StateFailed, simulator.State(conversation.ID))

	stored := conversations.Get(conversation.ID)
	require.Len(t, stored.Messages, 1)
	assert.True(t, stored.Messages[0].Error)

	select {
	case msg := <-failed:
		var event softtypes.SendFailedEvent
		require.NoError(t, DecodeEvent(msg, &event))
		assert.Equal(t, result.UserMessageID, event.MessageID)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("expected a send failed event")
	}

	// Retry with failure injection off replaces the flagged message with a
	// fresh send that completes.
	simulator.SetConfig(fastSimulatorConfig())
	simulator.Retry(conversation.ID, result.UserMessageID)
	simulator.Wait(conversation.ID)

	stored = conversations.Get(conversation.ID)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "doomed message", stored.Messages[0].Text)
	assert.False(t, stored.Messages[0].Error)
	assert.NotEqual(t, result.UserMessageID, stored.Messages[0].ID)
	assert.Equal(t, softtypes.SenderAssistant, stored.Messages[1].Sender)
}

func TestSimulatorService_Retry_IgnoresUnflaggedMessage(t *testing.T) {
	identity, conversations, simulator, _ := setupCoreServices(t)
	identity.BeginGuest()

	conversation := conversations.Create("")
	conversations.Add(conversation)
	message, err := conversations.AppendMessage(conversation.ID, softtypes.SenderUser, "fine as is")
	require.NoError(t, err)

	simulator.Retry(conversation.ID, message.ID)
	simulator.Retry(conversation.ID, "no-such-message")
	simulator.Retry("no-such-conversation", message.ID)

	stored := conversations.Get(conversation.ID)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, message.ID, stored.Messages[0].ID)
	assert.Equal(t, softtypes.StateIdle, simulator.State(conversation.ID))
}

func TestSimulatorService_ReplyTemplates_Rotate(t *testing.T) {
	identity, conversations, simulator, _ := setupCoreServices(t)
	identity.BeginGuest()

	config := fastSimulatorConfig()
	config.ReplyTemplates = []string{"Alpha: %s", "Beta: %s"}
	simulator.SetConfig(config)

	conversation := conversations.Create("")
	conversations.Add(conversation)

	for _, text := range []string{"one", "two", "three"} {
		require.True(t, simulator.Submit(conversation.ID, text).Accepted)
		simulator.Wait(conversation.ID)
	}

	stored := conversations.Get(conversation.ID)
	require.Len(t, stored.Messages, 6)
	assert.Equal(t, "Alpha: one", stored.Messages[1].Text)
	assert.Equal(t, "Beta: two", stored.Messages[3].Text)
	assert.Equal(t, "Alpha: three", stored.Messages[5].Text)
}
