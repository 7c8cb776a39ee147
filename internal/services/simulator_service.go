// Package services provides the simulated assistant response engine.
package services

import (
	stdcontext "context"
	"fmt"
	"strings"
	"sync"
	"time"

	"softcode/internal/logger"
	"softcode/pkg/softtypes"

	"github.com/charmbracelet/log"
)

// SimulatorService produces simulated assistant replies. Each accepted
// submit runs one per-conversation job through the state sequence
// Typing -> Streaming -> Completed (or Typing -> Failed when failure
// injection is on). The user message is persisted before the typing
// indicator fires; streaming reveals are transient bus events and the store
// is only touched again when the full reply completes.
//
// Policy decisions:
//   - A submit on a conversation with an in-flight job is rejected until
//     that job reaches Completed or Failed.
//   - Jobs are cancellable; Cancel is idempotent and a cancelled job
//     performs no further store writes.
type SimulatorService struct {
	initialized bool

	mu         sync.Mutex
	jobs       map[string]*replyJob
	config     softtypes.SimulatorConfig
	replyIndex int

	logger *log.Logger
}

// replyJob tracks one in-flight simulated response.
type replyJob struct {
	state  softtypes.SimulatorState
	cancel stdcontext.CancelFunc
	done   chan struct{}
}

// inFlight reports whether the job still owns the conversation's reply slot.
func (j *replyJob) inFlight() bool {
	return j.state == softtypes.StateTyping || j.state == softtypes.StateStreaming
}

// NewSimulatorService creates a new SimulatorService instance.
func NewSimulatorService() *SimulatorService {
	return &SimulatorService{
		jobs:   make(map[string]*replyJob),
		config: softtypes.DefaultSimulatorConfig(),
	}
}

// Name returns the service name "simulator" for registration.
func (s *SimulatorService) Name() string {
	return "simulator"
}

// Initialize sets up the SimulatorService, pulling the timing profile from
// the configuration service when one is registered.
func (s *SimulatorService) Initialize() error {
	if configuration := GetConfigurationService(); configuration != nil {
		s.config = configuration.SimulatorConfig()
	}
	s.logger = logger.NewStyledLogger("Simulator")
	s.initialized = true
	return nil
}

// SetConfig replaces the timing and failure profile.
func (s *SimulatorService) SetConfig(config softtypes.SimulatorConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
}

// State returns the current job state for a conversation, StateIdle when no
// job has run.
func (s *SimulatorService) State(conversationID string) softtypes.SimulatorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[conversationID]; ok {
		return job.state
	}
	return softtypes.StateIdle
}

// Submit accepts user text for a conversation and schedules a simulated
// reply. Empty (after trimming) text is rejected as a no-op. When nobody is
// signed in a guest actor is created implicitly and reported in the result.
// The user message is appended and persisted synchronously before the method
// returns; the reply job then runs on its own timer-driven goroutine.
func (s *SimulatorService) Submit(conversationID, text string) softtypes.SubmitResult {
	if !s.initialized {
		return softtypes.SubmitResult{Reason: "simulator not initialized"}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return softtypes.SubmitResult{Reason: softtypes.RejectEmptyText}
	}

	conversations := GetConversationService()
	if conversations == nil {
		return softtypes.SubmitResult{Reason: "conversation store unavailable"}
	}

	guestCreated := false
	if identity := GetIdentityService(); identity != nil && identity.CurrentActor() == nil {
		identity.BeginGuest()
		guestCreated = true
		s.logger.Debug("implicit guest actor created", "conversation", conversationID)
	}

	if conversations.Get(conversationID) == nil {
		return softtypes.SubmitResult{Reason: softtypes.RejectUnknownConv, GuestCreated: guestCreated}
	}

	s.mu.Lock()
	if job, ok := s.jobs[conversationID]; ok && job.inFlight() {
		s.mu.Unlock()
		return softtypes.SubmitResult{Reason: softtypes.RejectReplyInFlight, GuestCreated: guestCreated}
	}

	// Persisted before the typing indicator ever fires.
	userMessage, err := conversations.AppendMessage(conversationID, softtypes.SenderUser, trimmed)
	if err != nil {
		s.mu.Unlock()
		return softtypes.SubmitResult{Reason: softtypes.RejectUnknownConv, GuestCreated: guestCreated}
	}

	jobContext, cancel := stdcontext.WithCancel(stdcontext.Background())
	job := &replyJob{
		state:  softtypes.StateTyping,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.jobs[conversationID] = job
	config := s.config
	reply := s.nextReply(trimmed)
	s.mu.Unlock()

	s.publish(softtypes.TopicTypingStarted, softtypes.TypingStartedEvent{ConversationID: conversationID})
	s.logger.Debug("reply scheduled", "conversation", conversationID, "state", softtypes.StateTyping)

	go s.run(jobContext, job, config, conversationID, userMessage.ID, reply)

	return softtypes.SubmitResult{
		Accepted:      true,
		GuestCreated:  guestCreated,
		UserMessageID: userMessage.ID,
	}
}

// Retry re-sends an error-flagged message: the flagged message is removed
// from the conversation (whole-set replace and persist) and its original
// text submitted again. Any lookup miss, including a message without the
// error flag, is a silent no-op.
func (s *SimulatorService) Retry(conversationID, messageID string) {
	conversations := GetConversationService()
	if conversations == nil {
		return
	}

	conversation := conversations.Get(conversationID)
	if conversation == nil {
		return
	}

	index := conversation.FindMessage(messageID)
	if index < 0 || !conversation.Messages[index].Error {
		return
	}

	text := conversation.Messages[index].Text
	if err := conversations.RemoveMessage(conversationID, messageID); err != nil {
		return
	}

	s.logger.Debug("retrying failed send", "conversation", conversationID)
	s.Submit(conversationID, text)
}

// Cancel aborts the in-flight job for a conversation, if any. Idempotent: a
// finished, cancelled, or missing job is a no-op. A cancelled job performs
// no further store writes.
func (s *SimulatorService) Cancel(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[conversationID]
	if !ok {
		return
	}
	job.cancel()
	if job.inFlight() {
		job.state = softtypes.StateIdle
		s.logger.Debug("reply cancelled", "conversation", conversationID)
	}
}

// Wait blocks until the conversation's current job finishes (completed,
// failed, or cancelled). Returns immediately when no job is running.
func (s *SimulatorService) Wait(conversationID string) {
	s.mu.Lock()
	job, ok := s.jobs[conversationID]
	s.mu.Unlock()
	if !ok {
		return
	}
	<-job.done
}

// run drives a single reply job through its states. All store writes are
// taken under the service mutex and double-checked against cancellation, so
// a cancelled job can never write a stale reply.
func (s *SimulatorService) run(jobContext stdcontext.Context, job *replyJob, config softtypes.SimulatorConfig, conversationID, userMessageID, reply string) {
	defer close(job.done)

	// Typing window: fixed latency before anything streams.
	if !sleepOrCancel(jobContext, config.TypingDelay) {
		return
	}

	conversations := GetConversationService()

	if config.FailSends {
		s.mu.Lock()
		if jobContext.Err() != nil {
			s.mu.Unlock()
			return
		}
		if conversations != nil {
			if err := conversations.FlagMessageError(conversationID, userMessageID); err != nil {
				s.logger.Debug("failed to flag message", "conversation", conversationID, "error", err)
			}
		}
		job.state = softtypes.StateFailed
		s.mu.Unlock()

		s.publish(softtypes.TopicSendFailed, softtypes.SendFailedEvent{
			ConversationID: conversationID,
			MessageID:      userMessageID,
		})
		s.logger.Debug("send failed", "conversation", conversationID, "state", softtypes.StateFailed)
		return
	}

	s.setState(job, softtypes.StateStreaming)

	// Word-by-word reveal. Each partial is a transient event; nothing is
	// persisted until the full text is out.
	words := strings.Fields(reply)
	revealed := make([]string, 0, len(words))
	for _, word := range words {
		if !sleepOrCancel(jobContext, config.WordInterval) {
			return
		}
		revealed = append(revealed, word)
		s.publish(softtypes.TopicStreamChunk, softtypes.StreamChunkEvent{
			ConversationID: conversationID,
			Text:           strings.Join(revealed, " "),
		})
	}

	s.mu.Lock()
	if jobContext.Err() != nil {
		s.mu.Unlock()
		return
	}
	var replyMessageID string
	if conversations != nil {
		message, err := conversations.AppendMessage(conversationID, softtypes.SenderAssistant, reply)
		if err != nil {
			s.logger.Debug("failed to append reply", "conversation", conversationID, "error", err)
		} else {
			replyMessageID = message.ID
		}
	}
	job.state = softtypes.StateCompleted
	s.mu.Unlock()

	s.publish(softtypes.TopicStreamCompleted, softtypes.StreamCompletedEvent{
		ConversationID: conversationID,
		MessageID:      replyMessageID,
	})
	s.logger.Debug("reply completed", "conversation", conversationID, "state", softtypes.StateCompleted)
}

// nextReply renders the next reply template with the user's text. Templates
// rotate across sends.
func (s *SimulatorService) nextReply(userText string) string {
	templates := s.config.ReplyTemplates
	if len(templates) == 0 {
		templates = []string{softtypes.DefaultReplyTemplate}
	}
	template := templates[s.replyIndex%len(templates)]
	s.replyIndex++

	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, userText)
	}
	return template
}

// setState updates a job's state under the service mutex.
func (s *SimulatorService) setState(job *replyJob, state softtypes.SimulatorState) {
	s.mu.Lock()
	if job.inFlight() {
		job.state = state
	}
	s.mu.Unlock()
}

// publish emits an event when the bus is available.
func (s *SimulatorService) publish(topic string, payload interface{}) {
	if events := GetEventService(); events != nil {
		events.Publish(topic, payload)
	}
}

// sleepOrCancel waits for d, returning false when the job was cancelled
// first.
func sleepOrCancel(ctx stdcontext.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
