// Package main provides the SoftCode CLI application entry point.
// SoftCode is a local chat demo: conversations are persisted to a durable or
// session-scoped store depending on who is signed in, and assistant replies
// are simulated with a typing delay and word-by-word streaming.
package main

import (
	"bufio"
	stdcontext "context"
	"fmt"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"softcode/internal/context"
	"softcode/internal/logger"
	"softcode/internal/services"
	"softcode/internal/version"
	"softcode/pkg/softtypes"
)

var (
	logLevel   string
	logFile    string
	testMode   bool
	storageDir string
	failSends  bool
	loginName  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "softcode",
	Short: "SoftCode - local AI chat demo",
	Long: `SoftCode is a local chat demo with mock authentication and simulated
assistant replies. Signed-in users get durable conversation storage; guests
keep their chats for the current session only.`,
	Run: runChat,
}

// chatCmd represents the chat command (explicit version of default behavior)
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long:  `Start an interactive chat. Replies stream word by word; /quit exits.`,
	Run:   runChat,
}

var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Sign in (mock auth, any non-empty credentials)",
	Args:  cobra.ExactArgs(2),
	Run:   runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard the stored user record",
	Run:   runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current actor and storage tier",
	Run:   runWhoami,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored conversations for the current tier",
	Run:   runList,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.GetFormattedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "Run in deterministic test mode")
	rootCmd.PersistentFlags().StringVar(&storageDir, "storage-dir", "", "Override durable storage directory")
	rootCmd.PersistentFlags().BoolVar(&failSends, "fail-sends", false, "Simulate send failures (demo of the retry flow)")
	loginCmd.Flags().StringVar(&loginName, "name", "", "Display name for the signed-in user")

	for flag, lookup := range map[string]string{
		"storage-dir": "storage-dir",
		"fail-sends":  "fail-sends",
	} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(lookup)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initApp)
}

// initApp configures logging and brings the service layer up before any
// command runs.
func initApp() {
	if err := logger.Configure(logLevel, logFile, testMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.New()
	ctx.SetTestMode(testMode)
	context.SetGlobalContext(ctx)

	registry := services.GetGlobalRegistry()
	if err := services.RegisterCoreServices(registry); err != nil {
		logger.Fatal("failed to register services", "error", err)
	}
	if err := registry.InitializeAll(); err != nil {
		logger.Fatal("failed to initialize services", "error", err)
	}
}

func runLogin(_ *cobra.Command, args []string) {
	identity := services.GetIdentityService()
	actor, err := identity.Login(loginName, args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Signed in as %s. Conversations are now stored durably.\n", actor.User.Email)
}

func runLogout(_ *cobra.Command, _ []string) {
	services.GetIdentityService().Logout()
	fmt.Println("Signed out.")
}

func runWhoami(_ *cobra.Command, _ []string) {
	resolution := services.GetIdentityService().ResolveTier()
	switch {
	case resolution.Actor == nil:
		fmt.Println("Not signed in (anonymous).")
	case resolution.Actor.IsGuest():
		fmt.Println("Guest session (conversations kept for this session only).")
	default:
		fmt.Printf("Signed in as %s (durable storage).\n", resolution.Actor.User.Email)
	}
	fmt.Printf("Storage tier: %s\n", resolution.Tier)
}

func runList(_ *cobra.Command, _ []string) {
	conversations := services.GetConversationService().Load()
	if len(conversations) == 0 {
		fmt.Println("No stored conversations.")
		return
	}
	for _, conversation := range conversations {
		fmt.Printf("%s  %-30s  %d messages\n", conversation.ID, conversation.Title, len(conversation.Messages))
	}
}

func runChat(_ *cobra.Command, _ []string) {
	identity := services.GetIdentityService()
	conversations := services.GetConversationService()
	simulator := services.GetSimulatorService()

	renderCtx, stopRender := stdcontext.WithCancel(stdcontext.Background())
	defer stopRender()
	startRenderer(renderCtx)

	conversations.Load()
	conversation := conversations.Create("")
	conversations.Add(conversation)

	fmt.Println("SoftCode chat. Type a message, /retry to resend a failed message, /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "/quit":
			return
		case line == "/retry":
			retryLastFailed(simulator, conversations, conversation.ID)
			simulator.Wait(conversation.ID)
			continue
		case line == "":
			continue
		}

		result := simulator.Submit(conversation.ID, line)
		if !result.Accepted {
			fmt.Printf("(not sent: %s)\n", result.Reason)
			continue
		}
		if result.GuestCreated && identity.ShouldShowGuestNotice() {
			fmt.Println("(chatting as guest; conversations last for this session only)")
			identity.MarkGuestNoticeShown()
		}
		simulator.Wait(conversation.ID)
	}
}

// retryLastFailed resends the most recent error-flagged message, if any.
func retryLastFailed(simulator *services.SimulatorService, conversations *services.ConversationService, conversationID string) {
	conversation := conversations.Get(conversationID)
	if conversation == nil {
		return
	}
	for index := len(conversation.Messages) - 1; index >= 0; index-- {
		if conversation.Messages[index].Error {
			simulator.Retry(conversationID, conversation.Messages[index].ID)
			return
		}
	}
	fmt.Println("(nothing to retry)")
}

// startRenderer subscribes to the core's observable events and prints them.
// This is the whole "view layer" of the demo.
func startRenderer(ctx stdcontext.Context) {
	events := services.GetEventService()

	subscribe := func(topic string, handle func(msg *message.Message)) {
		messages, err := events.Subscribe(ctx, topic)
		if err != nil {
			logger.Warn("subscribe failed", "topic", topic, "error", err)
			return
		}
		go func() {
			for msg := range messages {
				handle(msg)
				msg.Ack()
			}
		}()
	}

	subscribe(softtypes.TopicConversationRestored, func(msg *message.Message) {
		var event softtypes.ConversationRestoredEvent
		if err := services.DecodeEvent(msg, &event); err == nil {
			fmt.Printf("(restored %d conversation(s) from this session)\n", event.Count)
		}
	})
	subscribe(softtypes.TopicTypingStarted, func(*message.Message) {
		fmt.Print("assistant is typing...\r")
	})
	subscribe(softtypes.TopicStreamChunk, func(msg *message.Message) {
		var event softtypes.StreamChunkEvent
		if err := services.DecodeEvent(msg, &event); err == nil {
			fmt.Printf("\r\033[K%s", event.Text)
		}
	})
	subscribe(softtypes.TopicStreamCompleted, func(*message.Message) {
		fmt.Println()
	})
	subscribe(softtypes.TopicSendFailed, func(*message.Message) {
		fmt.Println("\r\033[Ksend failed; type /retry to resend")
	})
}
