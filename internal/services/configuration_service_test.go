package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"softcode/internal/context"
	"softcode/internal/storage"
)

func setupConfigurationService(t *testing.T) *ConfigurationService {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	ctx := context.New()
	ctx.SetTestMode(true)
	context.SetGlobalContext(ctx)

	t.Setenv("SOFTCODE_STORAGE_DIR", t.TempDir())
	return NewConfigurationService()
}

func TestConfigurationService_Defaults(t *testing.T) {
	configuration := setupConfigurationService(t)
	require.NoError(t, configuration.Initialize())

	config := configuration.Config()
	assert.Equal(t, 700, config.TypingDelayMs)
	assert.Equal(t, 40, config.WordIntervalMs)
	assert.False(t, config.FailSends)
	assert.Equal(t, "softcode-mock-secret", config.JWTSecret)

	simulator := configuration.SimulatorConfig()
	assert.Equal(t, 700*time.Millisecond, simulator.TypingDelay)
	assert.Equal(t, 40*time.Millisecond, simulator.WordInterval)
	require.Len(t, simulator.ReplyTemplates, 1)
}

func TestConfigurationService_EnvironmentOverrides(t *testing.T) {
	configuration := setupConfigurationService(t)
	t.Setenv("SOFTCODE_TYPING_DELAY_MS", "100")
	t.Setenv("SOFTCODE_WORD_INTERVAL_MS", "5")
	t.Setenv("SOFTCODE_FAIL_SENDS", "true")

	require.NoError(t, configuration.Initialize())

	simulator := configuration.SimulatorConfig()
	assert.Equal(t, 100*time.Millisecond, simulator.TypingDelay)
	assert.Equal(t, 5*time.Millisecond, simulator.WordInterval)
	assert.True(t, simulator.FailSends)
}

func TestConfigurationService_RejectsInvalidTimings(t *testing.T) {
	configuration := setupConfigurationService(t)
	t.Setenv("SOFTCODE_TYPING_DELAY_MS", "0")

	assert.Error(t, configuration.Initialize())
}

func TestConfigurationService_InstallsDurableBackend(t *testing.T) {
	configuration := setupConfigurationService(t)
	require.NoError(t, configuration.Initialize())

	durable := context.GetGlobalContext().DurableStore()
	require.NotNil(t, durable)

	backend, ok := durable.(*storage.FileBackend)
	require.True(t, ok)
	assert.Equal(t, configuration.Config().StorageDir, backend.Dir())
}

func TestConfigurationService_ReplyTemplateFile(t *testing.T) {
	configuration := setupConfigurationService(t)

	path := filepath.Join(t.TempDir(), "replies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - \"Got it: %s\"\n  - \"Noted.\"\n"), 0644))
	t.Setenv("SOFTCODE_REPLIES_FILE", path)

	require.NoError(t, configuration.Initialize())

	templates := configuration.SimulatorConfig().ReplyTemplates
	assert.Equal(t, []string{"Got it: %s", "Noted."}, templates)
}

func TestConfigurationService_IgnoresBrokenReplyTemplateFile(t *testing.T) {
	configuration := setupConfigurationService(t)
	t.Setenv("SOFTCODE_REPLIES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, configuration.Initialize())

	templates := configuration.SimulatorConfig().ReplyTemplates
	require.Len(t, templates, 1)
}

func TestConfigurationService_AccessorsBeforeInitialize(t *testing.T) {
	configuration := NewConfigurationService()

	assert.Equal(t, "softcode-mock-secret", configuration.JWTSecret())
	assert.Equal(t, 700*time.Millisecond, configuration.SimulatorConfig().TypingDelay)
}
