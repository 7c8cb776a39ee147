// Package services provides configuration management for SoftCode.
package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"softcode/internal/context"
	"softcode/internal/logger"
	"softcode/internal/storage"
	"softcode/pkg/softtypes"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the resolved application configuration. Values come from, in
// order of precedence: CLI flags (bound to viper by main), environment
// variables with the SOFTCODE prefix, a .env file, and built-in defaults.
type Config struct {
	StorageDir     string `mapstructure:"storage-dir" validate:"required"`
	TypingDelayMs  int    `mapstructure:"typing-delay-ms" validate:"gt=0"`
	WordIntervalMs int    `mapstructure:"word-interval-ms" validate:"gt=0"`
	FailSends      bool   `mapstructure:"fail-sends"`
	JWTSecret      string `mapstructure:"jwt-secret" validate:"required"`
	RepliesFile    string `mapstructure:"replies-file"`
}

// ConfigurationService resolves configuration and installs the durable
// storage backend on the global context.
type ConfigurationService struct {
	initialized bool
	config      Config
	simulator   softtypes.SimulatorConfig
	validate    *validator.Validate
}

// NewConfigurationService creates a new ConfigurationService instance.
func NewConfigurationService() *ConfigurationService {
	return &ConfigurationService{
		validate: validator.New(),
	}
}

// Name returns the service name "configuration" for registration.
func (c *ConfigurationService) Name() string {
	return "configuration"
}

// Initialize resolves the configuration, validates it, and wires the durable
// file backend into the context. The session backend is already in place.
func (c *ConfigurationService) Initialize() error {
	// Best-effort .env loading; a missing file is the normal case.
	_ = godotenv.Load()

	viper.SetEnvPrefix("SOFTCODE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("typing-delay-ms", 700)
	viper.SetDefault("word-interval-ms", 40)
	viper.SetDefault("fail-sends", false)
	viper.SetDefault("jwt-secret", "softcode-mock-secret")

	config := Config{
		StorageDir:     viper.GetString("storage-dir"),
		TypingDelayMs:  viper.GetInt("typing-delay-ms"),
		WordIntervalMs: viper.GetInt("word-interval-ms"),
		FailSends:      viper.GetBool("fail-sends"),
		JWTSecret:      viper.GetString("jwt-secret"),
		RepliesFile:    viper.GetString("replies-file"),
	}

	if config.StorageDir == "" {
		dir, err := storage.DefaultStorageDir()
		if err != nil {
			return err
		}
		config.StorageDir = dir
	}

	if err := c.validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	simulator := softtypes.SimulatorConfig{
		TypingDelay:    time.Duration(config.TypingDelayMs) * time.Millisecond,
		WordInterval:   time.Duration(config.WordIntervalMs) * time.Millisecond,
		FailSends:      config.FailSends,
		ReplyTemplates: []string{softtypes.DefaultReplyTemplate},
	}
	if config.RepliesFile != "" {
		templates, err := loadReplyTemplates(config.RepliesFile)
		if err != nil {
			logger.Warn("ignoring reply template file", "path", config.RepliesFile, "error", err)
		} else {
			simulator.ReplyTemplates = templates
		}
	}
	if err := c.validate.Struct(simulator); err != nil {
		return fmt.Errorf("invalid simulator configuration: %w", err)
	}

	ctx := context.GetGlobalContext()
	ctx.SetDurableStore(storage.NewFileBackend(config.StorageDir))

	c.config = config
	c.simulator = simulator
	c.initialized = true

	logger.Debug("configuration resolved", "storage_dir", config.StorageDir,
		"typing_delay_ms", config.TypingDelayMs, "word_interval_ms", config.WordIntervalMs)
	return nil
}

// Config returns the resolved configuration.
func (c *ConfigurationService) Config() Config {
	return c.config
}

// SimulatorConfig returns the timing and failure profile for the response
// simulator.
func (c *ConfigurationService) SimulatorConfig() softtypes.SimulatorConfig {
	if !c.initialized {
		return softtypes.DefaultSimulatorConfig()
	}
	return c.simulator
}

// JWTSecret returns the signing secret for mock session tokens.
func (c *ConfigurationService) JWTSecret() string {
	if !c.initialized {
		return "softcode-mock-secret"
	}
	return c.config.JWTSecret
}

// replyTemplateFile is the YAML layout of an optional reply template file.
type replyTemplateFile struct {
	Templates []string `yaml:"templates"`
}

// loadReplyTemplates reads assistant reply templates from a YAML file. Each
// template may contain one %s verb for the echoed user text.
func loadReplyTemplates(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply templates: %w", err)
	}

	var file replyTemplateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse reply templates: %w", err)
	}
	if len(file.Templates) == 0 {
		return nil, fmt.Errorf("reply template file %s contains no templates", path)
	}

	return file.Templates, nil
}
