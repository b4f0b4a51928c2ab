package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/core"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
	pkgredis "github.com/Chative-core-poc-v1/shopping-assistant/pkg/redis"
)

// AppConfig defines all configurable parameters of the assistant,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis   pkgredis.Config
	Catalog model.CatalogConfig

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Decision     model.DecisionModelConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig
	Match        model.MatchConfig
}

// loadConfig reads the optional env file, then binds the environment.
func loadConfig(envFile string) (AppConfig, error) {
	var cfg AppConfig
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not load %s file: %v\n", envFile, err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process environment config: %w", err)
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
