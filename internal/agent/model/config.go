package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	// MaxHistory bounds the messages sent to the decision model; 0 sends the
	// full transcript. The system prompt is always kept.
	MaxHistory   int      `envconfig:"CONVERSATION_MAX_HISTORY" default:"0"`
	ExitKeywords []string `envconfig:"CONVERSATION_EXIT_KEYWORDS" default:"quit,exit,bye"`
	Tools        struct {
		MaxCalls    int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"10"`
		Parallelism int `envconfig:"TOOL_PARALLELISM" default:"4"`
	}
}

type DecisionModelConfig struct {
	Model       string  `envconfig:"DECISION_MODEL" default:"gemini-2.0-flash"`
	MaxTokens   int     `envconfig:"DECISION_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"DECISION_TEMPERATURE" default:"0.56"`
	// ThinkingBudget enables Gemini thinking when positive; 2.0 models reject it.
	ThinkingBudget int32 `envconfig:"DECISION_THINKING_BUDGET" default:"0"`
}

type PromptConfig struct {
	StoreType string `envconfig:"PROMPT_STORE_TYPE" default:"online grocery store"`
	StoreName string `envconfig:"PROMPT_STORE_NAME" default:"FreshCart"`
}

type MatchConfig struct {
	Threshold int `envconfig:"FUZZY_SCORE_THRESHOLD" default:"75"`
}

type CatalogConfig struct {
	DB       string        `envconfig:"CATALOG_DB" default:"data/catalog.db"`
	CSV      string        `envconfig:"CATALOG_CSV"`
	CacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"10m"`
}
