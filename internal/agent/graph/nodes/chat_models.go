package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

// Fixed replies used when the decision model cannot produce one.
const (
	ApologyMessage    = "I'm sorry, I'm having trouble answering right now. Please try again."
	LimitReplyMessage = "I've gathered as much as I can for this request. Could you narrow it down so I can help further?"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey   string
	BaseURL  string
	Decision *model.DecisionModelConfig
}

// NewDecisionModel creates the Gemini decision model.
func NewDecisionModel(ctx context.Context, config ChatModelConfig) (einomodel.ToolCallingChatModel, error) {
	if config.Decision == nil {
		return nil, fmt.Errorf("decision model config is nil")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	cfg := &gemini.Config{
		Client:      client,
		Model:       config.Decision.Model,
		Temperature: &config.Decision.Temperature,
		MaxTokens:   &config.Decision.MaxTokens,
	}
	if config.Decision.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(config.Decision.ThinkingBudget),
		}
	}

	cm, err := gemini.NewChatModel(ctx, cfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating decision model")
		return nil, fmt.Errorf("error creating decision model: %w", err)
	}
	return cm, nil
}

// BindTools returns a decision model bound to the tool schemas, wrapped so
// that provider failures become the apology reply.
func BindTools(cm einomodel.ToolCallingChatModel, tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	bound, err := cm.WithTools(tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}

	logx.Debug().Int("tool_count", len(tools)).Msg("Successfully bound tools to decision model")
	return &fallbackModel{inner: bound}, nil
}

// fallbackModel never fails: an error or an empty response from the inner
// model is replaced by ApologyMessage.
type fallbackModel struct {
	inner einomodel.ToolCallingChatModel
}

func (f *fallbackModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	out, err := f.inner.Generate(ctx, in, opts...)
	if err != nil {
		logx.Error().Err(err).Msg("Decision model failed; replying with apology")
		return schema.AssistantMessage(ApologyMessage, nil), nil
	}
	if out == nil {
		logx.Warn().Msg("Decision model returned no message; replying with apology")
		return schema.AssistantMessage(ApologyMessage, nil), nil
	}
	return out, nil
}

// Stream is served by a single Generate call.
func (f *fallbackModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, _ := f.Generate(ctx, in, opts...)
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (f *fallbackModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	inner, err := f.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &fallbackModel{inner: inner}, nil
}

// IsCallbacksEnabled defers to the inner model so callbacks fire once.
func (f *fallbackModel) IsCallbacksEnabled() bool {
	if c, ok := f.inner.(components.Checker); ok {
		return c.IsCallbacksEnabled()
	}
	return false
}
