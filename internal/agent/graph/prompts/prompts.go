package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
)

//go:embed template/system_prompt.txt
var coreSystemPrompt string

//go:embed template/welcome_message.txt
var welcomeMessage string

// Rendered is the seed of a new dialogue.
type Rendered struct {
	System  string
	Welcome string
}

// RenderSessionSeed renders the system prompt and the welcome message via the
// Eino prompt component (Go template) so prompt callbacks fire.
func RenderSessionSeed(ctx context.Context, config model.PromptConfig, categories []string) (Rendered, error) {
	listed := "(none available right now)"
	if len(categories) > 0 {
		listed = strings.Join(categories, ", ")
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coreSystemPrompt),
		schema.AssistantMessage(welcomeMessage, nil),
	)
	vars := map[string]any{
		"StoreType":  config.StoreType,
		"StoreName":  config.StoreName,
		"Categories": listed,
		"AddTool":    tools.ToolAddToCart,
		"RemoveTool": tools.ToolRemoveFromCart,
		"ModifyTool": tools.ToolModifyCart,
		"ClearTool":  tools.ToolClearCart,
		"ViewTool":   tools.ToolViewCart,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return Rendered{}, fmt.Errorf("session prompt render: %w", err)
	}
	if len(msgs) != 2 || msgs[0] == nil || msgs[1] == nil {
		return Rendered{}, fmt.Errorf("session prompt render: unexpected result")
	}
	return Rendered{
		System:  strings.TrimSpace(msgs[0].Content),
		Welcome: strings.TrimSpace(msgs[1].Content),
	}, nil
}

// ToolLimitNotice is the transient instruction sent once the per-turn tool
// budget is spent.
func ToolLimitNotice(maxToolCalls int) *schema.Message {
	return schema.SystemMessage(fmt.Sprintf(
		"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
			"Please synthesize a helpful response using the information you've already gathered. "+
			"Acknowledge any limitations in your response if you couldn't complete all necessary tool calls.",
		maxToolCalls,
	))
}
