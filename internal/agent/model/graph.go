package model

import "github.com/cloudwego/eino/schema"

// AppState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - Dialogue points at the session-owned DialogueState; the graph is its only
//     writer while a turn is running.
type AppState struct {
	ConversationID       string
	Dialogue             *DialogueState
	ToolCallCount        int      // tool requests dispatched this turn
	ToolCallLimitReached bool     // set once the per-turn budget is spent
	ToolCallIDSeq        int      // local sequence to synthesize tool_call_id when provider omits
	Dispatched           []string // tool names dispatched since the last reconciliation

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// TurnInput is the input for one user turn.
type TurnInput struct {
	ConversationID string
	Dialogue       *DialogueState
	Query          string
}

// Message Extra keys used on tool-result messages.
const (
	ExtraToolName   = "tool_name"
	ExtraToolStatus = "tool_status"
	ExtraUsageCost  = "usage_cost"
	ExtraTotalCost  = "usage_cost_total_usd"
)

// ToolNameOf returns the tool name recorded on a tool-result message.
func ToolNameOf(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	if msg.ToolName != "" {
		return msg.ToolName
	}
	if v, ok := msg.Extra[ExtraToolName].(string); ok {
		return v
	}
	return ""
}
