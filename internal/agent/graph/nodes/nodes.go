package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/dispatch"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/reconcile"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/cart"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

// NewInputConverterPreHandler creates the pre-handler for InputConverter node
func NewInputConverterPreHandler() func(context.Context, model.TurnInput, *model.AppState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.AppState) (model.TurnInput, error) {
		if in.Dialogue == nil {
			return in, fmt.Errorf("dialogue state is nil")
		}
		s.ConversationID = in.ConversationID
		s.Dialogue = in.Dialogue
		// Reset tool call counter and limit flag for each new query
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.Dispatched = nil
		// Reset accumulated total cost for each new query
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode records the user's utterance in the transcript.
func NewInputConverterNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) ([]*schema.Message, error) {
		mm.AddUserMessage(input.Dialogue, input.Query)
		return input.Dialogue.Messages, nil
	})
}

// NewDecisionPreHandler replaces the node input with the decision context
// built from the transcript, adding the wrap-up notice once the tool budget
// is spent.
func NewDecisionPreHandler(mm *conversations.MessagesManager, maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		var notices []*schema.Message
		if checkAndMarkToolLimit(state, maxToolCalls) {
			notices = append(notices, prompts.ToolLimitNotice(normalizeMaxToolCalls(maxToolCalls)))
		}

		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Bool("tool_limit_reached", state.ToolCallLimitReached).
			Msg("AI thinking...")

		return mm.BuildDecisionContext(state.Dialogue, notices...), nil
	}
}

// NewDecisionPostHandler accounts cost, normalises tool-call ids, enforces the
// tool budget and records the decision in the transcript.
func NewDecisionPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out == nil {
			out = schema.AssistantMessage(ApologyMessage, nil)
		}

		// Compute usage cost if available
		if u, ok := model.UsageOf(out, modelName); ok {
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra[model.ExtraUsageCost] = u
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("node", NodeDecision).
				Str("model", modelName).
				Int("prompt_tokens", u.PromptTokens).
				Int("completion_tokens", u.CompletionTokens).
				Int("total_tokens", u.TotalTokens).
				Float64("input_cost_usd", u.InputCost).
				Float64("output_cost_usd", u.OutputCost).
				Float64("total_cost_usd", u.TotalCost).
				Msg("LLM usage")

			// Accumulate only total cost into state
			state.TotalCostUSD += u.TotalCost
			out.Extra[model.ExtraTotalCost] = state.TotalCostUSD
		}

		normalizeToolCallIDs(state, out)

		if state.ToolCallLimitReached && len(out.ToolCalls) > 0 {
			logx.Warn().
				Str("conversation_id", state.ConversationID).
				Int("dropped_tool_calls", len(out.ToolCalls)).
				Int("tool_call_count", state.ToolCallCount).
				Msg("Tool call limit reached - dropping further tool requests")
			out.ToolCalls = nil
			if strings.TrimSpace(out.Content) == "" {
				out.Content = LimitReplyMessage
			}
		}
		if len(out.ToolCalls) == 0 && strings.TrimSpace(out.Content) == "" {
			logx.Warn().Str("conversation_id", state.ConversationID).Msg("Empty decision; replying with apology")
			out.Content = ApologyMessage
		}
		out.Role = schema.Assistant

		mm.AddDecision(state.Dialogue, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}
		return out, nil
	}
}

// normalizeToolCallIDs fills empty tool-call ids with call_N values not used
// elsewhere in the message. Non-empty ids are kept as sent; Gemini uses the
// function name as the id, so repeated tools share one.
func normalizeToolCallIDs(state *model.AppState, out *schema.Message) {
	taken := make(map[string]bool, len(out.ToolCalls))
	for _, c := range out.ToolCalls {
		if id := strings.TrimSpace(c.ID); id != "" {
			taken[id] = true
		}
	}
	for i := range out.ToolCalls {
		if strings.TrimSpace(out.ToolCalls[i].ID) != "" {
			continue
		}
		id := ""
		for id == "" || taken[id] {
			state.ToolCallIDSeq++
			id = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
		}
		out.ToolCalls[i].ID = id
		taken[id] = true
	}
}

// NewDecisionCondition routes on the decision: no requests end the turn, a
// leading view_cart request reads the cart, anything else executes tools.
func NewDecisionCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		if input == nil || len(input.ToolCalls) == 0 {
			logx.Debug().Msg("No tool calls - continuing to end")
			return compose.END, nil
		}
		if input.ToolCalls[0].Function.Name == tools.ToolViewCart {
			logx.Debug().Msg("Routing to ViewCart")
			return NodeViewCart, nil
		}
		logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
		return NodeToolExecutor, nil
	}
}

// NewToolExecutorNode dispatches every request of the decision and records
// one result message per request, in request order.
func NewToolExecutorNode(
	d *dispatch.Dispatcher,
	mm *conversations.MessagesManager,
	maxToolCalls int,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *schema.Message) ([]*schema.Message, error) {
		calls := make([]schema.ToolCall, len(in.ToolCalls))
		for i, c := range in.ToolCalls {
			c.Function.Arguments = tools.Sanitize(c.Function.Arguments)
			calls[i] = c
		}

		results := d.Dispatch(ctx, calls)

		var added []*schema.Message
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			for _, c := range calls {
				args, _ := tools.ParseArgs(c.Function.Arguments)
				state.Dialogue.Slots.Observe(args)
				state.Dispatched = append(state.Dispatched, c.Function.Name)
			}

			if incrementToolCallAndCheck(state, len(calls), maxToolCalls) {
				logx.Warn().
					Int("tool_call_count", state.ToolCallCount).
					Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
					Str("conversation_id", state.ConversationID).
					Msg("Tool call limit reached - flagging and continuing")
			}

			start := len(state.Dialogue.Messages)
			mm.AddToolResults(state.Dialogue, results)
			added = state.Dialogue.Messages[start:]
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return added, nil
	})
}

// NewReconcileNode applies the cart intents of all results recorded since the
// last reconciliation when the round dispatched a cart request. A view_cart
// request sent after other requests is then answered from the updated cart.
func NewReconcileNode(engine *reconcile.Engine) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in []*schema.Message) ([]*schema.Message, error) {
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			if mutatesCart(state.Dispatched) {
				rep := engine.Reconcile(state.ConversationID, state.Dialogue)
				logx.Debug().
					Str("conversation_id", state.ConversationID).
					Strs("tools_dispatched", state.Dispatched).
					Int("cart_changes", rep.Applied()).
					Msg("Reconciliation finished")
			} else {
				state.Dialogue.ReconciledThrough = len(state.Dialogue.Messages)
			}
			answerCartViews(state.Dialogue.Cart, in)
			state.Dispatched = nil
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return in, nil
	})
}

func mutatesCart(dispatched []string) bool {
	for _, name := range dispatched {
		if tools.IsCartMutation(name) {
			return true
		}
	}
	return false
}

// answerCartViews rewrites view_cart results in place with the live cart.
func answerCartViews(c *cart.State, results []*schema.Message) {
	for _, m := range results {
		if m == nil || model.ToolNameOf(m) != tools.ToolViewCart {
			continue
		}
		*m = *tools.ToolResult{
			CorrelationID: m.ToolCallID,
			Name:          tools.ToolViewCart,
			Result:        cartSummary(c),
		}.Message()
	}
}

// CartView is the payload of a successful view_cart result.
type CartView struct {
	Items  []cart.Line `json:"items"`
	Totals cart.Totals `json:"totals"`
}

// NewViewCartNode answers a leading view_cart request from the cart itself.
// Requests sent alongside it are answered with an error result so every
// request has exactly one result message.
func NewViewCartNode(mm *conversations.MessagesManager, maxToolCalls int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *schema.Message) ([]*schema.Message, error) {
		var added []*schema.Message
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			results := make([]tools.ToolResult, len(in.ToolCalls))
			for i, c := range in.ToolCalls {
				results[i] = tools.ToolResult{CorrelationID: c.ID, Name: c.Function.Name, Arguments: c.Function.Arguments}
				if i == 0 {
					results[i].Result = cartSummary(state.Dialogue.Cart)
					continue
				}
				results[i].Result = tools.Failure{
					Message: fmt.Sprintf("not executed: %s was requested together with %s; request it again", c.Function.Name, tools.ToolViewCart),
				}
			}

			incrementToolCallAndCheck(state, 1, maxToolCalls)

			start := len(state.Dialogue.Messages)
			mm.AddToolResults(state.Dialogue, results)
			// nothing here mutates the cart
			state.Dialogue.ReconciledThrough = len(state.Dialogue.Messages)
			added = state.Dialogue.Messages[start:]

			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Int("cart_lines", state.Dialogue.Cart.Len()).
				Int("skipped_requests", len(in.ToolCalls)-1).
				Msg("Cart viewed")
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return added, nil
	})
}

func cartSummary(c *cart.State) tools.Result {
	if c == nil {
		return tools.Empty{Message: "Your cart is empty."}
	}
	lines, totals := c.Snapshot()
	if len(lines) == 0 {
		return tools.Empty{Message: "Your cart is empty."}
	}
	return tools.Success{
		Message: fmt.Sprintf("Your cart has %d item(s) across %d line(s), total $%.2f.", totals.Quantity, totals.Lines, totals.Price),
		Data:    CartView{Items: lines, Totals: totals},
	}
}
