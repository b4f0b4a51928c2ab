// Package reconcile is the only writer of the cart. After each tool
// dispatch it matches every new tool-result message back to the request that
// produced it and applies the request's cart intent.
//
// Correlation is by tool-call id. When the id is missing or matches nothing,
// results are paired by position with the most recent assistant tool-call
// list; that secondary strategy is recorded on the outcome and logged.
// Nothing here returns an error: every failure degrades to a no-op with a
// diagnostic, the cart staying consistent.
package reconcile

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/cart"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

// Strategy records how a result was paired with its request.
type Strategy string

const (
	CorrelationByID       Strategy = "id"
	CorrelationPositional Strategy = "positional"
	CorrelationNone       Strategy = "none"
)

// Outcome describes what happened to one tool-result message.
type Outcome struct {
	Index    int
	CallID   string
	Tool     string
	Strategy Strategy
	Applied  bool
	Degraded bool   // payload was unusable; request arguments were used alone
	Reason   string // why nothing was applied
}

// relevant reports whether the outcome concerns the cart: a cart request, or
// a result whose origin could not be established.
func (o Outcome) relevant() bool {
	return tools.IsCartMutation(o.Tool) || (o.Strategy == CorrelationNone && o.Tool == "")
}

// Report summarises one reconciliation pass.
type Report struct {
	Outcomes []Outcome
	Totals   cart.Totals
}

// Applied counts the outcomes that changed the cart.
func (r Report) Applied() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Applied {
			n++
		}
	}
	return n
}

type Engine struct{}

func New() *Engine { return &Engine{} }

// Reconcile processes every tool-result message appended since the last pass,
// in transcript order, and advances the dialogue's watermark.
func (e *Engine) Reconcile(conversationID string, d *model.DialogueState) Report {
	var rep Report
	if d == nil {
		return rep
	}
	if d.Cart == nil {
		d.Cart = cart.New()
	}

	start := d.ReconciledThrough
	if start < 0 || start > len(d.Messages) {
		start = 0
	}
	for i := start; i < len(d.Messages); i++ {
		msg := d.Messages[i]
		if msg == nil || msg.Role != schema.Tool {
			continue
		}
		if o := e.reconcileOne(conversationID, d, i); o.relevant() {
			rep.Outcomes = append(rep.Outcomes, o)
		}
	}
	d.ReconciledThrough = len(d.Messages)

	rep.Totals = d.Cart.Totals()
	logx.Debug().
		Str("conversation_id", conversationID).
		Int("results_reconciled", len(rep.Outcomes)).
		Int("applied", rep.Applied()).
		Int("cart_lines", rep.Totals.Lines).
		Int("cart_quantity", rep.Totals.Quantity).
		Float64("cart_total", rep.Totals.Price).
		Msg("Cart reconciled")
	return rep
}

func (e *Engine) reconcileOne(conversationID string, d *model.DialogueState, idx int) Outcome {
	msg := d.Messages[idx]
	o := Outcome{Index: idx, CallID: msg.ToolCallID, Strategy: CorrelationNone}

	call, strategy, ok := Correlate(d.Messages, idx)
	if !ok {
		o.Tool = model.ToolNameOf(msg)
		if o.Tool != "" && !tools.IsCartMutation(o.Tool) {
			return o
		}
		o.Reason = "no matching tool request"
		logx.Warn().
			Str("conversation_id", conversationID).
			Str("call_id", msg.ToolCallID).
			Str("tool_name", o.Tool).
			Int("message_index", idx).
			Msg("Tool result could not be correlated; cart unchanged")
		return o
	}
	o.Strategy = strategy
	o.Tool = call.Function.Name
	if strategy == CorrelationPositional {
		logx.Warn().
			Str("conversation_id", conversationID).
			Str("call_id", msg.ToolCallID).
			Str("request_id", call.ID).
			Str("tool_name", o.Tool).
			Msg("Tool result correlated by position")
	}
	if !tools.IsCartMutation(o.Tool) {
		return o
	}

	args, _ := tools.ParseArgs(call.Function.Arguments)
	env, err := decodePayload(msg.Content)
	if err != nil {
		o.Degraded = true
		logx.Warn().
			Str("conversation_id", conversationID).
			Str("call_id", call.ID).
			Str("tool_name", o.Tool).
			Err(err).
			Msg("Tool result payload unusable; reconciling from request arguments")
	}

	o.Applied, o.Reason = apply(d.Cart, o.Tool, args, env, o.Degraded)
	ev := logx.Debug()
	if !o.Applied {
		ev = logx.Info()
	}
	ev.Str("conversation_id", conversationID).
		Str("call_id", call.ID).
		Str("tool_name", o.Tool).
		Str("correlation", string(o.Strategy)).
		Bool("applied", o.Applied).
		Str("reason", o.Reason).
		Msg("Cart intent reconciled")
	return o
}

// Correlate finds the request that produced the tool result at idx.
func Correlate(msgs []*schema.Message, idx int) (schema.ToolCall, Strategy, bool) {
	if idx < 0 || idx >= len(msgs) || msgs[idx] == nil {
		return schema.ToolCall{}, CorrelationNone, false
	}
	if id := strings.TrimSpace(msgs[idx].ToolCallID); id != "" {
		for i := idx - 1; i >= 0; i-- {
			m := msgs[i]
			if m == nil || m.Role != schema.Assistant {
				continue
			}
			match, n := matchID(m.ToolCalls, id)
			if n == 1 {
				return match, CorrelationByID, true
			}
			if n > 1 {
				// ambiguous id, e.g. Gemini's name-as-id for repeated tools
				break
			}
		}
	}
	if c, ok := correlateByPosition(msgs, idx); ok {
		return c, CorrelationPositional, true
	}
	return schema.ToolCall{}, CorrelationNone, false
}

// matchID returns the first call carrying id and how many calls carry it.
func matchID(calls []schema.ToolCall, id string) (schema.ToolCall, int) {
	var first schema.ToolCall
	n := 0
	for _, c := range calls {
		if c.ID == id {
			if n == 0 {
				first = c
			}
			n++
		}
	}
	return first, n
}

// correlateByPosition pairs the n-th result after the most recent assistant
// tool-call message with its n-th request. The contiguous block of results
// must be exactly as long as the request list.
func correlateByPosition(msgs []*schema.Message, idx int) (schema.ToolCall, bool) {
	req := -1
	for i := idx - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.Assistant && len(m.ToolCalls) > 0 {
			req = i
			break
		}
		if m.Role != schema.Tool {
			return schema.ToolCall{}, false
		}
	}
	if req < 0 {
		return schema.ToolCall{}, false
	}

	end := req + 1
	for end < len(msgs) && msgs[end] != nil && msgs[end].Role == schema.Tool {
		end++
	}
	calls := msgs[req].ToolCalls
	if end-(req+1) != len(calls) {
		return schema.ToolCall{}, false
	}
	return calls[idx-(req+1)], true
}

// apply mutates c according to one correlated cart request.
func apply(c *cart.State, tool string, args tools.Args, env tools.Envelope, degraded bool) (bool, string) {
	if !degraded && env.Status != tools.StatusSuccess {
		return false, "tool status " + string(env.Status)
	}
	var item tools.CartItem
	if !degraded && env.Intent != nil {
		item = env.Intent.Item
	}

	switch tool {
	case tools.ToolAddToCart:
		if degraded || env.Intent == nil {
			return false, "add requires a concrete item from the tool result"
		}
		if item.ProductType == "" || item.Brand == "" || item.Quantity <= 0 {
			return false, "add item is incomplete"
		}
		if _, ok := c.Add(item.ProductType, item.Brand, item.UnitPrice, item.Quantity); !ok {
			return false, "add rejected by cart"
		}
		return true, ""

	case tools.ToolRemoveFromCart:
		productType, brand := item.ProductType, item.Brand
		if productType == "" {
			productType, brand = args.String("product_type"), args.String("brand")
		}
		if productType == "" {
			return false, "remove has no product type"
		}
		if removed := c.Remove(productType, brand); len(removed) == 0 {
			return false, "item not in cart"
		}
		return true, ""

	case tools.ToolModifyCart:
		productType, brand, qty := item.ProductType, item.Brand, item.Quantity
		if productType == "" {
			var ok bool
			productType, brand = args.String("product_type"), args.String("brand")
			if qty, ok = args.Int("quantity"); !ok {
				return false, "modify has no valid quantity"
			}
		}
		if productType == "" || brand == "" {
			return false, "modify has no product key"
		}
		if _, found := c.SetQuantity(productType, brand, qty); !found {
			return false, "item not in cart"
		}
		return true, ""

	case tools.ToolClearCart:
		c.Clear()
		return true, ""
	}
	return false, "not a cart tool"
}
