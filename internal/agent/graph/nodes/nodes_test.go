package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/compose"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/cart"
)

type stubModel struct {
	out *schema.Message
	err error
}

func (s *stubModel) Generate(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
	return s.out, s.err
}

func (s *stubModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func (s *stubModel) WithTools([]*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return s, nil
}

func TestToolLimitHelpers(t *testing.T) {
	s := &model.AppState{}
	assert.False(t, checkAndMarkToolLimit(s, 3))
	assert.False(t, incrementToolCallAndCheck(s, 2, 3))
	assert.True(t, incrementToolCallAndCheck(s, 1, 3))
	assert.True(t, checkAndMarkToolLimit(s, 3))
	assert.Equal(t, DefaultMaxToolCalls, normalizeMaxToolCalls(0))
	assert.Equal(t, 7, normalizeMaxToolCalls(7))
}

func TestNormalizeToolCallIDsFillsOnlyEmpty(t *testing.T) {
	s := &model.AppState{}
	msg := schema.AssistantMessage("", []schema.ToolCall{{ID: ""}, {ID: "a"}, {ID: "a"}, {ID: " "}, {ID: "call_1"}})
	normalizeToolCallIDs(s, msg)

	ids := make([]string, len(msg.ToolCalls))
	for i, c := range msg.ToolCalls {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"call_2", "a", "a", "call_3", "call_1"}, ids)
}

func TestNormalizeToolCallIDsKeepsNameAsID(t *testing.T) {
	s := &model.AppState{}
	msg := schema.AssistantMessage("", []schema.ToolCall{
		{ID: tools.ToolAddToCart, Function: schema.FunctionCall{Name: tools.ToolAddToCart}},
		{ID: tools.ToolAddToCart, Function: schema.FunctionCall{Name: tools.ToolAddToCart}},
	})
	normalizeToolCallIDs(s, msg)

	assert.Equal(t, tools.ToolAddToCart, msg.ToolCalls[0].ID)
	assert.Equal(t, tools.ToolAddToCart, msg.ToolCalls[1].ID)
	assert.Zero(t, s.ToolCallIDSeq)
}

func TestFallbackModel(t *testing.T) {
	ctx := context.Background()

	f := &fallbackModel{inner: &stubModel{err: errors.New("quota")}}
	out, err := f.Generate(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, out.Content)

	f = &fallbackModel{inner: &stubModel{}}
	out, err = f.Generate(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, out.Content)

	f = &fallbackModel{inner: &stubModel{out: schema.AssistantMessage("ok", nil)}}
	sr, err := f.Stream(ctx, nil)
	require.NoError(t, err)
	msg, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)

	bound, err := BindTools(&stubModel{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &fallbackModel{}, bound)
	assert.False(t, f.IsCallbacksEnabled())
}

func TestDecisionCondition(t *testing.T) {
	cond := NewDecisionCondition()
	ctx := context.Background()

	next, err := cond(ctx, schema.AssistantMessage("done", nil))
	require.NoError(t, err)
	assert.Equal(t, compose.END, next)

	next, _ = cond(ctx, schema.AssistantMessage("", []schema.ToolCall{
		{Function: schema.FunctionCall{Name: tools.ToolViewCart}},
		{Function: schema.FunctionCall{Name: tools.ToolHelp}},
	}))
	assert.Equal(t, NodeViewCart, next)

	next, _ = cond(ctx, schema.AssistantMessage("", []schema.ToolCall{
		{Function: schema.FunctionCall{Name: tools.ToolHelp}},
		{Function: schema.FunctionCall{Name: tools.ToolViewCart}},
	}))
	assert.Equal(t, NodeToolExecutor, next)
}

func TestCartSummary(t *testing.T) {
	assert.Equal(t, tools.StatusEmpty, cartSummary(nil).Status())
	assert.Equal(t, tools.StatusEmpty, cartSummary(cart.New()).Status())

	c := cart.New()
	c.Add("Milk", "Jempio", 3.20, 2)
	res, ok := cartSummary(c).(tools.Success)
	require.True(t, ok)
	view, ok := res.Data.(CartView)
	require.True(t, ok)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Totals.Quantity)
	assert.Contains(t, res.Message, "$6.40")
}

func TestMutatesCart(t *testing.T) {
	assert.False(t, mutatesCart(nil))
	assert.False(t, mutatesCart([]string{tools.ToolSearchProduct, tools.ToolHelp}))
	assert.True(t, mutatesCart([]string{tools.ToolSearchProduct, tools.ToolClearCart}))
}

func TestAnswerCartViewsRewritesInPlace(t *testing.T) {
	c := cart.New()
	c.Add("Carrot", "FreshFarm", 1.5, 2)

	view := tools.ToolResult{CorrelationID: "v1", Name: tools.ToolViewCart, Result: tools.Failure{Message: "placeholder"}}.Message()
	help := tools.ToolResult{CorrelationID: "h1", Name: tools.ToolHelp, Result: tools.Success{Message: "help"}}.Message()
	transcript := []*schema.Message{help, view}

	answerCartViews(c, transcript)

	assert.Equal(t, "v1", transcript[1].ToolCallID)
	assert.Contains(t, transcript[1].Content, `"status":"success"`)
	assert.Contains(t, transcript[1].Content, "$3.00")
	assert.Contains(t, transcript[0].Content, "help")
}
