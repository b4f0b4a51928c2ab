package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialogueStateSeedsTranscript(t *testing.T) {
	d := NewDialogueState("be helpful", "welcome!")
	require.Len(t, d.Messages, 2)
	assert.Equal(t, schema.System, d.Messages[0].Role)
	assert.Equal(t, schema.Assistant, d.Messages[1].Role)
	assert.Equal(t, 2, d.ReconciledThrough)
	assert.NotNil(t, d.Cart)
	assert.False(t, d.Done)
}

func TestDialogueAppendSkipsNil(t *testing.T) {
	d := NewDialogueState("", "")
	d.Append(schema.UserMessage("hi"), nil)
	require.Len(t, d.Messages, 1)
	assert.Equal(t, "hi", d.Last().Content)
}

func TestSlotsObserve(t *testing.T) {
	var s Slots
	s.Observe(map[string]any{"product_type": " Milk ", "brand": "Jempio", "min_rating": 4.5})
	s.Observe(map[string]any{"max_price": "3.5", "min_reviews": float64(20), "brand": 7})

	assert.Equal(t, "Milk", s.ProductType)
	assert.Equal(t, "Jempio", s.Brand, "non-string brand is ignored")
	require.NotNil(t, s.Rating)
	assert.Equal(t, 4.5, *s.Rating)
	require.NotNil(t, s.Price)
	assert.Equal(t, 3.5, *s.Price)
	require.NotNil(t, s.Reviews)
	assert.Equal(t, 20, *s.Reviews)
	assert.Empty(t, s.Category)
}

func TestUsageOf(t *testing.T) {
	msg := &schema.Message{
		Role: schema.Assistant,
		ResponseMeta: &schema.ResponseMeta{Usage: &schema.TokenUsage{
			PromptTokens: 1_000_000, CompletionTokens: 500_000, TotalTokens: 1_500_000,
		}},
	}
	u, ok := UsageOf(msg, "gemini-2.0-flash")
	require.True(t, ok)
	assert.InDelta(t, 0.10, u.InputCost, 1e-9)
	assert.InDelta(t, 0.20, u.OutputCost, 1e-9)
	assert.InDelta(t, 0.30, u.TotalCost, 1e-9)

	_, ok = UsageOf(schema.AssistantMessage("x", nil), "gemini-2.0-flash")
	assert.False(t, ok)

	u, ok = UsageOf(msg, "unknown-model")
	require.True(t, ok)
	assert.Zero(t, u.TotalCost)
}

func TestToolNameOf(t *testing.T) {
	m := schema.ToolMessage("{}", "call_1")
	m.Extra = map[string]any{ExtraToolName: "add_to_cart"}
	assert.Equal(t, "add_to_cart", ToolNameOf(m))

	m2 := schema.ToolMessage("{}", "call_2")
	m2.ToolName = "clear_cart"
	assert.Equal(t, "clear_cart", ToolNameOf(m2))
	assert.Empty(t, ToolNameOf(nil))
}
