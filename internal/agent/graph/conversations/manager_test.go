package conversations

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
)

func TestAppendsKeepOrder(t *testing.T) {
	mm := NewMessagesManager(model.ConversationConfig{})
	d := model.NewDialogueState("sys", "hello")

	mm.AddUserMessage(d, "add milk")
	call := schema.ToolCall{ID: "c1", Function: schema.FunctionCall{Name: tools.ToolAddToCart, Arguments: `{}`}}
	mm.AddDecision(d, schema.AssistantMessage("", []schema.ToolCall{call}))
	mm.AddToolResults(d, []tools.ToolResult{{CorrelationID: "c1", Name: tools.ToolAddToCart, Result: tools.Failure{Message: "x"}}})

	require.Len(t, d.Messages, 5)
	roles := []schema.RoleType{schema.System, schema.Assistant, schema.User, schema.Assistant, schema.Tool}
	for i, r := range roles {
		assert.Equal(t, r, d.Messages[i].Role, "message %d", i)
	}
	assert.Equal(t, "c1", d.Messages[4].ToolCallID)
}

func TestDecisionContextFullHistory(t *testing.T) {
	mm := NewMessagesManager(model.ConversationConfig{})
	d := model.NewDialogueState("sys", "hello")
	mm.AddUserMessage(d, "hi")

	got := mm.BuildDecisionContext(d)
	assert.Equal(t, d.Messages, got)
}

func TestDecisionContextWindowKeepsSystemHead(t *testing.T) {
	mm := NewMessagesManager(model.ConversationConfig{MaxHistory: 2})
	d := model.NewDialogueState("sys", "hello")
	mm.AddUserMessage(d, "one")
	mm.AddDecision(d, schema.AssistantMessage("r1", nil))
	mm.AddUserMessage(d, "two")

	got := mm.BuildDecisionContext(d)
	require.Len(t, got, 3)
	assert.Equal(t, schema.System, got[0].Role)
	assert.Equal(t, "r1", got[1].Content)
	assert.Equal(t, "two", got[2].Content)
}

func TestDecisionContextNeverOpensOnToolResult(t *testing.T) {
	mm := NewMessagesManager(model.ConversationConfig{MaxHistory: 3})
	d := model.NewDialogueState("sys", "")
	mm.AddUserMessage(d, "search")
	mm.AddDecision(d, schema.AssistantMessage("", []schema.ToolCall{{ID: "a"}, {ID: "b"}}))
	d.Append(schema.ToolMessage("{}", "a"), schema.ToolMessage("{}", "b"))
	mm.AddDecision(d, schema.AssistantMessage("done", nil))

	got := mm.BuildDecisionContext(d)
	require.Len(t, got, 2)
	assert.Equal(t, schema.System, got[0].Role)
	assert.Equal(t, "done", got[1].Content)
}

func TestDecisionContextAppendsNoticesWithoutRecording(t *testing.T) {
	mm := NewMessagesManager(model.ConversationConfig{})
	d := model.NewDialogueState("sys", "")
	before := len(d.Messages)

	got := mm.BuildDecisionContext(d, schema.SystemMessage("wrap up"))
	require.Len(t, got, before+1)
	assert.Equal(t, "wrap up", got[len(got)-1].Content)
	assert.Len(t, d.Messages, before)
}
