package conversations

import (
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
)

// MessagesManager owns every write to a DialogueState transcript and builds
// the message window handed to the decision model.
type MessagesManager struct {
	maxHistory int
}

func NewMessagesManager(config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{maxHistory: config.MaxHistory}
}

// =========== Transcript writes ===========

// AddUserMessage appends the user's utterance.
func (cm *MessagesManager) AddUserMessage(d *model.DialogueState, query string) *schema.Message {
	msg := schema.UserMessage(query)
	d.Append(msg)
	return msg
}

// AddDecision appends one decision model output, final or tool-calling.
func (cm *MessagesManager) AddDecision(d *model.DialogueState, msg *schema.Message) {
	d.Append(msg)
}

// AddToolResults appends one tool-result message per result, in order.
func (cm *MessagesManager) AddToolResults(d *model.DialogueState, results []tools.ToolResult) {
	for _, r := range results {
		d.Append(r.Message())
	}
}

// =========== Decision context ===========

// BuildDecisionContext returns the messages the decision model sees: the
// leading system messages, then the most recent history window, then any
// transient notices that are not recorded in the transcript.
func (cm *MessagesManager) BuildDecisionContext(d *model.DialogueState, notices ...*schema.Message) []*schema.Message {
	head := 0
	for head < len(d.Messages) && d.Messages[head] != nil && d.Messages[head].Role == schema.System {
		head++
	}

	out := make([]*schema.Message, 0, len(d.Messages)+len(notices))
	out = append(out, d.Messages[:head]...)
	for _, m := range trimTail(d.Messages[head:], cm.maxHistory) {
		if m != nil {
			out = append(out, m)
		}
	}
	for _, n := range notices {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// ====================== Helper function ======================

// trimTail keeps the last maxTurns messages (all of them when maxTurns <= 0).
// A window never opens on tool results whose request was cut off.
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	source := messages[len(messages)-maxTurns:]
	for len(source) > 0 && source[0] != nil && source[0].Role == schema.Tool {
		source = source[1:]
	}
	return source
}
