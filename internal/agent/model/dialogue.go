package model

import (
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/cart"
)

// DialogueState is the session-lifetime conversation: the append-only
// transcript, the authoritative cart and the advisory slots.
//
// Messages are never edited or removed. ReconciledThrough is the index of the
// first message the reconciler has not yet inspected.
type DialogueState struct {
	Messages          []*schema.Message
	Cart              *cart.State
	Slots             Slots
	Done              bool
	ReconciledThrough int
}

// NewDialogueState seeds a transcript with the system prompt and, when given,
// the assistant's welcome message.
func NewDialogueState(systemPrompt, welcome string) *DialogueState {
	d := &DialogueState{Cart: cart.New()}
	if systemPrompt != "" {
		d.Messages = append(d.Messages, schema.SystemMessage(systemPrompt))
	}
	if welcome != "" {
		d.Messages = append(d.Messages, schema.AssistantMessage(welcome, nil))
	}
	d.ReconciledThrough = len(d.Messages)
	return d
}

// Append adds messages to the end of the transcript.
func (d *DialogueState) Append(msgs ...*schema.Message) {
	for _, m := range msgs {
		if m != nil {
			d.Messages = append(d.Messages, m)
		}
	}
}

// Last returns the most recent message, or nil.
func (d *DialogueState) Last() *schema.Message {
	if len(d.Messages) == 0 {
		return nil
	}
	return d.Messages[len(d.Messages)-1]
}

// Slots are the last-known shopping attributes mentioned in the conversation.
// They are advisory only; nothing authoritative is derived from them.
type Slots struct {
	Category    string   `json:"category_type,omitempty"`
	ProductType string   `json:"product_type,omitempty"`
	Brand       string   `json:"product_brand,omitempty"`
	Rating      *float64 `json:"product_rating,omitempty"`
	Reviews     *int     `json:"product_review,omitempty"`
	Price       *float64 `json:"product_price,omitempty"`
}

// Observe updates the slots from a tool request's decoded arguments. Unknown
// or malformed values are ignored.
func (s *Slots) Observe(args map[string]any) {
	if v := stringArg(args, "category_type"); v != "" {
		s.Category = v
	}
	if v := stringArg(args, "product_type"); v != "" {
		s.ProductType = v
	}
	if v := stringArg(args, "brand"); v != "" {
		s.Brand = v
	}
	if f, ok := floatArg(args, "min_rating"); ok {
		s.Rating = &f
	}
	if f, ok := floatArg(args, "max_price"); ok {
		s.Price = &f
	}
	if f, ok := floatArg(args, "min_reviews"); ok {
		n := int(f)
		s.Reviews = &n
	}
}

func stringArg(args map[string]any, key string) string {
	v, ok := args[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
