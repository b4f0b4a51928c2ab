package tools

import (
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
)

// Status tags every tool outcome.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
	StatusEmpty    Status = "empty"
	StatusPartial  Status = "partial"
)

// Result is a tagged tool outcome. Each implementation carries only the
// fields valid for its status and serialises with a "status" member.
type Result interface {
	Status() Status
}

// ===================================
// Tagged results
// ===================================

// Found reports an accepted catalog name resolution.
type Found struct {
	Query string `json:"input_query"`
	Match string `json:"matched"`
	Score int    `json:"score"`
}

// Success carries tool data and, for cart tools, the mutation intent.
type Success struct {
	Message string      `json:"message,omitempty"`
	Data    any         `json:"data,omitempty"`
	Intent  *CartIntent `json:"intent,omitempty"`
}

// NotFound reports a miss. Suggestion and Score describe the best fuzzy
// candidate when one existed.
type NotFound struct {
	Message    string   `json:"message"`
	Query      string   `json:"input_query,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Suggestion string   `json:"did_you_mean,omitempty"`
	Score      int      `json:"score,omitempty"`
	Available  []string `json:"available,omitempty"`
}

// Failure reports an upstream or argument failure.
type Failure struct {
	Message string `json:"message"`
}

// Empty is a structurally valid zero result.
type Empty struct {
	Message string `json:"message"`
}

// Partial is a batch outcome where some items resolved and some did not.
type Partial struct {
	Message string   `json:"message"`
	Data    any      `json:"data"`
	Missing []string `json:"missing"`
}

func (Found) Status() Status    { return StatusFound }
func (Success) Status() Status  { return StatusSuccess }
func (NotFound) Status() Status { return StatusNotFound }
func (Failure) Status() Status  { return StatusError }
func (Empty) Status() Status    { return StatusEmpty }
func (Partial) Status() Status  { return StatusPartial }

func (r Found) MarshalJSON() ([]byte, error) {
	type alias Found
	return json.Marshal(struct {
		Status Status `json:"status"`
		alias
	}{StatusFound, alias(r)})
}

func (r Success) MarshalJSON() ([]byte, error) {
	type alias Success
	return json.Marshal(struct {
		Status Status `json:"status"`
		alias
	}{StatusSuccess, alias(r)})
}

func (r NotFound) MarshalJSON() ([]byte, error) {
	type alias NotFound
	return json.Marshal(struct {
		Status Status `json:"status"`
		alias
	}{StatusNotFound, alias(r)})
}

func (r Failure) MarshalJSON() ([]byte, error) {
	type alias Failure
	return json.Marshal(struct {
		Status Status `json:"status"`
		alias
	}{StatusError, alias(r)})
}

func (r Empty) MarshalJSON() ([]byte, error) {
	type alias Empty
	return json.Marshal(struct {
		Status Status `json:"status"`
		alias
	}{StatusEmpty, alias(r)})
}

func (r Partial) MarshalJSON() ([]byte, error) {
	type alias Partial
	return json.Marshal(struct {
		Status Status `json:"status"`
		alias
	}{StatusPartial, alias(r)})
}

// ===================================
// Cart intents
// ===================================

// Cart intent actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionModify = "modify"
	ActionClear  = "clear"
)

// CartIntent describes a cart mutation. Tools never apply it; the
// reconciler does.
type CartIntent struct {
	Action string   `json:"action"`
	Item   CartItem `json:"item"`
}

// CartItem is the subject of an intent. Brand is empty for a remove that
// targets every brand; Quantity is the delta for add and the new value for
// modify.
type CartItem struct {
	ProductType string  `json:"product_type,omitempty"`
	Brand       string  `json:"product_brand,omitempty"`
	UnitPrice   float64 `json:"price,omitempty"`
	Quantity    int     `json:"quantity"`
	ItemTotal   float64 `json:"item_total,omitempty"`
}

// ===================================
// Tool result messages
// ===================================

// ToolResult is one executed request, ready to become a tool-result message.
type ToolResult struct {
	CorrelationID string
	Name          string
	Arguments     string
	Result        Result
}

// Status returns the result's tag, error when no result was produced.
func (tr ToolResult) Status() Status {
	if tr.Result == nil {
		return StatusError
	}
	return tr.Result.Status()
}

// Content renders the result payload as JSON.
func (tr ToolResult) Content() string {
	res := tr.Result
	if res == nil {
		res = Failure{Message: "tool produced no result"}
	}
	b, err := json.Marshal(res)
	if err != nil {
		b, _ = json.Marshal(Failure{Message: fmt.Sprintf("encode result: %v", err)})
	}
	return string(b)
}

// Message builds the tool-result message keyed to the request id.
func (tr ToolResult) Message() *schema.Message {
	msg := schema.ToolMessage(tr.Content(), tr.CorrelationID)
	msg.ToolName = tr.Name
	msg.Extra = map[string]any{
		model.ExtraToolName:   tr.Name,
		model.ExtraToolStatus: string(tr.Status()),
	}
	return msg
}

// Envelope is the subset of a serialised result the reconciler needs.
type Envelope struct {
	Status  Status      `json:"status"`
	Message string      `json:"message,omitempty"`
	Intent  *CartIntent `json:"intent,omitempty"`
}

// DecodeEnvelope parses a tool-result payload. A payload without a status
// member is rejected.
func DecodeEnvelope(content string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return Envelope{}, fmt.Errorf("decode tool result: %w", err)
	}
	if env.Status == "" {
		return Envelope{}, fmt.Errorf("decode tool result: missing status")
	}
	return env, nil
}
