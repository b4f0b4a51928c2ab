package nodes

import (
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
)

// Graph node keys.
const (
	NodeInputConverter = "input_converter"
	NodeDecision       = "decision"
	NodeToolExecutor   = "execute_tools"
	NodeReconcileCart  = "reconcile_cart"
	NodeViewCart       = "view_cart"
)

const DefaultMaxToolCalls = 10

// ===== Small helpers to keep handlers simple/readable =====
// normalizeMaxToolCalls returns a sane default when the provided value is invalid.
func normalizeMaxToolCalls(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// checkAndMarkToolLimit reports whether the tool budget is spent, marking
// the state the first time. Returns true on every call once spent.
func checkAndMarkToolLimit(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	if state.ToolCallCount >= max {
		state.ToolCallLimitReached = true
	}
	return state.ToolCallLimitReached
}

// incrementToolCallAndCheck counts n dispatched tool requests and marks the
// state when the count reaches the limit. Returns true once reached.
func incrementToolCallAndCheck(state *model.AppState, n, max int) bool {
	max = normalizeMaxToolCalls(max)
	state.ToolCallCount += n
	if state.ToolCallCount >= max {
		state.ToolCallLimitReached = true
	}
	return state.ToolCallLimitReached
}
