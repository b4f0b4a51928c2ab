package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingExecutor struct {
	mu          sync.Mutex
	order       []string
	active      int
	maxActive   int
	cartActive  int
	maxCart     int
	readBarrier *sync.WaitGroup
	barrierHit  int
}

func (e *recordingExecutor) Execute(_ context.Context, c schema.ToolCall) tools.ToolResult {
	mutating := tools.IsCartMutation(c.Function.Name)

	e.mu.Lock()
	e.active++
	if e.active > e.maxActive {
		e.maxActive = e.active
	}
	if mutating {
		e.cartActive++
		if e.cartActive > e.maxCart {
			e.maxCart = e.cartActive
		}
		e.order = append(e.order, c.ID)
	}
	e.mu.Unlock()

	if !mutating && e.readBarrier != nil {
		e.readBarrier.Done()
		done := make(chan struct{})
		go func() { e.readBarrier.Wait(); close(done) }()
		select {
		case <-done:
			e.mu.Lock()
			e.barrierHit++
			e.mu.Unlock()
		case <-time.After(2 * time.Second):
		}
	} else {
		time.Sleep(time.Millisecond)
	}

	e.mu.Lock()
	e.active--
	if mutating {
		e.cartActive--
	}
	e.mu.Unlock()

	return tools.ToolResult{
		CorrelationID: c.ID,
		Name:          c.Function.Name,
		Arguments:     c.Function.Arguments,
		Result:        tools.Success{Message: c.ID},
	}
}

func toolCall(id, name string) schema.ToolCall {
	return schema.ToolCall{ID: id, Function: schema.FunctionCall{Name: name, Arguments: "{}"}}
}

func TestDispatchPreservesRequestOrder(t *testing.T) {
	calls := []schema.ToolCall{
		toolCall("1", tools.ToolSearchProduct),
		toolCall("2", tools.ToolAddToCart),
		toolCall("3", tools.ToolSearchByPrice),
		toolCall("4", tools.ToolModifyCart),
		toolCall("5", tools.ToolHelp),
		toolCall("6", tools.ToolClearCart),
	}
	exec := &recordingExecutor{}
	results := New(exec, 4).Dispatch(context.Background(), calls)

	require.Len(t, results, len(calls))
	for i, r := range results {
		assert.Equal(t, calls[i].ID, r.CorrelationID)
		assert.Equal(t, calls[i].Function.Name, r.Name)
	}
	assert.Equal(t, []string{"2", "4", "6"}, exec.order, "cart tools run in request order")
	assert.Equal(t, 1, exec.maxCart, "cart tools never overlap")
}

func TestDispatchRunsReadOnlyToolsConcurrently(t *testing.T) {
	var barrier sync.WaitGroup
	barrier.Add(3)
	exec := &recordingExecutor{readBarrier: &barrier}

	calls := []schema.ToolCall{
		toolCall("a", tools.ToolSearchProduct),
		toolCall("b", tools.ToolSearchByRating),
		toolCall("c", tools.ToolSearchCategory),
	}
	New(exec, 4).Dispatch(context.Background(), calls)

	assert.Equal(t, 3, exec.barrierHit, "all read-only tools were in flight together")
	assert.GreaterOrEqual(t, exec.maxActive, 3)
}

func TestDispatchRespectsParallelismLimit(t *testing.T) {
	exec := &recordingExecutor{}
	var calls []schema.ToolCall
	for i := 0; i < 8; i++ {
		calls = append(calls, toolCall(fmt.Sprint(i), tools.ToolSearchProduct))
	}
	New(exec, 2).Dispatch(context.Background(), calls)
	assert.LessOrEqual(t, exec.maxActive, 2)
}

func TestDispatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := New(&recordingExecutor{}, 0).Dispatch(ctx, []schema.ToolCall{toolCall("x", tools.ToolHelp)})
	require.Len(t, results, 1)
	assert.Equal(t, tools.StatusError, results[0].Status())
	assert.Equal(t, "x", results[0].CorrelationID)
}

func TestDispatchEmpty(t *testing.T) {
	assert.Empty(t, New(&recordingExecutor{}, 1).Dispatch(context.Background(), nil))
}
