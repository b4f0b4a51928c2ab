// Package dispatch executes one decision response's tool requests.
//
// Read-only tools run concurrently up to a parallelism limit. Cart tools run
// one at a time in request order on a single goroutine. Results always come
// back in request order regardless of completion order.
package dispatch

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"golang.org/x/sync/errgroup"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

// DefaultParallelism applies when a non-positive limit is configured.
const DefaultParallelism = 4

// Executor runs a single tool request.
type Executor interface {
	Execute(ctx context.Context, call schema.ToolCall) tools.ToolResult
}

type Dispatcher struct {
	exec        Executor
	parallelism int
}

func New(exec Executor, parallelism int) *Dispatcher {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Dispatcher{exec: exec, parallelism: parallelism}
}

// Dispatch executes calls and returns one result per call, index-aligned.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []schema.ToolCall) []tools.ToolResult {
	results := make([]tools.ToolResult, len(calls))
	if len(calls) == 0 {
		return results
	}

	var mutating []int
	var g errgroup.Group
	g.SetLimit(d.parallelism)

	for i, c := range calls {
		if tools.IsCartMutation(c.Function.Name) {
			mutating = append(mutating, i)
			continue
		}
		g.Go(func() error {
			results[i] = d.run(ctx, c)
			return nil
		})
	}

	if len(mutating) > 0 {
		g.Go(func() error {
			for _, i := range mutating {
				results[i] = d.run(ctx, calls[i])
			}
			return nil
		})
	}

	_ = g.Wait()

	logx.Debug().
		Int("tool_count", len(calls)).
		Int("cart_tool_count", len(mutating)).
		Msg("Tool requests dispatched")
	return results
}

func (d *Dispatcher) run(ctx context.Context, c schema.ToolCall) tools.ToolResult {
	if err := ctx.Err(); err != nil {
		return tools.ToolResult{
			CorrelationID: c.ID,
			Name:          c.Function.Name,
			Arguments:     c.Function.Arguments,
			Result:        tools.Failure{Message: fmt.Sprintf("not executed: %v", err)},
		}
	}
	return d.exec.Execute(ctx, c)
}
