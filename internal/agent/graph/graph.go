package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/dispatch"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/observers"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/reconcile"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

// Runner executes one user turn against a session's dialogue and returns the
// assistant reply.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (string, error)
}

// Config holds everything needed to compose the turn graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the
// decision model and the messages manager.
type Config struct {
	APIKey       string
	BaseURL      string
	Decision     model.DecisionModelConfig
	Conversation model.ConversationConfig
	Registry     *tools.Registry
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	DecisionModel     einomodel.ToolCallingChatModel
	DecisionModelName string
	Registry          *tools.Registry
	MessagesManager   *conversations.MessagesManager
	ToolMaxCalls      int
	ToolParallelism   int
	// Callbacks are attached to every invocation; nil uses the logging observers.
	Callbacks []callbacks.Handler
}

// GraphBuilder handles the construction of the turn graph
type GraphBuilder struct {
	config   *GraphConfig
	decision einomodel.ToolCallingChatModel
	graph    *compose.Graph[model.TurnInput, *schema.Message]
}

type graphRunner struct {
	runnable  compose.Runnable[model.TurnInput, *schema.Message]
	callbacks []callbacks.Handler
}

func (r *graphRunner) Invoke(ctx context.Context, in model.TurnInput) (string, error) {
	if in.Dialogue == nil {
		return "", fmt.Errorf("turn input has no dialogue state")
	}
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(r.callbacks...))
	if err != nil {
		return "", err
	}
	if out == nil {
		return nodes.ApologyMessage, nil
	}
	if total, ok := out.Extra[model.ExtraTotalCost].(float64); ok {
		logx.Info().
			Str("conversation_id", in.ConversationID).
			Float64("turn_cost_usd", total).
			Msg("Turn cost")
	}
	return out.Content, nil
}

// BuildTurnGraph creates the Gemini decision model and messages manager,
// builds the graph, and returns a Runner.
func BuildTurnGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}

	cm, err := nodes.NewDecisionModel(ctx, nodes.ChatModelConfig{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Decision: &cfg.Decision,
	})
	if err != nil {
		return nil, err
	}

	runner, err := BuildGraph(ctx, &GraphConfig{
		DecisionModel:     cm,
		DecisionModelName: cfg.Decision.Model,
		Registry:          cfg.Registry,
		MessagesManager:   conversations.NewMessagesManager(cfg.Conversation),
		ToolMaxCalls:      cfg.Conversation.Tools.MaxCalls,
		ToolParallelism:   cfg.Conversation.Tools.Parallelism,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Turn graph built successfully")
	return runner, nil
}

// BuildGraph constructs the compiled turn graph and wraps it in a Runner.
func BuildGraph(ctx context.Context, config *GraphConfig) (Runner, error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.DecisionModel == nil {
		return nil, fmt.Errorf("decision model is not initialized")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(); err != nil {
		return nil, err
	}
	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}

	cbs := config.Callbacks
	if cbs == nil {
		cbs = []callbacks.Handler{observers.NewAllCallbacks()}
	}
	return &graphRunner{runnable: runnable, callbacks: cbs}, nil
}

// setupTools binds the registry's schemas to the decision model
func (b *GraphBuilder) setupTools() error {
	bound, err := nodes.BindTools(b.config.DecisionModel, b.config.Registry.Infos())
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to decision model")
		return fmt.Errorf("failed to bind tools to decision model: %w", err)
	}
	b.decision = bound
	return nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	mm := b.config.MessagesManager
	maxCalls := b.config.ToolMaxCalls

	steps := []error{
		b.graph.AddLambdaNode(nodes.NodeInputConverter,
			nodes.NewInputConverterNode(mm),
			compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
		),
		b.graph.AddChatModelNode(nodes.NodeDecision,
			b.decision,
			compose.WithStatePreHandler(nodes.NewDecisionPreHandler(mm, maxCalls)),
			compose.WithStatePostHandler(nodes.NewDecisionPostHandler(mm, b.config.DecisionModelName)),
		),
		b.graph.AddLambdaNode(nodes.NodeToolExecutor,
			nodes.NewToolExecutorNode(dispatch.New(b.config.Registry, b.config.ToolParallelism), mm, maxCalls),
		),
		b.graph.AddLambdaNode(nodes.NodeReconcileCart,
			nodes.NewReconcileNode(reconcile.New()),
		),
		b.graph.AddLambdaNode(nodes.NodeViewCart,
			nodes.NewViewCartNode(mm, maxCalls),
		),
	}
	for _, err := range steps {
		if err != nil {
			logx.Error().Err(err).Msg("Error adding node")
			return fmt.Errorf("error adding node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeDecision},
		{nodes.NodeToolExecutor, nodes.NodeReconcileCart},
		{nodes.NodeReconcileCart, nodes.NodeDecision},
		{nodes.NodeViewCart, nodes.NodeDecision},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		nodes.NewDecisionCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			nodes.NodeViewCart:     true,
			compose.END:            true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeDecision, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	// Each tool round visits decision, executor and reconciler; keep room for
	// the rounds the budget allows plus the final decision.
	maxCalls := b.config.ToolMaxCalls
	if maxCalls <= 0 {
		maxCalls = nodes.DefaultMaxToolCalls
	}
	maxSteps := 10 + maxCalls*3
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx,
		compose.WithMaxRunSteps(maxSteps),
		compose.WithGraphName("shopping_turn"),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Int("max_run_steps", maxSteps).Msg("Graph compiled successfully")
	return runnable, nil
}
