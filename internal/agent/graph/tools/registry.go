package tools

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/catalog"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/fuzzy"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

// Tool names exposed to the decision model.
const (
	ToolSearchCategory      = "search_category_by_type"
	ToolSearchCategoryAll   = "search_category_by_type_all"
	ToolSearchIngredient    = "search_ingredient_by_type"
	ToolSearchIngredientAll = "search_ingredient_by_type_all"
	ToolSearchProduct       = "search_product_by_type"
	ToolSearchByBrand       = "search_ingredient_by_brand"
	ToolSearchByRating      = "search_ingredient_by_rating"
	ToolSearchByPrice       = "search_ingredient_by_price"
	ToolSearchByReview      = "search_ingredient_by_review"
	ToolSearchMultiple      = "search_multiple_ingredients"
	ToolCompareByRating     = "compare_ingredient_by_rating"
	ToolCompareByPrice      = "compare_ingredient_by_price"
	ToolCompareByReview     = "compare_ingredient_by_review"
	ToolViewCart            = "view_cart"
	ToolAddToCart           = "add_to_cart"
	ToolRemoveFromCart      = "remove_from_cart"
	ToolModifyCart          = "modify_cart"
	ToolClearCart           = "clear_cart"
	ToolHelp                = "help"
	ToolGreeting            = "greeting"
	ToolFallback            = "fallback"
)

const (
	unavailableProductMessage = "Product data could not be loaded or is empty."
	unavailableCategoryMsg    = "Category data could not be loaded or is empty."
)

// IsCartMutation reports whether a tool describes a cart mutation.
func IsCartMutation(name string) bool {
	switch name {
	case ToolAddToCart, ToolRemoveFromCart, ToolModifyCart, ToolClearCart:
		return true
	}
	return false
}

type handler func(ctx context.Context, args Args) Result

type entry struct {
	info *schema.ToolInfo
	run  handler
}

// Registry maps tool names to deterministic functions over the read-only
// catalog. It holds no cart state.
type Registry struct {
	catalog catalog.Accessor
	matcher fuzzy.Matcher
	tools   map[string]entry
	order   []string
}

// NewRegistry builds the full tool surface over cat.
func NewRegistry(cat catalog.Accessor, matcher fuzzy.Matcher) *Registry {
	r := &Registry{
		catalog: cat,
		matcher: matcher,
		tools:   make(map[string]entry),
	}
	r.registerSearchTools()
	r.registerCompareTools()
	r.registerCartTools()
	r.registerSupportTools()
	return r
}

func (r *Registry) register(info *schema.ToolInfo, run handler) {
	if _, dup := r.tools[info.Name]; dup {
		panic(fmt.Sprintf("tools: duplicate tool %q", info.Name))
	}
	r.tools[info.Name] = entry{info: info, run: run}
	r.order = append(r.order, info.Name)
}

// Infos returns the tool schemas in registration order.
func (r *Registry) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].info)
	}
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Has reports whether name is a registered tool.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Execute runs one tool request. It never returns an error: unknown tools,
// malformed arguments and panics all become Failure results.
func (r *Registry) Execute(ctx context.Context, call schema.ToolCall) (out ToolResult) {
	name := call.Function.Name
	out = ToolResult{
		CorrelationID: call.ID,
		Name:          name,
		Arguments:     call.Function.Arguments,
	}

	e, ok := r.tools[name]
	if !ok {
		logx.Warn().
			Str("tool_name", name).
			Str("call_id", call.ID).
			Str("arguments", call.Function.Arguments).
			Msg("Unknown or invalid tool call; returning error result")
		out.Result = Failure{Message: fmt.Sprintf("unknown_tool: %q is not an available tool", name)}
		return out
	}

	args, parsed := ParseArgs(call.Function.Arguments)
	if !parsed {
		logx.Warn().
			Str("tool_name", name).
			Str("call_id", call.ID).
			Str("arguments", call.Function.Arguments).
			Msg("Tool arguments are not a JSON object; using defaults")
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{Name: name, Type: "Registry", Component: components.ComponentOfTool})
	ctx = callbacks.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: call.Function.Arguments})

	out.Result = r.invoke(ctx, e, name, call.ID, args)

	logx.Debug().
		Str("tool_name", name).
		Str("call_id", call.ID).
		Str("status", string(out.Result.Status())).
		Msg("Tool executed")
	callbacks.OnEnd(ctx, &tool.CallbackOutput{Response: out.Content()})
	return out
}

// invoke runs one handler, converting panics and nil results into failures.
func (r *Registry) invoke(ctx context.Context, e entry, name, callID string, args Args) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().
				Str("tool_name", name).
				Str("call_id", callID).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("Tool panicked")
			res = Failure{Message: fmt.Sprintf("tool %s failed: %v", name, rec)}
		}
	}()

	res = e.run(ctx, args)
	if res == nil {
		res = Failure{Message: fmt.Sprintf("tool %s produced no result", name)}
	}
	return res
}

// ===================================
// Catalog helpers shared by tools
// ===================================

// products loads rows for a filter; an unreadable or empty catalog is a
// Failure.
func (r *Registry) products(ctx context.Context, f catalog.Filter) ([]catalog.Product, Result) {
	if r.catalog == nil {
		return nil, Failure{Message: unavailableProductMessage}
	}
	rows, err := r.catalog.Lookup(ctx, f)
	if err != nil {
		logx.Error().Err(err).Str("filter", f.Key()).Msg("Catalog lookup failed")
		return nil, Failure{Message: unavailableProductMessage}
	}
	return rows, nil
}

// allProducts loads the full catalog, failing when it is empty.
func (r *Registry) allProducts(ctx context.Context) ([]catalog.Product, Result) {
	rows, fail := r.products(ctx, catalog.Filter{})
	if fail != nil {
		return nil, fail
	}
	if len(rows) == 0 {
		return nil, Failure{Message: unavailableProductMessage}
	}
	return rows, nil
}

func (r *Registry) categories(ctx context.Context) ([]string, Result) {
	if r.catalog == nil {
		return nil, Failure{Message: unavailableCategoryMsg}
	}
	cats, err := r.catalog.ListCategories(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Catalog category listing failed")
		return nil, Failure{Message: unavailableCategoryMsg}
	}
	if len(cats) == 0 {
		return nil, Failure{Message: unavailableCategoryMsg}
	}
	return cats, nil
}

// resolve maps a user-typed name onto a candidate: exact case-insensitive
// first, then fuzzy. kind names the vocabulary in the not-found message.
func (r *Registry) resolve(kind, query string, candidates []string) (string, Result) {
	res := r.matcher.Match(query, candidates)
	if res.OK() {
		if res.Score < 100 {
			logx.Debug().
				Str("kind", kind).
				Str("query", query).
				Str("match", res.Match).
				Int("score", res.Score).
				Msg("Using fuzzy matched name")
		}
		return res.Match, nil
	}
	return "", notFoundFrom(kind, query, res)
}

func notFoundFrom(kind, query string, res fuzzy.Result) NotFound {
	nf := NotFound{
		Message: fmt.Sprintf("%s '%s' not found in our database.", kind, query),
		Query:   query,
		Reason:  res.Reason,
	}
	if res.Match != "" {
		nf.Suggestion = res.Match
		nf.Score = res.Score
	}
	return nf
}

// productRows resolves a product type against the catalog and returns its
// canonical name and every row of that type.
func (r *Registry) productRows(ctx context.Context, productType string) (string, []catalog.Product, Result) {
	all, fail := r.allProducts(ctx)
	if fail != nil {
		return "", nil, fail
	}
	name, miss := r.resolve("Product", productType, catalog.ProductTypes(all))
	if miss != nil {
		return "", nil, miss
	}
	rows := make([]catalog.Product, 0, 8)
	f := catalog.Filter{ProductType: name}
	for _, p := range all {
		if f.Matches(p) {
			rows = append(rows, p)
		}
	}
	return name, rows, nil
}

// Params shorthand.
type params = map[string]*schema.ParameterInfo

func toolInfo(name, desc string, p params) *schema.ToolInfo {
	info := &schema.ToolInfo{Name: name, Desc: desc}
	if len(p) > 0 {
		info.ParamsOneOf = schema.NewParamsOneOfByParams(p)
	}
	return info
}
