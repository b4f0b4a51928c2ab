package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/catalog"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

// ProductList is the payload of the product lookup tools.
type ProductList struct {
	Category    string            `json:"category_type,omitempty"`
	ProductType string            `json:"product_type,omitempty"`
	Count       int               `json:"count"`
	Products    []catalog.Product `json:"products"`
}

// CategoryGroup lists the product types of one category.
type CategoryGroup struct {
	Category     string   `json:"category_type"`
	ProductTypes []string `json:"product_types"`
}

// BrandList is the payload of search_ingredient_by_brand without a brand.
type BrandList struct {
	ProductType string   `json:"product_type"`
	Brands      []string `json:"brands"`
}

// BatchItem is one resolved entry of search_multiple_ingredients.
type BatchItem struct {
	Query       string            `json:"input_query"`
	ProductType string            `json:"product_type"`
	Products    []catalog.Product `json:"products"`
}

func listOf(category, productType string, rows []catalog.Product) ProductList {
	return ProductList{Category: category, ProductType: productType, Count: len(rows), Products: rows}
}

func (r *Registry) registerSearchTools() {
	r.register(toolInfo(ToolSearchCategory,
		"Checks whether a category mentioned by the user exists (e.g. 'vegetables', 'fruits', 'dairy'), tolerating typos. Only provide the category name.",
		params{
			"category_type": {Type: schema.String, Desc: "The category name the user wants to check.", Required: true},
		}), r.searchCategory)

	r.register(toolInfo(ToolSearchCategoryAll,
		"Lists every available grocery category. Use when the user asks what categories exist. Takes no arguments.",
		nil), r.searchCategoryAll)

	r.register(toolInfo(ToolSearchIngredient,
		"Returns the products available within one category.",
		params{
			"category_type": {Type: schema.String, Desc: "The category to list products for.", Required: true},
		}), r.searchIngredientByType)

	r.register(toolInfo(ToolSearchIngredientAll,
		"Lists the product types of every category. Takes no arguments.",
		nil), r.searchIngredientAll)

	r.register(toolInfo(ToolSearchProduct,
		"Returns every catalog entry (all brands) for a product type such as 'Carrot' or 'Milk'.",
		params{
			"product_type": {Type: schema.String, Desc: "The product type to search for.", Required: true},
		}), r.searchProductByType)

	r.register(toolInfo(ToolSearchByBrand,
		"Searches a product type by brand. Without a brand, lists the brands available for the product.",
		params{
			"product_type": {Type: schema.String, Desc: "The product type, e.g. 'Carrot', 'Milk', 'Chicken Breast'.", Required: true},
			"brand":        {Type: schema.String, Desc: "Optional brand name to look up."},
		}), r.searchByBrand)

	r.register(toolInfo(ToolSearchByRating,
		"Finds brands of a product type with at least the given rating, highest rated first.",
		params{
			"product_type": {Type: schema.String, Desc: "The product type to search for.", Required: true},
			"min_rating":   {Type: schema.Number, Desc: "Minimum rating between 0.0 and 5.0. Default 0.0."},
		}), r.searchByRating)

	r.register(toolInfo(ToolSearchByPrice,
		"Finds brands of a product type at or below a maximum price, cheapest first. Also use it to answer price questions.",
		params{
			"product_type": {Type: schema.String, Desc: "The product type to search for.", Required: true},
			"max_price":    {Type: schema.Number, Desc: "Optional maximum price. Omit to show all prices."},
		}), r.searchByPrice)

	r.register(toolInfo(ToolSearchByReview,
		"Finds popular products by review count, most reviewed first. Product type and category are optional filters.",
		params{
			"product_type":  {Type: schema.String, Desc: "Optional product type to restrict the search."},
			"min_reviews":   {Type: schema.Integer, Desc: "Minimum number of reviews. Default 0."},
			"category_type": {Type: schema.String, Desc: "Optional category to restrict the search."},
		}), r.searchByReview)

	r.register(toolInfo(ToolSearchMultiple,
		"Looks up several product types at once, e.g. the ingredients of a recipe.",
		params{
			"product_types": {
				Type:     schema.Array,
				Desc:     "The product types to look up.",
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
				Required: true,
			},
		}), r.searchMultiple)
}

// ===================================
// Category tools
// ===================================

func (r *Registry) searchCategory(ctx context.Context, args Args) Result {
	cats, fail := r.categories(ctx)
	if fail != nil {
		return fail
	}
	query := args.String("category_type")
	res := r.matcher.Match(query, cats)
	if !res.OK() {
		return notFoundFrom("Category", query, res)
	}
	return Found{Query: query, Match: res.Match, Score: res.Score}
}

func (r *Registry) searchCategoryAll(ctx context.Context, _ Args) Result {
	cats, fail := r.categories(ctx)
	if fail != nil {
		return fail
	}
	return Success{
		Message: fmt.Sprintf("%d categories available.", len(cats)),
		Data:    map[string]any{"categories": cats},
	}
}

func (r *Registry) searchIngredientByType(ctx context.Context, args Args) Result {
	cats, fail := r.categories(ctx)
	if fail != nil {
		return fail
	}
	query := args.String("category_type")
	category, miss := r.resolve("Category", query, cats)
	if miss != nil {
		return miss
	}
	rows, fail := r.products(ctx, catalog.Filter{Category: category})
	if fail != nil {
		return fail
	}
	if len(rows) == 0 {
		return NotFound{Message: fmt.Sprintf("No products found in category '%s'.", category), Query: query}
	}
	return Success{Data: listOf(category, "", rows)}
}

func (r *Registry) searchIngredientAll(ctx context.Context, _ Args) Result {
	all, fail := r.allProducts(ctx)
	if fail != nil {
		return fail
	}
	var groups []CategoryGroup
	index := map[string]int{}
	seen := map[string]struct{}{}
	for _, p := range all {
		cat := strings.ToLower(strings.TrimSpace(p.Category))
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, CategoryGroup{Category: cat})
		}
		key := cat + "|" + strings.ToLower(strings.TrimSpace(p.ProductType))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		groups[i].ProductTypes = append(groups[i].ProductTypes, strings.TrimSpace(p.ProductType))
	}
	return Success{Data: map[string]any{"categories": groups}}
}

// ===================================
// Product tools
// ===================================

func (r *Registry) searchProductByType(ctx context.Context, args Args) Result {
	name, rows, fail := r.productRows(ctx, args.String("product_type"))
	if fail != nil {
		return fail
	}
	return Success{Data: listOf("", name, rows)}
}

func (r *Registry) searchByBrand(ctx context.Context, args Args) Result {
	name, rows, fail := r.productRows(ctx, args.String("product_type"))
	if fail != nil {
		return fail
	}
	brands := catalog.Brands(rows)

	brand := args.String("brand")
	if brand == "" {
		return Success{Data: BrandList{ProductType: name, Brands: brands}}
	}

	res := r.matcher.Match(brand, brands)
	if !res.OK() {
		nf := notFoundFrom("Brand", brand, res)
		nf.Message = fmt.Sprintf("Brand '%s' not found for product '%s'.", brand, name)
		nf.Available = brands
		return nf
	}
	for _, p := range rows {
		if strings.EqualFold(p.Brand, res.Match) {
			return Success{Data: map[string]any{"product": p}}
		}
	}
	return NotFound{Message: fmt.Sprintf("Brand '%s' not found for product '%s'.", brand, name), Available: brands}
}

func (r *Registry) searchByRating(ctx context.Context, args Args) Result {
	minRating, ok := args.Float("min_rating")
	if args.Has("min_rating") && (!ok || minRating < 0 || minRating > 5) {
		logx.Warn().Interface("min_rating", args["min_rating"]).Msg("Invalid rating value; using default 0.0")
		minRating = 0
	}

	name, rows, fail := r.productRows(ctx, args.String("product_type"))
	if fail != nil {
		return fail
	}
	filtered := filterRows(rows, func(p catalog.Product) bool { return p.Rating >= minRating })
	if len(filtered) == 0 {
		return NotFound{Message: fmt.Sprintf("No %s products found with rating %.1f or higher.", name, minRating)}
	}
	sortByRating(filtered)
	return Success{Data: listOf("", name, filtered)}
}

func (r *Registry) searchByPrice(ctx context.Context, args Args) Result {
	maxPrice, ok := args.Float("max_price")
	if args.Has("max_price") && (!ok || maxPrice <= 0) {
		logx.Warn().Interface("max_price", args["max_price"]).Msg("Invalid price value; showing all prices")
		ok = false
	}

	name, rows, fail := r.productRows(ctx, args.String("product_type"))
	if fail != nil {
		return fail
	}
	filtered := rows
	if ok {
		filtered = filterRows(rows, func(p catalog.Product) bool { return p.Price <= maxPrice })
		if len(filtered) == 0 {
			return NotFound{Message: fmt.Sprintf("No %s products found at or below $%.2f.", name, maxPrice)}
		}
	}
	filtered = append([]catalog.Product(nil), filtered...)
	sortByPrice(filtered)
	return Success{Data: listOf("", name, filtered)}
}

func (r *Registry) searchByReview(ctx context.Context, args Args) Result {
	minReviews, ok := args.Int("min_reviews")
	if args.Has("min_reviews") && (!ok || minReviews < 0) {
		logx.Warn().Interface("min_reviews", args["min_reviews"]).Msg("Invalid review count; using default 0")
		minReviews = 0
	}

	var (
		name string
		rows []catalog.Product
		fail Result
	)
	if productType := args.String("product_type"); productType != "" {
		name, rows, fail = r.productRows(ctx, productType)
	} else {
		rows, fail = r.allProducts(ctx)
	}
	if fail != nil {
		return fail
	}

	var category string
	if query := args.String("category_type"); query != "" {
		cats, fail := r.categories(ctx)
		if fail != nil {
			return fail
		}
		var miss Result
		if category, miss = r.resolve("Category", query, cats); miss != nil {
			return miss
		}
		f := catalog.Filter{Category: category}
		rows = filterRows(rows, f.Matches)
		if len(rows) == 0 {
			return NotFound{Message: fmt.Sprintf("No products found in category '%s'.", category)}
		}
	}

	filtered := filterRows(rows, func(p catalog.Product) bool { return p.ReviewCount >= minReviews })
	if len(filtered) == 0 {
		return NotFound{Message: fmt.Sprintf("No products found with review count %d or higher.", minReviews)}
	}
	sortByReviews(filtered)
	return Success{Data: listOf(category, name, filtered)}
}

func (r *Registry) searchMultiple(ctx context.Context, args Args) Result {
	queries := args.Strings("product_types")
	if len(queries) == 0 {
		return Failure{Message: "product_types must list at least one product type."}
	}
	all, fail := r.allProducts(ctx)
	if fail != nil {
		return fail
	}
	types := catalog.ProductTypes(all)

	var (
		found   []BatchItem
		missing []string
	)
	for _, q := range queries {
		name, miss := r.resolve("Product", q, types)
		if miss != nil {
			missing = append(missing, q)
			continue
		}
		f := catalog.Filter{ProductType: name}
		found = append(found, BatchItem{Query: q, ProductType: name, Products: filterRows(all, f.Matches)})
	}

	switch {
	case len(missing) == 0:
		return Success{Data: map[string]any{"results": found}}
	case len(found) == 0:
		return NotFound{Message: fmt.Sprintf("None of the requested products were found: %s.", strings.Join(missing, ", "))}
	default:
		return Partial{
			Message: fmt.Sprintf("Found %d of %d requested products.", len(found), len(queries)),
			Data:    map[string]any{"results": found},
			Missing: missing,
		}
	}
}

// ===================================
// Row helpers
// ===================================

func filterRows(rows []catalog.Product, keep func(catalog.Product) bool) []catalog.Product {
	out := make([]catalog.Product, 0, len(rows))
	for _, p := range rows {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func sortByRating(rows []catalog.Product) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Rating > rows[j].Rating })
}

func sortByPrice(rows []catalog.Product) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Price < rows[j].Price })
}

func sortByReviews(rows []catalog.Product) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ReviewCount > rows[j].ReviewCount })
}
