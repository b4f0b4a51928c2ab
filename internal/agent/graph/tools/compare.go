package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/catalog"
)

// Comparison ranks the brands of one product type by a single attribute.
type Comparison struct {
	ProductType string            `json:"product_type"`
	By          string            `json:"compared_by"`
	Best        catalog.Product   `json:"best"`
	Ranking     []catalog.Product `json:"ranking"`
}

func (r *Registry) registerCompareTools() {
	productParam := params{
		"product_type": {Type: schema.String, Desc: "The product type whose brands should be compared.", Required: true},
	}
	r.register(toolInfo(ToolCompareByRating,
		"Compares the brands of a product by rating, best rated first.", productParam),
		r.comparer("rating", sortByRating))
	r.register(toolInfo(ToolCompareByPrice,
		"Compares the brands of a product by price, cheapest first.", productParam),
		r.comparer("price", sortByPrice))
	r.register(toolInfo(ToolCompareByReview,
		"Compares the brands of a product by number of reviews, most reviewed first.", productParam),
		r.comparer("reviews", sortByReviews))
}

// comparer builds a comparison tool. At least two catalog rows are needed
// for a comparison to be meaningful.
func (r *Registry) comparer(by string, order func([]catalog.Product)) handler {
	return func(ctx context.Context, args Args) Result {
		name, rows, fail := r.productRows(ctx, args.String("product_type"))
		if fail != nil {
			return fail
		}
		if len(rows) < 2 {
			return NotFound{
				Message: fmt.Sprintf("Need at least two %s products to compare; found %d.", name, len(rows)),
				Query:   args.String("product_type"),
			}
		}
		ranked := append([]catalog.Product(nil), rows...)
		order(ranked)
		return Success{Data: Comparison{ProductType: name, By: by, Best: ranked[0], Ranking: ranked}}
	}
}
