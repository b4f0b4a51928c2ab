package tools

import (
	"context"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/catalog"
)

const (
	welcomeText  = "Welcome to our Online Grocery Store! How can I help you today?"
	fallbackText = "I'm sorry, I don't understand that request or it's not supported yet."
)

// featuredCategories bounds how many categories the greeting features.
const featuredCategories = 3

func (r *Registry) registerSupportTools() {
	r.register(toolInfo(ToolHelp,
		"Explains what the assistant can do, with example requests.", nil), r.help)
	r.register(toolInfo(ToolGreeting,
		"Greets the user and features a few top-rated products. Use when the user says hello.", nil), r.greeting)
	r.register(toolInfo(ToolFallback,
		"Use when a request cannot be understood or is not supported.", nil), r.fallback)
}

func (r *Registry) help(context.Context, Args) Result {
	return Success{Data: map[string]any{
		"available_features": []string{
			"Search for product categories",
			"Search for specific products",
			"Compare products by price, rating, or reviews",
			"Add products to your shopping cart",
			"View, modify, or clear your shopping cart",
		},
		"example_queries": []string{
			"What categories do you have?",
			"Show me all vegetables",
			"What brands of milk do you have?",
			"What's the cheapest brand of chicken?",
			"Add 2 FreshFarm carrots to my cart",
			"Show me my cart",
			"Remove apples from my cart",
		},
	}}
}

func (r *Registry) greeting(ctx context.Context, _ Args) Result {
	cats, fail := r.categories(ctx)
	if fail != nil {
		return fail
	}
	if len(cats) > featuredCategories {
		cats = cats[:featuredCategories]
	}

	featured := make([]catalog.Product, 0, len(cats))
	for _, c := range cats {
		rows, fail := r.products(ctx, catalog.Filter{Category: c})
		if fail != nil {
			return fail
		}
		if len(rows) == 0 {
			continue
		}
		best := rows[0]
		for _, p := range rows[1:] {
			if p.Rating > best.Rating {
				best = p
			}
		}
		featured = append(featured, best)
	}

	return Success{
		Message: welcomeText,
		Data:    map[string]any{"featured_products": featured},
	}
}

func (r *Registry) fallback(context.Context, Args) Result {
	return Success{
		Message: fallbackText,
		Data: map[string]any{"suggestions": []string{
			"Try asking about our product categories",
			"Search for specific products",
			"Ask for help to see what I can do",
			"Check your shopping cart",
		}},
	}
}
