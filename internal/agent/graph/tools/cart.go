package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/catalog"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

func (r *Registry) registerCartTools() {
	r.register(toolInfo(ToolViewCart,
		"Shows the current contents and total of the shopping cart. Takes no arguments.",
		nil), r.viewCart)

	r.register(toolInfo(ToolAddToCart,
		"Adds a product of a specific brand to the shopping cart.",
		params{
			"product_type": {Type: schema.String, Desc: "The product type to add, e.g. 'Carrot'.", Required: true},
			"brand":        {Type: schema.String, Desc: "The brand of the product to add.", Required: true},
			"quantity":     {Type: schema.Integer, Desc: "How many units to add. Default 1."},
		}), r.addToCart)

	r.register(toolInfo(ToolRemoveFromCart,
		"Removes a product from the cart. Without a brand, every brand of the product is removed.",
		params{
			"product_type": {Type: schema.String, Desc: "The product type to remove.", Required: true},
			"brand":        {Type: schema.String, Desc: "Optional brand to remove."},
		}), r.removeFromCart)

	r.register(toolInfo(ToolModifyCart,
		"Changes the quantity of a product already in the cart. A quantity of 0 removes it.",
		params{
			"product_type": {Type: schema.String, Desc: "The product type to modify.", Required: true},
			"brand":        {Type: schema.String, Desc: "The brand of the product to modify.", Required: true},
			"quantity":     {Type: schema.Integer, Desc: "The new quantity (0 removes the item).", Required: true},
		}), r.modifyCart)

	r.register(toolInfo(ToolClearCart,
		"Removes every item from the shopping cart. Takes no arguments.",
		nil), r.clearCart)
}

// viewCart holds no cart state. Inside a turn the orchestrator replaces this
// result with the cart as it stands after the response is reconciled.
func (r *Registry) viewCart(context.Context, Args) Result {
	return Failure{Message: "The cart could not be read here; call view_cart on its own to see the cart."}
}

func (r *Registry) addToCart(ctx context.Context, args Args) Result {
	qty, ok := args.Int("quantity")
	if !ok || qty <= 0 {
		if args.Has("quantity") {
			logx.Warn().Interface("quantity", args["quantity"]).Msg("Invalid quantity; using default 1")
		}
		qty = 1
	}

	name, rows, fail := r.productRows(ctx, args.String("product_type"))
	if fail != nil {
		return fail
	}
	brand := args.String("brand")
	if brand == "" {
		return NotFound{
			Message:   fmt.Sprintf("Please choose a brand of %s to add.", name),
			Available: catalog.Brands(rows),
		}
	}
	res := r.matcher.Match(brand, catalog.Brands(rows))
	if !res.OK() {
		nf := notFoundFrom("Brand", brand, res)
		nf.Message = fmt.Sprintf("Could not find %s from %s in our database.", name, brand)
		nf.Available = catalog.Brands(rows)
		return nf
	}

	var product catalog.Product
	for _, p := range rows {
		if strings.EqualFold(p.Brand, res.Match) {
			product = p
			break
		}
	}

	item := CartItem{
		ProductType: product.ProductType,
		Brand:       product.Brand,
		UnitPrice:   product.Price,
		Quantity:    qty,
		ItemTotal:   product.Price * float64(qty),
	}
	return Success{
		Message: fmt.Sprintf("Added %d %s %s to your cart.", qty, item.Brand, item.ProductType),
		Intent:  &CartIntent{Action: ActionAdd, Item: item},
	}
}

func (r *Registry) removeFromCart(ctx context.Context, args Args) Result {
	productType := args.String("product_type")
	if productType == "" {
		return Failure{Message: "product_type is required to remove an item."}
	}
	productType, brand, fail := r.canonicalNames(ctx, productType, args.String("brand"))
	if fail != nil {
		return fail
	}

	msg := fmt.Sprintf("Removed %s from your cart.", productType)
	if brand != "" {
		msg = fmt.Sprintf("Removed %s %s from your cart.", brand, productType)
	}
	return Success{
		Message: msg,
		Intent:  &CartIntent{Action: ActionRemove, Item: CartItem{ProductType: productType, Brand: brand}},
	}
}

func (r *Registry) modifyCart(ctx context.Context, args Args) Result {
	if !args.Has("quantity") {
		return Failure{Message: "Quantity must be a valid number."}
	}
	qty, ok := args.Int("quantity")
	if !ok {
		return Failure{Message: "Quantity must be a valid number."}
	}
	if qty < 0 {
		return Failure{Message: "Quantity must not be negative."}
	}

	productType, brand := args.String("product_type"), args.String("brand")
	if productType == "" || brand == "" {
		return Failure{Message: "product_type and brand are required to modify an item."}
	}
	productType, brand, fail := r.canonicalNames(ctx, productType, brand)
	if fail != nil {
		return fail
	}

	msg := fmt.Sprintf("Updated %s %s quantity to %d in your cart.", brand, productType, qty)
	if qty == 0 {
		msg = fmt.Sprintf("Removed %s %s from your cart.", brand, productType)
	}
	return Success{
		Message: msg,
		Intent: &CartIntent{
			Action: ActionModify,
			Item:   CartItem{ProductType: productType, Brand: brand, Quantity: qty},
		},
	}
}

func (r *Registry) clearCart(context.Context, Args) Result {
	return Success{
		Message: "Your cart has been cleared.",
		Intent:  &CartIntent{Action: ActionClear},
	}
}

// canonicalNames maps names onto their catalog spelling where possible.
// Names that do not resolve are returned as given: the cart may still hold
// an item the catalog no longer lists.
func (r *Registry) canonicalNames(ctx context.Context, productType, brand string) (string, string, Result) {
	all, fail := r.allProducts(ctx)
	if fail != nil {
		return "", "", fail
	}
	if res := r.matcher.Match(productType, catalog.ProductTypes(all)); res.OK() {
		productType = res.Match
	}
	if brand == "" {
		return productType, "", nil
	}
	f := catalog.Filter{ProductType: productType}
	if res := r.matcher.Match(brand, catalog.Brands(filterRows(all, f.Matches))); res.OK() {
		brand = res.Match
	}
	return productType, brand, nil
}
