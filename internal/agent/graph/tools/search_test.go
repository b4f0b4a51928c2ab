package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/catalog"
)

func productsOf(t *testing.T, res Result) []catalog.Product {
	t.Helper()
	s, ok := res.(Success)
	require.True(t, ok, "expected success, got %#v", res)
	list, ok := s.Data.(ProductList)
	require.True(t, ok, "expected product list, got %#v", s.Data)
	assert.Equal(t, len(list.Products), list.Count)
	return list.Products
}

func brandsOf(rows []catalog.Product) []string {
	out := make([]string, len(rows))
	for i, p := range rows {
		out[i] = p.Brand
	}
	return out
}

func TestSearchCategory(t *testing.T) {
	r := newTestRegistry()

	res, payload := run(t, r, ToolSearchCategory, `{"category_type":"Dairy"}`)
	require.Equal(t, StatusFound, res.Status())
	assert.Equal(t, Found{Query: "Dairy", Match: "dairy", Score: 100}, res.Result)
	assert.Equal(t, "found", payload["status"])

	res, _ = run(t, r, ToolSearchCategory, `{"category_type":"veggies"}`)
	require.Equal(t, StatusFound, res.Status())
	assert.Equal(t, "vegetables", res.Result.(Found).Match)

	res, payload = run(t, r, ToolSearchCategory, `{"category_type":"zzzz"}`)
	require.Equal(t, StatusNotFound, res.Status())
	assert.NotEmpty(t, payload["reason"])
}

func TestSearchCategoryAll(t *testing.T) {
	res, _ := run(t, newTestRegistry(), ToolSearchCategoryAll, ``)
	require.Equal(t, StatusSuccess, res.Status())
	data := res.Result.(Success).Data.(map[string]any)
	assert.Equal(t, []string{"vegetables", "dairy", "meat", "fruits"}, data["categories"])
}

func TestSearchIngredientByType(t *testing.T) {
	res, _ := run(t, newTestRegistry(), ToolSearchIngredient, `{"category_type":"diary"}`)
	rows := productsOf(t, res.Result)
	assert.Len(t, rows, 3)
	assert.Equal(t, "dairy", res.Result.(Success).Data.(ProductList).Category)
}

func TestSearchIngredientAll(t *testing.T) {
	res, _ := run(t, newTestRegistry(), ToolSearchIngredientAll, `{}`)
	require.Equal(t, StatusSuccess, res.Status())
	groups := res.Result.(Success).Data.(map[string]any)["categories"].([]CategoryGroup)
	require.Len(t, groups, 4)
	assert.Equal(t, CategoryGroup{Category: "vegetables", ProductTypes: []string{"Carrot", "Broccoli"}}, groups[0])
	assert.Equal(t, CategoryGroup{Category: "dairy", ProductTypes: []string{"Milk", "Greek Yogurt"}}, groups[1])
}

func TestSearchProductByTypeFuzzy(t *testing.T) {
	res, _ := run(t, newTestRegistry(), ToolSearchProduct, `{"product_type":"carots"}`)
	rows := productsOf(t, res.Result)
	assert.Equal(t, []string{"FreshFarm", "Organic Choice"}, brandsOf(rows))

	res, payload := run(t, newTestRegistry(), ToolSearchProduct, `{"product_type":"bananas"}`)
	assert.Equal(t, StatusNotFound, res.Status())
	assert.Contains(t, payload["message"], "bananas")
}

func TestSearchByBrand(t *testing.T) {
	r := newTestRegistry()

	res, _ := run(t, r, ToolSearchByBrand, `{"product_type":"Carrot"}`)
	require.Equal(t, StatusSuccess, res.Status())
	assert.Equal(t, BrandList{ProductType: "Carrot", Brands: []string{"FreshFarm", "Organic Choice"}}, res.Result.(Success).Data)

	res, _ = run(t, r, ToolSearchByBrand, `{"product_type":"Carrot","brand":"freshfam"}`)
	require.Equal(t, StatusSuccess, res.Status())
	p := res.Result.(Success).Data.(map[string]any)["product"].(catalog.Product)
	assert.Equal(t, "FreshFarm", p.Brand)

	res, _ = run(t, r, ToolSearchByBrand, `{"product_type":"Carrot","brand":"acme"}`)
	require.Equal(t, StatusNotFound, res.Status())
	assert.Equal(t, []string{"FreshFarm", "Organic Choice"}, res.Result.(NotFound).Available)
}

func TestSearchByRating(t *testing.T) {
	r := newTestRegistry()

	res, _ := run(t, r, ToolSearchByRating, `{"product_type":"Carrot","min_rating":4.6}`)
	assert.Equal(t, []string{"Organic Choice"}, brandsOf(productsOf(t, res.Result)))

	res, _ = run(t, r, ToolSearchByRating, `{"product_type":"Carrot","min_rating":9}`)
	assert.Equal(t, []string{"Organic Choice", "FreshFarm"}, brandsOf(productsOf(t, res.Result)), "invalid rating resets to 0")

	res, _ = run(t, r, ToolSearchByRating, `{"product_type":"Carrot","min_rating":4.9}`)
	assert.Equal(t, StatusNotFound, res.Status())
}

func TestSearchByPrice(t *testing.T) {
	r := newTestRegistry()

	res, _ := run(t, r, ToolSearchByPrice, `{"product_type":"Milk","max_price":"3.00"}`)
	assert.Equal(t, []string{"DairyBest"}, brandsOf(productsOf(t, res.Result)))

	res, _ = run(t, r, ToolSearchByPrice, `{"product_type":"Milk"}`)
	assert.Equal(t, []string{"DairyBest", "Jempio"}, brandsOf(productsOf(t, res.Result)))

	res, _ = run(t, r, ToolSearchByPrice, `{"product_type":"Milk","max_price":-2}`)
	assert.Len(t, productsOf(t, res.Result), 2, "invalid price shows all prices")

	res, _ = run(t, r, ToolSearchByPrice, `{"product_type":"Milk","max_price":1}`)
	assert.Equal(t, StatusNotFound, res.Status())
}

func TestSearchByReview(t *testing.T) {
	r := newTestRegistry()

	res, _ := run(t, r, ToolSearchByReview, `{"category_type":"dairy"}`)
	assert.Equal(t, []string{"Jempio", "DairyBest", "Olympus"}, brandsOf(productsOf(t, res.Result)))

	res, _ = run(t, r, ToolSearchByReview, `{"min_reviews":150}`)
	assert.Equal(t, []string{"FarmFresh", "Jempio", "DairyBest"}, brandsOf(productsOf(t, res.Result)))

	res, _ = run(t, r, ToolSearchByReview, `{"product_type":"Carrot","min_reviews":-3}`)
	assert.Equal(t, []string{"FreshFarm", "Organic Choice"}, brandsOf(productsOf(t, res.Result)))

	res, _ = run(t, r, ToolSearchByReview, `{"product_type":"Carrot","category_type":"dairy"}`)
	assert.Equal(t, StatusNotFound, res.Status())

	res, _ = run(t, r, ToolSearchByReview, `{"min_reviews":1000}`)
	assert.Equal(t, StatusNotFound, res.Status())
}

func TestSearchMultiple(t *testing.T) {
	r := newTestRegistry()

	res, _ := run(t, r, ToolSearchMultiple, `{"product_types":["Milk","aple"]}`)
	require.Equal(t, StatusSuccess, res.Status())
	items := res.Result.(Success).Data.(map[string]any)["results"].([]BatchItem)
	require.Len(t, items, 2)
	assert.Equal(t, "Apple", items[1].ProductType)

	res, payload := run(t, r, ToolSearchMultiple, `{"product_types":"carots, bananas"}`)
	require.Equal(t, StatusPartial, res.Status())
	assert.Equal(t, []string{"bananas"}, res.Result.(Partial).Missing)
	assert.Equal(t, "partial", payload["status"])

	res, _ = run(t, r, ToolSearchMultiple, `{"product_types":["bananas"]}`)
	assert.Equal(t, StatusNotFound, res.Status())

	res, _ = run(t, r, ToolSearchMultiple, `{}`)
	assert.Equal(t, StatusError, res.Status())
}

func TestCompareTools(t *testing.T) {
	r := newTestRegistry()

	res, _ := run(t, r, ToolCompareByPrice, `{"product_type":"carrot"}`)
	require.Equal(t, StatusSuccess, res.Status())
	cmp := res.Result.(Success).Data.(Comparison)
	assert.Equal(t, "FreshFarm", cmp.Best.Brand)
	assert.Equal(t, "price", cmp.By)

	res, _ = run(t, r, ToolCompareByRating, `{"product_type":"Milk"}`)
	assert.Equal(t, "Jempio", res.Result.(Success).Data.(Comparison).Best.Brand)

	res, _ = run(t, r, ToolCompareByReview, `{"product_type":"Carrot"}`)
	assert.Equal(t, []string{"FreshFarm", "Organic Choice"}, brandsOf(res.Result.(Success).Data.(Comparison).Ranking))

	res, _ = run(t, r, ToolCompareByRating, `{"product_type":"Apple"}`)
	assert.Equal(t, StatusNotFound, res.Status(), "a single row cannot be compared")
}

func TestSupportTools(t *testing.T) {
	r := newTestRegistry()

	res, _ := run(t, r, ToolGreeting, `{}`)
	require.Equal(t, StatusSuccess, res.Status())
	featured := res.Result.(Success).Data.(map[string]any)["featured_products"].([]catalog.Product)
	require.Len(t, featured, 3)
	assert.Equal(t, "Organic Choice", featured[0].Brand)
	assert.Equal(t, "Greek Yogurt", featured[1].ProductType)
	assert.Equal(t, "Chicken Breast", featured[2].ProductType)

	for _, name := range []string{ToolHelp, ToolFallback} {
		res, _ := run(t, r, name, `{}`)
		assert.Equal(t, StatusSuccess, res.Status(), name)
	}

	res, _ = run(t, r, ToolViewCart, `{}`)
	assert.Equal(t, StatusError, res.Status())
}
