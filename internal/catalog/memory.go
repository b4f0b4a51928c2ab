package catalog

import "context"

// Memory is an Accessor over a fixed slice of products.
type Memory struct {
	rows []Product
}

// NewMemory copies products into a new in-memory catalog.
func NewMemory(products []Product) *Memory {
	rows := make([]Product, len(products))
	copy(rows, products)
	return &Memory{rows: rows}
}

func (m *Memory) Lookup(_ context.Context, f Filter) ([]Product, error) {
	out := make([]Product, 0, len(m.rows))
	for _, p := range m.rows {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) ListCategories(_ context.Context) ([]string, error) {
	return categoriesOf(m.rows), nil
}

var _ Accessor = (*Memory)(nil)
