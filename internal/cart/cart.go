// Package cart holds the authoritative shopping cart for one session.
//
// Every line satisfies LineTotal == UnitPrice * Quantity and Quantity > 0;
// lines are keyed by (product type, brand), compared case-insensitively after
// trimming. The State is safe for concurrent use; readers always observe a
// fully applied mutation.
package cart

import (
	"strings"
	"sync"
)

// Key identifies a cart line.
type Key struct {
	ProductType string
	Brand       string
}

// KeyOf normalises a product type and brand into a Key.
func KeyOf(productType, brand string) Key {
	return Key{ProductType: normalize(productType), Brand: normalize(brand)}
}

// Line is one cart entry.
type Line struct {
	ProductType string  `json:"product_type"`
	Brand       string  `json:"product_brand"`
	UnitPrice   float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	LineTotal   float64 `json:"item_total"`
}

// Totals aggregates the cart.
type Totals struct {
	Lines    int     `json:"lines"`
	Quantity int     `json:"total_quantity"`
	Price    float64 `json:"total_price"`
}

// State is the mutable cart.
type State struct {
	mu    sync.RWMutex
	lines map[Key]*Line
	order []Key
}

func New() *State {
	return &State{lines: make(map[Key]*Line)}
}

// Add merges quantity units of the item into the cart. Adding to an existing
// line keeps that line's unit price. It returns the resulting line and false
// when the request was rejected (empty key, non-positive quantity or price).
func (s *State) Add(productType, brand string, unitPrice float64, quantity int) (Line, bool) {
	key := KeyOf(productType, brand)
	if key.ProductType == "" || key.Brand == "" || quantity <= 0 || unitPrice < 0 {
		return Line{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if l, ok := s.lines[key]; ok {
		l.Quantity += quantity
		l.LineTotal = l.UnitPrice * float64(l.Quantity)
		return *l, true
	}

	l := &Line{
		ProductType: strings.TrimSpace(productType),
		Brand:       strings.TrimSpace(brand),
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		LineTotal:   unitPrice * float64(quantity),
	}
	s.lines[key] = l
	s.order = append(s.order, key)
	return *l, true
}

// Remove deletes the line for (productType, brand). With an empty brand every
// line of that product type is removed. It returns the removed lines.
func (s *State) Remove(productType, brand string) []Line {
	key := KeyOf(productType, brand)
	if key.ProductType == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []Line
	if key.Brand != "" {
		if l, ok := s.lines[key]; ok {
			removed = append(removed, *l)
			s.delete(key)
		}
		return removed
	}
	for _, k := range append([]Key(nil), s.order...) {
		if k.ProductType == key.ProductType {
			removed = append(removed, *s.lines[k])
			s.delete(k)
		}
	}
	return removed
}

// SetQuantity sets the quantity of an existing line; quantity <= 0 removes it.
// It reports whether the line existed.
func (s *State) SetQuantity(productType, brand string, quantity int) (Line, bool) {
	key := KeyOf(productType, brand)

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lines[key]
	if !ok {
		return Line{}, false
	}
	if quantity <= 0 {
		out := *l
		s.delete(key)
		out.Quantity = 0
		out.LineTotal = 0
		return out, true
	}
	l.Quantity = quantity
	l.LineTotal = l.UnitPrice * float64(quantity)
	return *l, true
}

// Clear empties the cart and returns how many lines it held.
func (s *State) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.order)
	s.lines = make(map[Key]*Line)
	s.order = nil
	return n
}

// Get returns the line for a key, if present.
func (s *State) Get(productType, brand string) (Line, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lines[KeyOf(productType, brand)]
	if !ok {
		return Line{}, false
	}
	return *l, true
}

// Lines returns a snapshot of every line in insertion order.
func (s *State) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Line, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, *s.lines[k])
	}
	return out
}

// Snapshot returns the lines and their totals from a single consistent read.
func (s *State) Snapshot() ([]Line, Totals) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Line, 0, len(s.order))
	var t Totals
	for _, k := range s.order {
		l := *s.lines[k]
		out = append(out, l)
		t.Lines++
		t.Quantity += l.Quantity
		t.Price += l.LineTotal
	}
	return out, t
}

// Totals aggregates the current cart.
func (s *State) Totals() Totals {
	_, t := s.Snapshot()
	return t
}

// Len returns the number of lines.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *State) init() {
	if s.lines == nil {
		s.lines = make(map[Key]*Line)
	}
}

// delete must be called with the write lock held.
func (s *State) delete(key Key) {
	delete(s.lines, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
