package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSV column names used by the product export.
const (
	ColumnProductType = "product_type"
	ColumnBrand       = "product_brand"
	ColumnPrice       = "product_price"
	ColumnRating      = "product_rating"
	ColumnReview      = "product_review"
	ColumnCategory    = "category_type"
)

var requiredColumns = []string{
	ColumnProductType, ColumnBrand, ColumnPrice, ColumnRating, ColumnReview, ColumnCategory,
}

// LoadCSV reads products from a CSV stream with a header row. Extra columns
// are ignored; a missing required column or a malformed number is an error.
func LoadCSV(r io.Reader) ([]Product, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv header: empty input")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv missing column %q", col)
		}
	}

	var products []Product
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		p, err := parseRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func parseRecord(rec []string, idx map[string]int) (Product, error) {
	get := func(col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	price, err := strconv.ParseFloat(get(ColumnPrice), 64)
	if err != nil {
		return Product{}, fmt.Errorf("%s: %w", ColumnPrice, err)
	}
	rating, err := strconv.ParseFloat(get(ColumnRating), 64)
	if err != nil {
		return Product{}, fmt.Errorf("%s: %w", ColumnRating, err)
	}
	reviews, err := strconv.Atoi(get(ColumnReview))
	if err != nil {
		return Product{}, fmt.Errorf("%s: %w", ColumnReview, err)
	}

	p := Product{
		ProductType: get(ColumnProductType),
		Brand:       get(ColumnBrand),
		Price:       price,
		Rating:      rating,
		ReviewCount: reviews,
		Category:    get(ColumnCategory),
	}
	if p.ProductType == "" || p.Brand == "" {
		return Product{}, fmt.Errorf("product type and brand are required")
	}
	return p, nil
}
