package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	errx "github.com/Chative-core-poc-v1/shopping-assistant/internal/core/error"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	product_key    TEXT PRIMARY KEY,
	product_type   TEXT NOT NULL,
	product_brand  TEXT NOT NULL,
	product_price  REAL NOT NULL,
	product_rating REAL NOT NULL,
	product_review INTEGER NOT NULL,
	category_type  TEXT NOT NULL
);
`

// SQLite is an Accessor backed by a SQLite products table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the catalog database and runs migrations.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Import upserts products keyed by (product type, brand), case-insensitively.
// It returns the number of rows written.
func (s *SQLite) Import(ctx context.Context, products []Product) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errx.WrapCatalog(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (product_key, product_type, product_brand, product_price, product_rating, product_review, category_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (product_key) DO UPDATE SET
			product_price = excluded.product_price,
			product_rating = excluded.product_rating,
			product_review = excluded.product_review,
			category_type = excluded.category_type`)
	if err != nil {
		return 0, errx.WrapCatalog(fmt.Errorf("prepare insert: %w", err))
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, rowKey(p),
			strings.TrimSpace(p.ProductType), strings.TrimSpace(p.Brand),
			p.Price, p.Rating, p.ReviewCount, strings.TrimSpace(p.Category),
		); err != nil {
			return 0, errx.WrapCatalog(fmt.Errorf("insert %s/%s: %w", p.ProductType, p.Brand, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errx.WrapCatalog(fmt.Errorf("commit: %w", err))
	}
	return len(products), nil
}

func (s *SQLite) Lookup(ctx context.Context, f Filter) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	add := func(column, value string) {
		if v := normalize(value); v != "" {
			where = append(where, "lower(trim("+column+")) = ?")
			args = append(args, v)
		}
	}
	add("category_type", f.Category)
	add("product_type", f.ProductType)
	add("product_brand", f.Brand)

	query := `SELECT product_type, product_brand, product_price, product_rating, product_review, category_type FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errx.WrapCatalog(fmt.Errorf("query products: %w", err))
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ProductType, &p.Brand, &p.Price, &p.Rating, &p.ReviewCount, &p.Category); err != nil {
			return nil, errx.WrapCatalog(fmt.Errorf("scan product: %w", err))
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapCatalog(fmt.Errorf("iterate products: %w", err))
	}
	return out, nil
}

func (s *SQLite) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lower(trim(category_type)) AS c FROM products GROUP BY c ORDER BY MIN(rowid)`)
	if err != nil {
		return nil, errx.WrapCatalog(fmt.Errorf("query categories: %w", err))
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, errx.WrapCatalog(fmt.Errorf("scan category: %w", err))
		}
		if c != "" {
			out = append(out, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapCatalog(fmt.Errorf("iterate categories: %w", err))
	}
	return out, nil
}

// rowKey is the uniqueness key for a catalog row.
func rowKey(p Product) string {
	return normalize(p.ProductType) + "\x1f" + normalize(p.Brand)
}

var _ Accessor = (*SQLite)(nil)
