package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_tariff/internal/models"
)

const productColumns = `id, name, brand, unit_cost, unit, created_at, updated_at`

// ProductRepository handles data access for the product catalog.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByName returns every product whose name matches case-insensitively,
// in id order. Names are not unique across brands, so callers pick the first.
func (r *ProductRepository) FindByName(ctx context.Context, name string) ([]models.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE LOWER(name) = LOWER($1) ORDER BY id`

	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var products []models.Product
	if err := stmt.SelectContext(ctx, &products, name); err != nil {
		return nil, fmt.Errorf("find product %q: %w", name, err)
	}
	return products, nil
}

// GetByID returns a single product by id, or nil when absent.
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = $1 LIMIT 1`

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// Create inserts a product and populates its id and timestamps.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	const q = `INSERT INTO products (name, brand, unit_cost, unit)
              VALUES ($1, $2, $3, $4)
              RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, q,
		product.Name,
		product.Brand,
		product.UnitCost,
		product.Unit,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product %q: %w", product.Name, err)
	}
	return nil
}
