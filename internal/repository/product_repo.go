package repository

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/loanhub/loanhub-api/internal/models"
)

// ProductFilter narrows the catalog query. Zero values impose no constraint.
type ProductFilter struct {
	Bank           string
	Type           string
	MaxAPR         *float64
	MinCreditScore *int
}

// ProductRepository handles data access for loan products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetAll returns products matching all supplied filters, ordered by name
// ascending. Bank and type are exact matches; max_apr is an inclusive upper
// bound on rate_apr and min_credit_score an inclusive lower bound.
func (r *ProductRepository) GetAll(filter ProductFilter) ([]models.Product, error) {
	q := `SELECT * FROM products WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Bank != "" {
		q += fmt.Sprintf(" AND bank = $%d", argIdx)
		args = append(args, filter.Bank)
		argIdx++
	}
	if filter.Type != "" {
		q += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, filter.Type)
		argIdx++
	}
	if filter.MaxAPR != nil {
		q += fmt.Sprintf(" AND rate_apr <= $%d", argIdx)
		args = append(args, *filter.MaxAPR)
		argIdx++
	}
	if filter.MinCreditScore != nil {
		q += fmt.Sprintf(" AND min_credit_score >= $%d", argIdx)
		args = append(args, *filter.MinCreditScore)
		argIdx++
	}

	q += ` ORDER BY name ASC`

	var products []models.Product
	if err := r.db.Select(&products, q, args...); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(id string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`

	var p models.Product
	if err := r.db.Get(&p, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// GetDistinctBanks returns all distinct bank names, for the filter panel.
func (r *ProductRepository) GetDistinctBanks() ([]string, error) {
	const q = `SELECT DISTINCT bank FROM products WHERE bank IS NOT NULL AND bank != '' ORDER BY bank`
	var banks []string
	if err := r.db.Select(&banks, q); err != nil {
		return nil, err
	}
	return banks, nil
}

// GetDistinctTypes returns all distinct loan categories, for the filter panel.
func (r *ProductRepository) GetDistinctTypes() ([]string, error) {
	const q = `SELECT DISTINCT type FROM products WHERE type IS NOT NULL AND type != '' ORDER BY type`
	var types []string
	if err := r.db.Select(&types, q); err != nil {
		return nil, err
	}
	return types, nil
}
