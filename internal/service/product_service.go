package service

import (
	"database/sql"
	"errors"

	"github.com/loanhub/loanhub-api/internal/models"
	"github.com/loanhub/loanhub-api/internal/repository"
	"github.com/loanhub/loanhub-api/internal/utils"
)

// ProductStore is the catalog access needed by the services. Implemented by
// repository.ProductRepository.
type ProductStore interface {
	GetAll(filter repository.ProductFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	GetDistinctBanks() ([]string, error)
	GetDistinctTypes() ([]string, error)
}

// ProductService serves catalog listing and lookups.
type ProductService struct {
	products ProductStore
}

// NewProductService constructs a ProductService.
func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products}
}

// List returns products matching the filter, ordered by name ascending.
// Never returns a nil slice so empty results encode as [].
func (s *ProductService) List(filter repository.ProductFilter) ([]models.Product, error) {
	products, err := s.products.GetAll(filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Get returns a single product or ErrProductNotFound.
func (s *ProductService) Get(id string) (*models.Product, error) {
	product, err := s.products.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// FilterOptions lists the distinct banks and loan types present in the
// catalog, used to populate the filter panel.
type FilterOptions struct {
	Banks []string `json:"banks"`
	Types []string `json:"types"`
}

// Filters returns the available filter options.
func (s *ProductService) Filters() (*FilterOptions, error) {
	banks, err := s.products.GetDistinctBanks()
	if err != nil {
		return nil, err
	}
	types, err := s.products.GetDistinctTypes()
	if err != nil {
		return nil, err
	}
	if banks == nil {
		banks = []string{}
	}
	if types == nil {
		types = []string{}
	}
	return &FilterOptions{Banks: banks, Types: types}, nil
}
