package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/loanhub/loanhub-api/internal/repository"
	"github.com/loanhub/loanhub-api/internal/service"
	"github.com/loanhub/loanhub-api/internal/utils"
)

// ProductHandler handles catalog and recommendation endpoints.
type ProductHandler struct {
	productService        *service.ProductService
	recommendationService *service.RecommendationService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(productService *service.ProductService, recommendationService *service.RecommendationService) *ProductHandler {
	return &ProductHandler{
		productService:        productService,
		recommendationService: recommendationService,
	}
}

// GetProducts returns the catalog filtered by bank, type, max_apr and
// min_credit_score, ordered by name. Non-numeric values for the numeric
// filters are ignored rather than rejected.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	filter := repository.ProductFilter{
		Bank: c.Query("bank"),
		Type: c.Query("type"),
	}
	if v := c.Query("max_apr"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxAPR = &n
		}
	}
	if v := c.Query("min_credit_score"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MinCreditScore = &n
		}
	}

	products, err := h.productService.List(filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		utils.Error(c, 500, "Failed to get products")
		return
	}

	c.JSON(200, products)
}

// GetProduct returns a single product by ID.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "Product not found")
			return
		}
		log.Error().Err(err).Str("product_id", c.Param("id")).Msg("failed to get product")
		utils.Error(c, 500, "Failed to get product")
		return
	}

	c.JSON(200, product)
}

// GetFilters returns the distinct banks and loan types for the filter panel.
func (h *ProductHandler) GetFilters(c *gin.Context) {
	options, err := h.productService.Filters()
	if err != nil {
		log.Error().Err(err).Msg("failed to load filter options")
		utils.Error(c, 500, "Failed to get filters")
		return
	}

	c.JSON(200, options)
}

// Recommend returns the best-match product IDs for a user profile. The
// ranking never hard-fails on a model error; only an empty catalog does.
func (h *ProductHandler) Recommend(c *gin.Context) {
	var req struct {
		Income     string `json:"income" binding:"required"`
		Occupation string `json:"occupation" binding:"required"`
		Purpose    string `json:"purpose" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "Invalid request")
		return
	}

	profile := service.UserProfile{
		Income:     req.Income,
		Occupation: req.Occupation,
		Purpose:    req.Purpose,
	}
	productIDs, err := h.recommendationService.Recommend(c.Request.Context(), profile)
	if err != nil {
		if errors.Is(err, utils.ErrEmptyCatalog) {
			utils.Error(c, 404, "No products found")
			return
		}
		log.Error().Err(err).Msg("recommendation failed")
		utils.Error(c, 500, "Failed to get AI recommendations")
		return
	}

	c.JSON(200, gin.H{
		"productIds":  productIDs,
		"userProfile": profile,
	})
}
