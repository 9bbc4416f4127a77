package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/loanhub/loanhub-api/internal/models"
	"github.com/loanhub/loanhub-api/internal/service"
)

func productRouter(store *fakeProductStore, llm *fakeLLM) *gin.Engine {
	router := gin.New()
	h := NewProductHandler(service.NewProductService(store), service.NewRecommendationService(store, llm))
	products := router.Group("/api/products")
	products.GET("", h.GetProducts)
	products.GET("/filters", h.GetFilters)
	products.POST("/recommend", h.Recommend)
	products.GET("/:id", h.GetProduct)
	return router
}

func testCatalog() []models.Product {
	apr1, apr2 := 9.5, 14.0
	return []models.Product{
		{ID: "p1", Name: "Alpha Loan", RateAPR: &apr1},
		{ID: "p2", Name: "Beta Loan", RateAPR: &apr2},
	}
}

func TestGetProducts_ReturnsCatalogArray(t *testing.T) {
	store := &fakeProductStore{products: testCatalog()}
	router := productRouter(store, &fakeLLM{})

	w, _ := doJSON(t, router, http.MethodGet, "/api/products", nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var products []models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &products); err != nil {
		t.Fatalf("expected a JSON array, got %q: %v", w.Body.String(), err)
	}
	if len(products) != 2 {
		t.Errorf("expected 2 products, got %d", len(products))
	}
}

func TestGetProducts_NonNumericFiltersIgnored(t *testing.T) {
	store := &fakeProductStore{products: testCatalog()}
	router := productRouter(store, &fakeLLM{})

	w, _ := doJSON(t, router, http.MethodGet, "/api/products?max_apr=abc&min_credit_score=low&bank=Acme", nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if store.lastFilter.MaxAPR != nil {
		t.Errorf("non-numeric max_apr must be ignored, got %v", *store.lastFilter.MaxAPR)
	}
	if store.lastFilter.MinCreditScore != nil {
		t.Errorf("non-numeric min_credit_score must be ignored, got %v", *store.lastFilter.MinCreditScore)
	}
	if store.lastFilter.Bank != "Acme" {
		t.Errorf("bank filter lost: %+v", store.lastFilter)
	}
}

func TestGetProducts_NumericFiltersForwarded(t *testing.T) {
	store := &fakeProductStore{products: testCatalog()}
	router := productRouter(store, &fakeLLM{})

	w, _ := doJSON(t, router, http.MethodGet, "/api/products?max_apr=12.5&min_credit_score=680", nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if store.lastFilter.MaxAPR == nil || *store.lastFilter.MaxAPR != 12.5 {
		t.Errorf("max_apr not forwarded: %+v", store.lastFilter)
	}
	if store.lastFilter.MinCreditScore == nil || *store.lastFilter.MinCreditScore != 680 {
		t.Errorf("min_credit_score not forwarded: %+v", store.lastFilter)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	router := productRouter(&fakeProductStore{}, &fakeLLM{})

	w, body := doJSON(t, router, http.MethodGet, "/api/products/missing", nil)
	if w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if body["error"] != "Product not found" {
		t.Errorf("unexpected message: %v", body["error"])
	}
}

func TestGetFilters(t *testing.T) {
	router := productRouter(&fakeProductStore{}, &fakeLLM{})

	w, body := doJSON(t, router, http.MethodGet, "/api/products/filters", nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, ok := body["banks"]; !ok {
		t.Errorf("expected banks in response, got %v", body)
	}
	if _, ok := body["types"]; !ok {
		t.Errorf("expected types in response, got %v", body)
	}
}

func TestRecommend_ModelFailureStillReturnsRanking(t *testing.T) {
	store := &fakeProductStore{products: testCatalog()}
	llm := &fakeLLM{err: errors.New("model down")}
	router := productRouter(store, llm)

	w, body := doJSON(t, router, http.MethodPost, "/api/products/recommend", map[string]any{
		"income":     "40000",
		"occupation": "teacher",
		"purpose":    "car",
	})
	if w.Code != 200 {
		t.Fatalf("expected 200 fallback, got %d: %s", w.Code, w.Body.String())
	}

	ids, ok := body["productIds"].([]any)
	if !ok {
		t.Fatalf("expected productIds array, got %v", body)
	}
	if len(ids) != 2 || ids[0] != "p1" || ids[1] != "p2" {
		t.Errorf("expected APR-ranked fallback [p1 p2], got %v", ids)
	}
	if _, ok := body["userProfile"]; !ok {
		t.Errorf("expected userProfile echoed back, got %v", body)
	}
}

func TestRecommend_EmptyCatalog(t *testing.T) {
	router := productRouter(&fakeProductStore{}, &fakeLLM{reply: `["p1"]`})

	w, body := doJSON(t, router, http.MethodPost, "/api/products/recommend", map[string]any{
		"income":     "40000",
		"occupation": "teacher",
		"purpose":    "car",
	})
	if w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if body["error"] != "No products found" {
		t.Errorf("unexpected message: %v", body["error"])
	}
}

func TestRecommend_MissingProfileFields(t *testing.T) {
	router := productRouter(&fakeProductStore{products: testCatalog()}, &fakeLLM{})

	w, body := doJSON(t, router, http.MethodPost, "/api/products/recommend", map[string]any{
		"income": "40000",
	})
	if w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body["error"] != "Invalid request" {
		t.Errorf("unexpected message: %v", body["error"])
	}
}
