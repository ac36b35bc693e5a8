package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

func TestProductResponse_Discount(t *testing.T) {
	original := decimal.RequireFromString("80")
	resp := toProductResponse(domain.Product{
		ID:            "p1",
		Price:         decimal.RequireFromString("60"),
		OriginalPrice: &original,
		Available:     true,
		StockQuantity: 3,
	})
	if resp.Price != "60.00" || resp.OriginalPrice == nil || *resp.OriginalPrice != "80.00" {
		t.Fatalf("unexpected prices %+v", resp)
	}
	if resp.DiscountPercentage != 25 || !resp.InStock {
		t.Fatalf("unexpected discount/stock %+v", resp)
	}

	plain := toProductResponse(domain.Product{ID: "p2", Price: decimal.RequireFromString("10")})
	if plain.OriginalPrice != nil || plain.DiscountPercentage != 0 || plain.InStock {
		t.Fatalf("unexpected plain product %+v", plain)
	}
}

func TestSearchHandler_PassesQuery(t *testing.T) {
	deps := testDeps()
	products := &stubProductService{products: []domain.Product{{ID: "p1", Name: "Ambre", Price: decimal.RequireFromString("25")}}}
	deps.ProductSvc = products
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodGet, "/products/search?q=amb", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if products.query != "amb" {
		t.Fatalf("expected query amb, got %q", products.query)
	}
	var body struct {
		Count   int               `json:"count"`
		Results []productResponse `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.Results[0].Price != "25.00" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	router := newTestRouter(t, testDeps())
	if rec := doRequest(router, http.MethodGet, "/products/missing", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCategoryProducts_UnknownCategory(t *testing.T) {
	deps := testDeps()
	deps.ProductSvc = &stubProductService{err: domain.ErrNotFound}
	router := newTestRouter(t, deps)
	if rec := doRequest(router, http.MethodGet, "/categories/nope/products", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
