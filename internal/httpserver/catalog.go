package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type productResponse struct {
	ID                 string  `json:"id"`
	CategoryID         string  `json:"categoryId,omitempty"`
	Name               string  `json:"name"`
	Slug               string  `json:"slug"`
	Description        string  `json:"description,omitempty"`
	Image              string  `json:"image,omitempty"`
	Price              string  `json:"price"`
	OriginalPrice      *string `json:"originalPrice,omitempty"`
	DiscountPercentage int     `json:"discountPercentage,omitempty"`
	Available          bool    `json:"available"`
	InStock            bool    `json:"inStock"`
	StockQuantity      int     `json:"stockQuantity"`
}

func toProductResponse(p domain.Product) productResponse {
	out := productResponse{
		ID:            p.ID,
		CategoryID:    p.CategoryID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		Image:         p.Image,
		Price:         p.Price.StringFixed(2),
		Available:     p.Available,
		InStock:       p.IsInStock(),
		StockQuantity: p.StockQuantity,
	}
	if p.HasDiscount() {
		original := p.OriginalPrice.StringFixed(2)
		out.OriginalPrice = &original
		out.DiscountPercentage = p.DiscountPercentage()
	}
	return out
}

func toProductList(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": categories, "count": len(categories)})
}

func (h *handlers) listCategoryProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.List(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": toProductList(products), "count": len(products)})
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": toProductList(products), "count": len(products)})
}

func (h *handlers) searchProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": toProductList(products), "count": len(products)})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}
