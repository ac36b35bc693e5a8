package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

type addCartItemRequest struct {
	Quantity int  `json:"quantity"`
	Override bool `json:"override"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type cartResponse struct {
	cartsvc.Snapshot
	Notices []cartsvc.Notice `json:"notices"`
}

type cartMutationResponse struct {
	Message       string `json:"message"`
	CartTotal     string `json:"cart_total"`
	CartItems     int    `json:"cart_items"`
	TotalQuantity int    `json:"total_quantity"`
	Quantity      int    `json:"quantity"`
}

func mutationResponse(msg string, cart *domain.Cart, productID string) cartMutationResponse {
	return cartMutationResponse{
		Message:       msg,
		CartTotal:     cart.TotalPrice().StringFixed(2),
		CartItems:     cart.TotalItems(),
		TotalQuantity: cart.Len(),
		Quantity:      cart.Quantity(productID),
	}
}

// getCart reconciles the cart with inventory and returns it with any notices.
func (h *handlers) getCart(c *gin.Context) {
	proj, notices, err := h.deps.CartSvc.Reconcile(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if notices == nil {
		notices = []cartsvc.Notice{}
	}
	c.JSON(http.StatusOK, cartResponse{Snapshot: proj.Snapshot(), Notices: notices})
}

func (h *handlers) cartSummary(c *gin.Context) {
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_quantity": cart.Len(),
		"total_items":    cart.TotalItems(),
		"total_price":    cart.TotalPrice().StringFixed(2),
		"is_empty":       cart.IsEmpty(),
	})
}

func (h *handlers) addCartItem(c *gin.Context) {
	req := addCartItemRequest{Quantity: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortError(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	cart, product, err := h.deps.CartSvc.Add(c.Request.Context(), sessionID(c), c.Param("id"), req.Quantity, req.Override)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, mutationResponse(fmt.Sprintf("%q was added to your cart.", product.Name), cart, product.ID))
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "quantity is required")
		return
	}
	cart, product, err := h.deps.CartSvc.Update(c.Request.Context(), sessionID(c), c.Param("id"), *req.Quantity)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	msg := fmt.Sprintf("Quantity of %q updated.", product.Name)
	if *req.Quantity <= 0 {
		msg = fmt.Sprintf("%q was removed from your cart.", product.Name)
	}
	c.JSON(http.StatusOK, mutationResponse(msg, cart, product.ID))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	removed, err := h.deps.CartSvc.Remove(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// cleanCart evicts lines that are no longer listed and names them.
func (h *handlers) cleanCart(c *gin.Context) {
	removed, err := h.deps.CartSvc.CleanUnavailable(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.deps.CartSvc.Clear(c.Request.Context(), sessionID(c)); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
