package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"
)

type checkoutRequest struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	PostalCode    string `json:"postalCode"`
	City          string `json:"city"`
	Phone         string `json:"phone"`
	PaymentMethod string `json:"paymentMethod"`
}

type orderResponse struct {
	domain.Order
	TotalCost string `json:"totalCost"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{Order: o, TotalCost: o.TotalCost().StringFixed(2)}
}

// checkout finalizes the session cart. Contact fields left empty fall back
// to the customer's profile.
func (h *handlers) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	customer := currentCustomer(c)
	in := ordersvc.CheckoutInput{
		Contact: domain.ShippingContact{
			FirstName:  firstNonEmpty(req.FirstName, customer.FirstName),
			LastName:   firstNonEmpty(req.LastName, customer.LastName),
			Email:      firstNonEmpty(req.Email, customer.Email),
			Address:    firstNonEmpty(req.Address, customer.Address),
			PostalCode: firstNonEmpty(req.PostalCode, customer.PostalCode),
			City:       firstNonEmpty(req.City, customer.City),
			Phone:      firstNonEmpty(req.Phone, customer.Phone),
		},
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	}
	res, err := h.deps.OrderSvc.Checkout(c.Request.Context(), sessionID(c), customer.ID, in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": toOrderResponse(*res.Order), "payment": res.Payment})
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.List(c.Request.Context(), currentCustomer(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"results": out, "count": len(out)})
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"), currentCustomer(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}

func (h *handlers) orderPayment(c *gin.Context) {
	form, err := h.deps.OrderSvc.PaymentForm(c.Request.Context(), c.Param("id"), currentCustomer(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

func (h *handlers) cashOnDelivery(c *gin.Context) {
	o, err := h.deps.OrderSvc.CashOnDeliveryOrder(c.Request.Context(), c.Param("id"), currentCustomer(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
