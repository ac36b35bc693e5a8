package httpserver

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxIPNBody = 64 << 10

// paypalIPN always acknowledges with 200 so PayPal stops retrying; the
// outcome is logged and counted by the payment service.
func (h *handlers) paypalIPN(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIPNBody))
	if err != nil {
		h.logger.WithError(err).Warn("paypal ipn: read body failed")
		c.Status(http.StatusOK)
		return
	}
	outcome := h.deps.PaymentSvc.HandleIPN(c.Request.Context(), raw)
	h.logger.WithField("outcome", outcome).Debug("paypal ipn handled")
	c.Status(http.StatusOK)
}

func (h *handlers) paymentDone(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "done", "message": "Thank you, your payment was received."})
}

func (h *handlers) paymentCancelled(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "message": "Your payment was cancelled."})
}
