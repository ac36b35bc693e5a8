package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPaypalIPN_AlwaysAcknowledges(t *testing.T) {
	deps := testDeps()
	payments := &stubPaymentService{}
	deps.PaymentSvc = payments
	router := newTestRouter(t, deps)

	body := "invoice=missing&payment_status=Completed&mc_gross=49.99"
	req := httptest.NewRequest(http.MethodPost, "/paypal/ipn", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if string(payments.raw) != body {
		t.Fatalf("expected raw body forwarded, got %q", payments.raw)
	}
}
