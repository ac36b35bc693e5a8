package payment

import (
	"fmt"

	"storefront/internal/config"
	"storefront/internal/domain"
)

// Form is what a client needs to post the shopper to PayPal Standard checkout.
type Form struct {
	Action      string            `json:"action,omitempty"`
	AlreadyPaid bool              `json:"alreadyPaid"`
	Test        bool              `json:"test"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// Initiator builds PayPal checkout forms for online orders.
type Initiator struct {
	cfg     config.PayPalConfig
	baseURL string
}

func NewInitiator(cfg config.PayPalConfig, publicBaseURL string) *Initiator {
	return &Initiator{cfg: cfg, baseURL: publicBaseURL}
}

// NotifyURL is the callback registered with PayPal for IPN messages.
func (i *Initiator) NotifyURL() string {
	return i.baseURL + "/paypal/ipn"
}

// Form returns the checkout form for o, or an AlreadyPaid marker.
func (i *Initiator) Form(o domain.Order) Form {
	if o.Paid {
		return Form{AlreadyPaid: true, Test: i.cfg.Test}
	}
	total, _ := o.TotalCost().Float64()
	return Form{
		Action: i.cfg.PaymentHost() + "/cgi-bin/webscr",
		Test:   i.cfg.Test,
		Fields: map[string]string{
			"cmd":           "_xclick",
			"business":      i.cfg.ReceiverEmail,
			"amount":        fmt.Sprintf("%.2f", total),
			"item_name":     "Order #" + o.ID,
			"invoice":       o.ID,
			"custom":        o.ID,
			"currency_code": i.cfg.Currency,
			"notify_url":    i.NotifyURL(),
			"return_url":    i.baseURL + "/payment/done",
			"cancel_return": i.baseURL + "/payment/cancelled",
			"no_note":       "1",
			"no_shipping":   "1",
			"rm":            "2",
			"charset":       "utf-8",
		},
	}
}
