package payment

import (
	"net/url"
	"strconv"
)

// Provider payment_status values that drive order transitions.
const (
	StatusCompleted        = "Completed"
	StatusDenied           = "Denied"
	StatusExpired          = "Expired"
	StatusFailed           = "Failed"
	StatusCanceledReversal = "Canceled_Reversal"
)

// Notification is the subset of an IPN message the reconciler reads.
type Notification struct {
	Invoice       string
	PaymentStatus string
	Gross         string
	TxnID         string
	PayerID       string
	ReceiverEmail string
}

func ParseNotification(values url.Values) Notification {
	return Notification{
		Invoice:       values.Get("invoice"),
		PaymentStatus: values.Get("payment_status"),
		Gross:         values.Get("mc_gross"),
		TxnID:         values.Get("txn_id"),
		PayerID:       values.Get("payer_id"),
		ReceiverEmail: values.Get("receiver_email"),
	}
}

// Amount parses mc_gross as a float, matching how PayPal reports it.
func (n Notification) Amount() (float64, bool) {
	v, err := strconv.ParseFloat(n.Gross, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
