package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentOnline         PaymentMethod = "online"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentCashOnDelivery
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// ShippingContact is the delivery information captured at checkout.
type ShippingContact struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Phone      string `json:"phone,omitempty"`
}

// Order is a persisted purchase. Only the payment fields and UpdatedAt change
// after creation; Paid implies PaymentStatus == PaymentCompleted.
type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customerId"`
	Contact         ShippingContact `json:"contact"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Paid            bool            `json:"paid"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaypalPaymentID string          `json:"paypalPaymentId,omitempty"`
	PaypalPayerID   string          `json:"paypalPayerId,omitempty"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem freezes a cart line at checkout time.
type OrderItem struct {
	ID        string          `json:"id,omitempty"`
	OrderID   string          `json:"orderId,omitempty"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i OrderItem) Validate() error {
	if i.ProductID == "" {
		return fmt.Errorf("order item: product required: %w", ErrInvalidProduct)
	}
	if i.Quantity <= 0 || i.Quantity > MaxLineQuantity {
		return fmt.Errorf("order item %s: quantity %d: %w", i.ProductID, i.Quantity, ErrInvalidQuantity)
	}
	if i.Price.IsNegative() {
		return fmt.Errorf("order item %s: negative price", i.ProductID)
	}
	return nil
}

// TotalCost sums the captured item costs.
func (o Order) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Cost())
	}
	return total
}

// CheckPaymentInvariant reports an error when Paid and PaymentStatus disagree.
func (o Order) CheckPaymentInvariant() error {
	if o.Paid && o.PaymentStatus != PaymentCompleted {
		return fmt.Errorf("order %s: paid with status %q", o.ID, o.PaymentStatus)
	}
	return nil
}
