package order

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/payment"
)

type cartViewer interface {
	View(ctx context.Context, sessionID string) (*cartsvc.Projection, error)
}

type paymentForms interface {
	Form(o domain.Order) payment.Form
}

type Service struct {
	orders   orderrepo.Repository
	carts    cartrepo.Repository
	cart     cartViewer
	payments paymentForms
	logger   logrus.FieldLogger
}

func New(orders orderrepo.Repository, carts cartrepo.Repository, cart *cartsvc.Service, payments *payment.Initiator, logger logrus.FieldLogger) *Service {
	return &Service{
		orders:   orders,
		carts:    carts,
		cart:     cart,
		payments: payments,
		logger:   logging.OrDiscard(logger),
	}
}

// CheckoutInput is the delivery and payment choice submitted with an order.
type CheckoutInput struct {
	Contact       domain.ShippingContact
	PaymentMethod domain.PaymentMethod
}

func (in CheckoutInput) Validate() error {
	c := in.Contact
	required := map[string]string{
		"firstName":  c.FirstName,
		"lastName":   c.LastName,
		"email":      c.Email,
		"address":    c.Address,
		"postalCode": c.PostalCode,
		"city":       c.City,
	}
	var missing []string
	for _, field := range []string{"firstName", "lastName", "email", "address", "postalCode", "city"} {
		if strings.TrimSpace(required[field]) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("%w: email %q", domain.ErrInvalidInput, c.Email)
	}
	if !in.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment method %q", domain.ErrInvalidInput, in.PaymentMethod)
	}
	return nil
}

// Checkout is the result of finalizing a cart. Payment is set for online orders.
type Checkout struct {
	Order   *domain.Order `json:"order"`
	Payment *payment.Form `json:"payment,omitempty"`
}

// Checkout turns the session cart into an order for customerID. The order, its
// items and the cart deletion commit together; on failure the cart is left as it was.
// Stock is not re-checked here, only when the cart is displayed.
func (s *Service) Checkout(ctx context.Context, sessionID, customerID string, in CheckoutInput) (*Checkout, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	proj, err := s.cart.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items := make([]domain.OrderItem, 0, proj.TotalItems())
	for item := range proj.Items() {
		items = append(items, domain.OrderItem{
			ProductID: item.Product.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	snapshot := proj.Cart().Clone()
	cartDeleted := false
	created, err := s.orders.Create(ctx, domain.Order{
		CustomerID:    customerID,
		Contact:       in.Contact,
		PaymentMethod: in.PaymentMethod,
		Items:         items,
	}, func(ctx context.Context) error {
		if err := s.carts.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		cartDeleted = true
		return nil
	})
	if err != nil {
		if cartDeleted {
			s.restoreCart(ctx, snapshot)
		}
		s.logger.WithError(err).WithFields(logrus.Fields{"session": sessionID, "customer_id": customerID}).Warn("order: checkout failed")
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues(string(created.PaymentMethod)).Inc()
	s.logger.WithFields(logrus.Fields{
		"order_id":       created.ID,
		"customer_id":    customerID,
		"payment_method": created.PaymentMethod,
		"items":          len(created.Items),
	}).Info("order: created")

	out := &Checkout{Order: created}
	if created.PaymentMethod == domain.PaymentOnline {
		form := s.payments.Form(*created)
		out.Payment = &form
	}
	return out, nil
}

// restoreCart puts the cart back when the order commit failed after the
// pre-commit hook had already deleted it.
func (s *Service) restoreCart(ctx context.Context, snapshot *domain.Cart) {
	if err := s.carts.Save(context.WithoutCancel(ctx), snapshot); err != nil {
		s.logger.WithError(err).WithField("session", snapshot.SessionID).Error("order: restore cart after failed checkout")
	}
}

func (s *Service) Get(ctx context.Context, id, customerID string) (*domain.Order, error) {
	return s.orders.GetForCustomer(ctx, id, customerID)
}

func (s *Service) List(ctx context.Context, customerID string) ([]domain.Order, error) {
	orders, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// PaymentForm returns the PayPal form for an order the customer owns.
func (s *Service) PaymentForm(ctx context.Context, id, customerID string) (*payment.Form, error) {
	o, err := s.orders.GetForCustomer(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != domain.PaymentOnline {
		return nil, fmt.Errorf("%w: order %s is not paid online", domain.ErrInvalidInput, id)
	}
	form := s.payments.Form(*o)
	return &form, nil
}

// CashOnDeliveryOrder returns a cash-on-delivery order for its confirmation
// page. It does not write anything: the order stays unpaid and pending until
// the courier collects.
func (s *Service) CashOnDeliveryOrder(ctx context.Context, id, customerID string) (*domain.Order, error) {
	o, err := s.orders.GetForCustomer(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != domain.PaymentCashOnDelivery {
		return nil, fmt.Errorf("%w: order %s is not cash on delivery", domain.ErrInvalidInput, id)
	}
	if o.PaymentStatus != domain.PaymentPending {
		return nil, fmt.Errorf("%w: order %s payment is %s", domain.ErrInvalidInput, id, o.PaymentStatus)
	}
	return o, nil
}
