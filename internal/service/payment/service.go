package payment

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	orderrepo "storefront/internal/repository/order"
)

// Outcome labels what a notification did to its order.
type Outcome string

const (
	OutcomeCompleted      Outcome = "completed"
	OutcomeFailed         Outcome = "failed"
	OutcomeCancelled      Outcome = "cancelled"
	OutcomeReplayed       Outcome = "replayed"
	OutcomeTerminal       Outcome = "terminal"
	OutcomeIgnoredStatus  Outcome = "ignored_status"
	OutcomeUnknownOrder   Outcome = "unknown_order"
	OutcomeAmountMismatch Outcome = "amount_mismatch"
	OutcomeUnverified     Outcome = "unverified"
	OutcomeWrongReceiver  Outcome = "wrong_receiver"
	OutcomeMalformed      Outcome = "malformed"
	OutcomeError          Outcome = "error"
)

// Service reconciles order payment state with PayPal notifications.
type Service struct {
	orders        orderrepo.Repository
	verifier      Verifier
	receiverEmail string
	logger        logrus.FieldLogger
}

func New(orders orderrepo.Repository, verifier Verifier, receiverEmail string, logger logrus.FieldLogger) *Service {
	return &Service{
		orders:        orders,
		verifier:      verifier,
		receiverEmail: receiverEmail,
		logger:        logging.OrDiscard(logger),
	}
}

// HandleIPN verifies a raw IPN body and applies it. PayPal only needs an
// acknowledgement, so every outcome is reported rather than returned as an error.
func (s *Service) HandleIPN(ctx context.Context, raw []byte) Outcome {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		s.logger.WithError(err).Warn("payment: malformed ipn body")
		return s.count(OutcomeMalformed)
	}

	if err := s.verifier.Verify(ctx, raw); err != nil {
		s.logger.WithError(err).WithField("invoice", values.Get("invoice")).Warn("payment: ipn verification failed")
		return s.count(OutcomeUnverified)
	}

	n := ParseNotification(values)
	if s.receiverEmail == "" || !strings.EqualFold(n.ReceiverEmail, s.receiverEmail) {
		s.logger.WithFields(logrus.Fields{
			"invoice":  n.Invoice,
			"receiver": n.ReceiverEmail,
		}).Warn("payment: ipn for another receiver")
		return s.count(OutcomeWrongReceiver)
	}

	outcome, err := s.Apply(ctx, n)
	if err != nil {
		s.logger.WithError(err).WithField("invoice", n.Invoice).Error("payment: apply notification failed")
	}
	return outcome
}

// Apply runs the payment state machine for one notification under the order's
// row lock. Only storage failures are returned as errors; unknown orders and
// amount mismatches are logged, counted and otherwise ignored.
func (s *Service) Apply(ctx context.Context, n Notification) (Outcome, error) {
	outcome := OutcomeIgnoredStatus
	log := s.logger.WithFields(logrus.Fields{
		"invoice":        n.Invoice,
		"payment_status": n.PaymentStatus,
		"txn_id":         n.TxnID,
	})

	_, err := s.orders.UpdatePayment(ctx, n.Invoice, func(o *domain.Order) (bool, error) {
		var changed bool
		outcome, changed = transition(o, n)
		return changed, nil
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Warn("payment: notification for unknown order")
		return s.count(OutcomeUnknownOrder), nil
	case err != nil:
		s.count(OutcomeError)
		return OutcomeError, err
	}

	switch outcome {
	case OutcomeAmountMismatch:
		log.WithField("mc_gross", n.Gross).Warn("payment: amount does not match order total")
	case OutcomeTerminal:
		log.Warn("payment: notification for order in another terminal state ignored")
	case OutcomeCompleted, OutcomeFailed, OutcomeCancelled:
		log.Info("payment: order payment updated")
	default:
		log.Debug("payment: notification left order unchanged")
	}
	return s.count(outcome), nil
}

func (s *Service) count(o Outcome) Outcome {
	metrics.IPNNotifications.WithLabelValues(string(o)).Inc()
	return o
}

// transition mutates o for n and reports the outcome and whether o changed.
// Orders only leave pending; a replay of the state an order is already in
// re-applies the same values.
func transition(o *domain.Order, n Notification) (Outcome, bool) {
	switch n.PaymentStatus {
	case StatusCompleted:
		amount, ok := n.Amount()
		total, _ := o.TotalCost().Float64()
		if !ok || amount != total {
			return OutcomeAmountMismatch, false
		}
		switch o.PaymentStatus {
		case domain.PaymentPending:
			markCompleted(o, n)
			return OutcomeCompleted, true
		case domain.PaymentCompleted:
			changed := o.PaypalPaymentID != n.TxnID || o.PaypalPayerID != n.PayerID || !o.Paid
			markCompleted(o, n)
			return OutcomeReplayed, changed
		default:
			return OutcomeTerminal, false
		}
	case StatusDenied, StatusExpired, StatusFailed:
		return settle(o, domain.PaymentFailed, OutcomeFailed)
	case StatusCanceledReversal:
		return settle(o, domain.PaymentCancelled, OutcomeCancelled)
	default:
		return OutcomeIgnoredStatus, false
	}
}

func markCompleted(o *domain.Order, n Notification) {
	o.Paid = true
	o.PaymentStatus = domain.PaymentCompleted
	o.PaypalPaymentID = n.TxnID
	o.PaypalPayerID = n.PayerID
}

func settle(o *domain.Order, target domain.PaymentStatus, outcome Outcome) (Outcome, bool) {
	switch o.PaymentStatus {
	case target:
		return OutcomeReplayed, false
	case domain.PaymentPending:
		o.PaymentStatus = target
		return outcome, true
	default:
		return OutcomeTerminal, false
	}
}
