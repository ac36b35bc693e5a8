package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/metrics"
)

// ErrNotVerified is returned when PayPal does not confirm an IPN message.
var ErrNotVerified = errors.New("ipn message not verified")

// Verifier confirms that a raw IPN body really came from PayPal.
type Verifier interface {
	Verify(ctx context.Context, raw []byte) error
}

const breakerName = "paypal-ipn"

// PostbackVerifier echoes IPN messages to PayPal with cmd=_notify-validate.
type PostbackVerifier struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	url     string
	logger  logrus.FieldLogger
}

func NewPostbackVerifier(cfg config.PayPalConfig, logger logrus.FieldLogger) *PostbackVerifier {
	return newPostbackVerifier(cfg.PostbackURL(), cfg.Timeout, logger)
}

func newPostbackVerifier(url string, timeout time.Duration, logger logrus.FieldLogger) *PostbackVerifier {
	logger = logging.OrDiscard(logger)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			logger.WithFields(logrus.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("payment: circuit breaker state changed")
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &PostbackVerifier{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0),
		breaker: breaker,
		url:     url,
		logger:  logger,
	}
}

func (v *PostbackVerifier) Verify(ctx context.Context, raw []byte) error {
	body := make([]byte, 0, len(raw)+len("cmd=_notify-validate&"))
	body = append(body, "cmd=_notify-validate&"...)
	body = append(body, raw...)

	out, err := v.breaker.Execute(func() (interface{}, error) {
		resp, err := v.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetHeader("User-Agent", "storefront-ipn-verifier").
			SetBody(body).
			Post(v.url)
		if err != nil {
			return nil, fmt.Errorf("HTTP error: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("paypal postback returned status %d", resp.StatusCode())
		}
		return strings.TrimSpace(resp.String()), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("circuit breaker %s: %w", breakerName, err)
		}
		return err
	}

	switch answer := out.(string); answer {
	case "VERIFIED":
		return nil
	case "INVALID":
		return ErrNotVerified
	default:
		return fmt.Errorf("unexpected postback answer %q: %w", answer, ErrNotVerified)
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
