package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	"storefront/internal/service/payment"
)

func logDiscard() *logrus.Logger {
	return logging.Discard()
}

type stubProductService struct {
	products []domain.Product
	err      error
	query    string
}

func (s *stubProductService) List(context.Context, string) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubProductService) Search(_ context.Context, q string) ([]domain.Product, error) {
	s.query = q
	return s.products, s.err
}

type stubCategoryService struct {
	categories []domain.Category
}

func (s *stubCategoryService) List(context.Context) ([]domain.Category, error) {
	return s.categories, nil
}

type stubCartService struct {
	cart     *domain.Cart
	product  *domain.Product
	err      error
	sessions []string
	proj     *cartsvc.Projection
	notices  []cartsvc.Notice
	quantity int
	override bool
	evicted  []string
}

func (s *stubCartService) seen(session string) {
	s.sessions = append(s.sessions, session)
}

func (s *stubCartService) Get(_ context.Context, session string) (*domain.Cart, error) {
	s.seen(session)
	if s.cart == nil {
		return domain.NewCart(session), s.err
	}
	return s.cart, s.err
}

func (s *stubCartService) Add(_ context.Context, session, _ string, quantity int, override bool) (*domain.Cart, *domain.Product, error) {
	s.seen(session)
	s.quantity = quantity
	s.override = override
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.cart, s.product, nil
}

func (s *stubCartService) Update(_ context.Context, session, _ string, quantity int) (*domain.Cart, *domain.Product, error) {
	s.seen(session)
	s.quantity = quantity
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.cart, s.product, nil
}

func (s *stubCartService) Remove(_ context.Context, session, _ string) (bool, error) {
	s.seen(session)
	return s.err == nil, s.err
}

func (s *stubCartService) Clear(_ context.Context, session string) error {
	s.seen(session)
	return s.err
}

func (s *stubCartService) CleanUnavailable(_ context.Context, session string) ([]string, error) {
	s.seen(session)
	return s.evicted, s.err
}

func (s *stubCartService) Reconcile(_ context.Context, session string) (*cartsvc.Projection, []cartsvc.Notice, error) {
	s.seen(session)
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.proj, s.notices, nil
}

type stubOrderService struct {
	order    *domain.Order
	form     *payment.Form
	err      error
	input    ordersvc.CheckoutInput
	customer string
}

func (s *stubOrderService) Checkout(_ context.Context, _ string, customerID string, in ordersvc.CheckoutInput) (*ordersvc.Checkout, error) {
	s.input = in
	s.customer = customerID
	if s.err != nil {
		return nil, s.err
	}
	return &ordersvc.Checkout{Order: s.order, Payment: s.form}, nil
}

func (s *stubOrderService) Get(_ context.Context, _ string, customerID string) (*domain.Order, error) {
	s.customer = customerID
	return s.order, s.err
}

func (s *stubOrderService) List(_ context.Context, customerID string) ([]domain.Order, error) {
	s.customer = customerID
	if s.order == nil {
		return []domain.Order{}, s.err
	}
	return []domain.Order{*s.order}, s.err
}

func (s *stubOrderService) PaymentForm(context.Context, string, string) (*payment.Form, error) {
	return s.form, s.err
}

func (s *stubOrderService) CashOnDeliveryOrder(context.Context, string, string) (*domain.Order, error) {
	return s.order, s.err
}

type stubPaymentService struct {
	raw []byte
}

func (s *stubPaymentService) HandleIPN(_ context.Context, raw []byte) payment.Outcome {
	s.raw = raw
	return payment.OutcomeUnknownOrder
}

type stubCustomerAuthSvc struct {
	customer  *domain.Customer
	loginErr  error
	signErr   error
	meErr     error
	loggedOut string
}

func (s *stubCustomerAuthSvc) Signup(context.Context, customersvc.SignupInput) (*domain.Customer, error) {
	return s.customer, s.signErr
}

func (s *stubCustomerAuthSvc) Login(context.Context, string, string) (*domain.Customer, string, error) {
	return s.customer, "access", s.loginErr
}

func (s *stubCustomerAuthSvc) Logout(_ context.Context, token string) error {
	s.loggedOut = token
	return nil
}

func (s *stubCustomerAuthSvc) LookupByToken(context.Context, string) (*domain.Customer, error) {
	if s.customer == nil && s.meErr == nil {
		return nil, customersvc.ErrInvalidToken
	}
	return s.customer, s.meErr
}

func (s *stubCustomerAuthSvc) AccessTTLSeconds() int {
	return 3600
}

func testDeps() Deps {
	return Deps{
		ProductSvc:  &stubProductService{},
		CategorySvc: &stubCategoryService{},
		CartSvc:     &stubCartService{},
		OrderSvc:    &stubOrderService{},
		PaymentSvc:  &stubPaymentService{},
		CustomerSvc: &stubCustomerAuthSvc{},
	}
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func doRequest(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
