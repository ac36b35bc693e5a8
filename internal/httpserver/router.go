package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	"storefront/internal/service/payment"
)

type ProductService interface {
	List(ctx context.Context, categorySlug string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type CartService interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Add(ctx context.Context, sessionID, productID string, quantity int, override bool) (*domain.Cart, *domain.Product, error)
	Update(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, *domain.Product, error)
	Remove(ctx context.Context, sessionID, productID string) (bool, error)
	Clear(ctx context.Context, sessionID string) error
	CleanUnavailable(ctx context.Context, sessionID string) ([]string, error)
	Reconcile(ctx context.Context, sessionID string) (*cartsvc.Projection, []cartsvc.Notice, error)
}

type OrderService interface {
	Checkout(ctx context.Context, sessionID, customerID string, in ordersvc.CheckoutInput) (*ordersvc.Checkout, error)
	Get(ctx context.Context, id, customerID string) (*domain.Order, error)
	List(ctx context.Context, customerID string) ([]domain.Order, error)
	PaymentForm(ctx context.Context, id, customerID string) (*payment.Form, error)
	CashOnDeliveryOrder(ctx context.Context, id, customerID string) (*domain.Order, error)
}

type PaymentService interface {
	HandleIPN(ctx context.Context, raw []byte) payment.Outcome
}

type CustomerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	Logout(ctx context.Context, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	AccessTTLSeconds() int
}

// SessionOptions configures the anonymous session cookie that keys carts.
type SessionOptions struct {
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

// Deps holds the services the router dispatches to.
type Deps struct {
	ProductSvc  ProductService
	CategorySvc CategoryService
	CartSvc     CartService
	OrderSvc    OrderService
	PaymentSvc  PaymentService
	CustomerSvc CustomerService

	Session     SessionOptions
	CORSOrigins []string
	Checks      map[string]ReadinessCheck
}

func (d Deps) validate() error {
	switch {
	case d.ProductSvc == nil:
		return errors.New("product service is required")
	case d.CategorySvc == nil:
		return errors.New("category service is required")
	case d.CartSvc == nil:
		return errors.New("cart service is required")
	case d.OrderSvc == nil:
		return errors.New("order service is required")
	case d.PaymentSvc == nil:
		return errors.New("payment service is required")
	case d.CustomerSvc == nil:
		return errors.New("customer service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *logrus.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Session.CookieName == "" {
		deps.Session.CookieName = "sessionid"
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), metrics.Middleware(), corsMiddleware(deps.CORSOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Checks, logger))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers{deps: deps, logger: logger}

	router.GET("/categories", h.listCategories)
	router.GET("/categories/:slug/products", h.listCategoryProducts)
	router.GET("/products", h.listProducts)
	router.GET("/products/search", h.searchProducts)
	router.GET("/products/:id", h.getProduct)

	router.POST("/me/signup", h.signup)
	router.POST("/me/token", h.token)
	router.POST("/me/logout", requireCustomer(deps.CustomerSvc), h.logout)
	router.GET("/me", requireCustomer(deps.CustomerSvc), h.me)

	cart := router.Group("/cart", sessionMiddleware(deps.Session))
	cart.GET("", h.getCart)
	cart.GET("/summary", h.cartSummary)
	cart.DELETE("", h.clearCart)
	cart.POST("/clean", h.cleanCart)
	cart.POST("/items/:id", h.addCartItem)
	cart.PUT("/items/:id", h.updateCartItem)
	cart.DELETE("/items/:id", h.removeCartItem)

	orders := router.Group("/orders", sessionMiddleware(deps.Session), requireCustomer(deps.CustomerSvc))
	orders.POST("", h.checkout)
	orders.GET("", h.listOrders)
	orders.GET("/:id", h.getOrder)
	orders.GET("/:id/payment", h.orderPayment)
	orders.GET("/:id/cash-on-delivery", h.cashOnDelivery)

	router.POST("/paypal/ipn", h.paypalIPN)
	router.GET("/payment/done", h.paymentDone)
	router.GET("/payment/cancelled", h.paymentCancelled)

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

type handlers struct {
	deps   Deps
	logger logrus.FieldLogger
}
