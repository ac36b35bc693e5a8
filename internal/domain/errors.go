package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized indicates the entity belongs to another customer.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidProduct is returned when a product cannot be purchased.
	ErrInvalidProduct = errors.New("product is not available")
	// ErrInvalidQuantity is returned for a quantity outside [1, MaxLineQuantity].
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrQuantityLimitExceeded is returned when a cumulative add would pass MaxLineQuantity.
	ErrQuantityLimitExceeded = errors.New("quantity limit exceeded")
	ErrOutOfStock            = errors.New("product is out of stock")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrEmptyCart             = errors.New("cart is empty")
)
