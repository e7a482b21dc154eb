package checkout

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nippysky/marobi/internal/domain"
)

var (
	// ErrValidation marks requests rejected before any stock is touched,
	// and prices that cannot be resolved for the order currency.
	ErrValidation = errors.New("invalid order request")
	// ErrNotFound marks a missing customer or variant.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock marks a line that asks for more than is on hand.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderIDExhausted is returned when no free order id was found in the allotted attempts.
	ErrOrderIDExhausted = errors.New("could not allocate a unique order id")

	ErrEmptyCart = fmt.Errorf("%w: cart is empty", ErrValidation)
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// LineNotFoundError names the product/color/size combination that has no variant.
type LineNotFoundError struct {
	ProductID int64
	Color     string
	Size      string
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("variant not found for product %d (color: %s, size: %s)", e.ProductID, e.Color, e.Size)
}

func (e *LineNotFoundError) Unwrap() error {
	return ErrNotFound
}

// StockError names the product whose variant could not cover the requested quantity.
type StockError struct {
	ProductID   int64
	ProductName string
	Color       string
	Size        string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (color: %s, size: %s): requested %d, available %d",
		e.ProductName, e.Color, e.Size, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// PriceError is returned when a product has no price in the order currency.
type PriceError struct {
	ProductName string
	Currency    domain.Currency
}

func (e *PriceError) Error() string {
	return fmt.Sprintf("%q has no %s price", e.ProductName, e.Currency)
}

func (e *PriceError) Unwrap() error {
	return ErrValidation
}

// StatusCode maps a PlaceOrder error to the HTTP status returned to callers.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusCreated
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrOrderIDExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
