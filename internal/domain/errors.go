package domain

import (
	"errors"
	"fmt"
)

// Expected, user-actionable outcomes. Everything else bubbling out of the
// storage layer is treated as an infrastructure failure.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrCartLineNotFound  = errors.New("cart line not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrShipmentNotFound  = errors.New("shipment not found")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrInvalidInput      = errors.New("invalid input")
	ErrIllegalTransition = errors.New("illegal transition of order status")
)

// InsufficientStockError names the offending product and both figures, so
// callers can tell the user exactly what to adjust. InCart is non-zero when
// the requested quantity only overflows once merged with an existing cart
// line.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
	InCart      int
}

func (e *InsufficientStockError) Error() string {
	if e.InCart > 0 {
		return fmt.Sprintf("insufficient stock for product %q: requested %d with %d already in cart, only %d available",
			e.ProductName, e.Requested, e.InCart, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %q: requested %d, only %d available",
		e.ProductName, e.Requested, e.Available)
}
