package services

import (
	"context"
	"encoding/json"
	"errors"

	"qashop/internal/domain"
	"qashop/internal/repos"
	"qashop/internal/session"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// OrderWriter persists an order inside a caller-supplied transaction.
type OrderWriter interface {
	CreateOrder(ctx context.Context, tx *sqlx.Tx, userID int64, total decimal.Decimal, shippingJSON string) (int64, error)
	CreateOrderItem(ctx context.Context, tx *sqlx.Tx, orderID, productID int64, qty int, price decimal.Decimal) error
}

// TxProductReader resolves products inside the checkout transaction.
type TxProductReader interface {
	ByIDsTx(ctx context.Context, tx *sqlx.Tx, ids []int64) ([]domain.Product, error)
}

// StockDecrementer reserves units inside the checkout transaction.
type StockDecrementer interface {
	DecrementTx(ctx context.Context, tx *sqlx.Tx, productID int64, by int) error
}

type CheckoutService struct {
	DB     *sqlx.DB
	Prods  TxProductReader
	Orders OrderWriter
	Stock  StockDecrementer

	// EnforceStock rejects orders that exceed stock and decrements it.
	// Off by default: the shop historically allows overselling.
	EnforceStock bool
}

func NewCheckoutService(db *sqlx.DB, prods TxProductReader, orders OrderWriter, stock StockDecrementer, enforceStock bool) *CheckoutService {
	return &CheckoutService{DB: db, Prods: prods, Orders: orders, Stock: stock, EnforceStock: enforceStock}
}

// Place turns the session cart into a pending order. The order header and
// all items are written in one transaction; the cart is cleared only after
// it commits. Card details are never passed in.
func (s *CheckoutService) Place(ctx context.Context, st *session.State, ship domain.ShippingDetails) (int64, error) {
	if !st.IsAuthenticated() {
		return 0, ErrNotAuthenticated
	}
	if st.Cart.Len() == 0 {
		return 0, ErrEmptyCart
	}

	ship = ship.Trimmed()
	if err := validateShipping(ship); err != nil {
		return 0, err
	}
	shipJSON, err := json.Marshal(ship)
	if err != nil {
		return 0, &PersistenceError{Op: "encode shipping", Err: err}
	}

	cart := domain.CartFromMap(st.Cart.Map())
	var orderID int64
	err = repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		// Last read of prices; items keep these values for good.
		products, err := s.Prods.ByIDsTx(ctx, tx, cart.ProductIDs())
		if err != nil {
			return err
		}
		lines := resolveLines(products, cart)
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		if s.EnforceStock {
			for _, l := range lines {
				if err := s.Stock.DecrementTx(ctx, tx, l.Product.ID, l.Quantity); err != nil {
					if errors.Is(err, repos.ErrShortStock) {
						return ErrInsufficientStock
					}
					return err
				}
			}
		}

		orderID, err = s.Orders.CreateOrder(ctx, tx, st.UserID, linesTotal(lines), string(shipJSON))
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := s.Orders.CreateOrderItem(ctx, tx, orderID, l.Product.ID, l.Quantity, l.Product.Price); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrInsufficientStock) {
			return 0, err
		}
		return 0, &PersistenceError{Op: "place order", Err: err}
	}

	st.Cart.Clear()
	return orderID, nil
}

func validateShipping(ship domain.ShippingDetails) error {
	verr := &ValidationError{}
	if ship.FirstName == "" {
		verr.add("first_name", "First name is required")
	}
	if ship.LastName == "" {
		verr.add("last_name", "Last name is required")
	}
	if ship.Address == "" {
		verr.add("address", "Address is required")
	}
	return verr.orNil()
}
