package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"qashop/internal/domain"
)

// OrderReader is the read side of the order store.
type OrderReader interface {
	GetForUser(ctx context.Context, orderID, userID int64) (domain.Order, error)
	Items(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Order, error)
}

type OrderService struct {
	Orders OrderReader
}

func NewOrderService(orders OrderReader) *OrderService {
	return &OrderService{Orders: orders}
}

// Confirmation returns an order owned by userID. Orders of other users are
// reported as ErrNotFound, same as missing ones.
func (s *OrderService) Confirmation(ctx context.Context, orderID, userID int64) (domain.OrderDetail, error) {
	o, err := s.Orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OrderDetail{}, ErrNotFound
		}
		return domain.OrderDetail{}, err
	}

	var ship domain.ShippingDetails
	if err := json.Unmarshal([]byte(o.ShippingDetails), &ship); err != nil {
		return domain.OrderDetail{}, fmt.Errorf("%w: order %d shipping details: %v", ErrDataIntegrity, o.ID, err)
	}

	items, err := s.Orders.Items(ctx, o.ID)
	if err != nil {
		return domain.OrderDetail{}, err
	}
	return domain.OrderDetail{Order: o, Shipping: ship, Items: items}, nil
}

// Latest lists recent orders of all users for the admin panel.
func (s *OrderService) Latest(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.Orders.ListLatest(ctx, limit)
}
