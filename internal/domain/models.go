package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending = "pending"

	DefaultImagePath = "images/placeholder.svg"
)

type Product struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Stock       int             `db:"stock"`
	ImagePath   string          `db:"image_path"`
	CreatedAt   string          `db:"created_at"`
}

// ShippingDetails is stored on the order as JSON.
type ShippingDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
}

func (s ShippingDetails) Trimmed() ShippingDetails {
	return ShippingDetails{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Address:   strings.TrimSpace(s.Address),
	}
}

type Order struct {
	ID              int64           `db:"id"`
	UserID          int64           `db:"user_id"`
	Username        string          `db:"username"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Status          string          `db:"status"`
	ShippingDetails string          `db:"shipping_details"`
	CreatedAt       string          `db:"created_at"`
}

type OrderItem struct {
	OrderID   int64           `db:"order_id"`
	ProductID int64           `db:"product_id"`
	Name      string          `db:"name"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// OrderDetail is an order with its decoded shipping details and line items.
type OrderDetail struct {
	Order
	Shipping ShippingDetails
	Items    []OrderItem
}
