package services

import (
	"context"
	"database/sql"
	"errors"

	"qashop/internal/domain"
	"qashop/internal/session"

	"github.com/shopspring/decimal"
)

// ProductLookup is the read side of the catalog used by the cart.
type ProductLookup interface {
	Get(ctx context.Context, id int64) (domain.Product, error)
	ByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}

type CartService struct {
	Prods ProductLookup
}

func NewCartService(prods ProductLookup) *CartService {
	return &CartService{Prods: prods}
}

// CartLine is a cart entry joined with its current catalog row.
type CartLine struct {
	Product  domain.Product
	Quantity int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CartView struct {
	Lines []CartLine
	Total decimal.Decimal
	Count int
}

// Add puts one more unit of productID in the cart. Stock is not checked.
func (s *CartService) Add(ctx context.Context, st *session.State, productID int64) error {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	st.Cart.Add(productID)
	return nil
}

func (s *CartService) Remove(st *session.State, productID int64) {
	st.Cart.Remove(productID)
}

// SetQuantity overwrites the quantity of an entry; qty <= 0 removes it.
func (s *CartService) SetQuantity(st *session.State, productID int64, qty int) {
	st.Cart.Set(productID, qty)
}

// Snapshot resolves cart entries against the catalog. Entries whose product
// no longer exists are left out of the result but stay in the cart.
func (s *CartService) Snapshot(ctx context.Context, cart domain.Cart) ([]CartLine, error) {
	if cart.Len() == 0 {
		return []CartLine{}, nil
	}
	products, err := s.Prods.ByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}
	return resolveLines(products, cart), nil
}

// Total prices the cart at current catalog prices.
func (s *CartService) Total(ctx context.Context, cart domain.Cart) (decimal.Decimal, error) {
	lines, err := s.Snapshot(ctx, cart)
	if err != nil {
		return decimal.Zero, err
	}
	return linesTotal(lines), nil
}

func (s *CartService) View(ctx context.Context, cart domain.Cart) (CartView, error) {
	lines, err := s.Snapshot(ctx, cart)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Lines: lines, Total: linesTotal(lines), Count: cart.Count()}, nil
}

// resolveLines re-associates products with cart quantities by id, in cart
// id order.
func resolveLines(products []domain.Product, cart domain.Cart) []CartLine {
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	lines := make([]CartLine, 0, len(products))
	for _, id := range cart.ProductIDs() {
		p, ok := byID[id]
		if !ok {
			continue
		}
		lines = append(lines, CartLine{Product: p, Quantity: cart.Quantity(id)})
	}
	return lines
}

func linesTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
