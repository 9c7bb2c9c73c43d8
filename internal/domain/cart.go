package domain

import "sort"

// MaxQuantity bounds a single cart entry.
const MaxQuantity = 9999

// Cart maps product ids to quantities. Every stored quantity is in
// [1, MaxQuantity]; the zero value is an empty cart ready to use.
type Cart struct {
	items map[int64]int
}

func NewCart() Cart { return Cart{items: map[int64]int{}} }

// CartFromMap copies m, dropping non-positive quantities and capping the
// rest at MaxQuantity.
func CartFromMap(m map[int64]int) Cart {
	c := NewCart()
	for id, qty := range m {
		if qty > 0 {
			c.items[id] = min(qty, MaxQuantity)
		}
	}
	return c
}

func (c *Cart) init() {
	if c.items == nil {
		c.items = map[int64]int{}
	}
}

// Add increments the quantity for productID by one, up to MaxQuantity.
func (c *Cart) Add(productID int64) {
	c.init()
	if c.items[productID] < MaxQuantity {
		c.items[productID]++
	}
}

func (c *Cart) Remove(productID int64) {
	delete(c.items, productID)
}

// Set overwrites the quantity of an entry already in the cart. qty <= 0
// removes it and larger values are capped at MaxQuantity. Ids that are not
// in the cart are left alone.
func (c *Cart) Set(productID int64, qty int) {
	if _, ok := c.items[productID]; !ok {
		return
	}
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	c.items[productID] = min(qty, MaxQuantity)
}

func (c *Cart) Clear() {
	c.items = map[int64]int{}
}

func (c Cart) Quantity(productID int64) int { return c.items[productID] }

func (c Cart) Has(productID int64) bool {
	_, ok := c.items[productID]
	return ok
}

func (c Cart) Len() int { return len(c.items) }

// Count is the total number of units across all entries.
func (c Cart) Count() int {
	n := 0
	for _, qty := range c.items {
		n += qty
	}
	return n
}

// ProductIDs returns the cart keys in ascending order.
func (c Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Map returns a copy of the entries, suitable for storing in a session.
func (c Cart) Map() map[int64]int {
	out := make(map[int64]int, len(c.items))
	for id, qty := range c.items {
		out[id] = qty
	}
	return out
}
