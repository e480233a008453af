package domain

// CartItem holds a value copy of the product, not a live reference.
// Price changes after the item was added are accepted as stale.
type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CartTotal is the sum of price times quantity over all items.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Product.Price * float64(it.Quantity)
	}
	return total
}

// CartItemCount is the sum of quantities, not the number of lines.
func CartItemCount(items []CartItem) int {
	var count int
	for _, it := range items {
		count += it.Quantity
	}
	return count
}
