package service

import (
	"context"
	"strings"
	"sync"

	"github.com/eluvju/wapp-shop-express/internal/backend"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/eluvju/wapp-shop-express/internal/localstore"
	"github.com/google/uuid"
)

// memoryStore is an in-memory localstore.SessionStore for tests.
type memoryStore struct {
	mu        sync.Mutex
	carts     map[string][]domain.CartItem
	wishlists map[string][]domain.WishlistItem
	history   map[string][]string
	failSave  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		carts:     make(map[string][]domain.CartItem),
		wishlists: make(map[string][]domain.WishlistItem),
		history:   make(map[string][]string),
	}
}

func (m *memoryStore) GetCart(_ context.Context, sessionID string) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.carts[sessionID]
	if !ok {
		return nil, localstore.ErrMiss
	}
	return items, nil
}

func (m *memoryStore) SaveCart(_ context.Context, sessionID string, items []domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.carts[sessionID] = items
	return nil
}

func (m *memoryStore) DeleteCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

func (m *memoryStore) GetWishlist(_ context.Context, sessionID string) ([]domain.WishlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.wishlists[sessionID]
	if !ok {
		return nil, localstore.ErrMiss
	}
	return items, nil
}

func (m *memoryStore) SaveWishlist(_ context.Context, sessionID string, items []domain.WishlistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.wishlists[sessionID] = items
	return nil
}

func (m *memoryStore) DeleteWishlist(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.wishlists, sessionID)
	return nil
}

func (m *memoryStore) GetSearchHistory(_ context.Context, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	terms, ok := m.history[sessionID]
	if !ok {
		return nil, localstore.ErrMiss
	}
	return terms, nil
}

func (m *memoryStore) SaveSearchHistory(_ context.Context, sessionID string, terms []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.history[sessionID] = terms
	return nil
}

// fakeCartBackend keeps cart rows in memory and joins against a product map
// the same way the store joins against the products table.
type fakeCartBackend struct {
	mu       sync.Mutex
	rows     []backend.CartRow
	products map[string]domain.Product
	err      error // returned by every call when set
	calls    int
}

func newFakeCartBackend(products ...domain.Product) *fakeCartBackend {
	b := &fakeCartBackend{products: make(map[string]domain.Product)}
	for _, p := range products {
		b.products[p.ID] = p
	}
	return b
}

func (b *fakeCartBackend) ListCartItems(_ context.Context, userID string) ([]domain.CartItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	var items []domain.CartItem
	for _, row := range b.rows {
		if row.UserID != userID {
			continue
		}
		items = append(items, domain.CartItem{
			ID:       row.ID,
			Product:  b.products[row.ProductID],
			Quantity: row.Quantity,
		})
	}
	return items, nil
}

func (b *fakeCartBackend) FindCartItem(_ context.Context, userID, productID string) (*backend.CartRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	for _, row := range b.rows {
		if row.UserID == userID && row.ProductID == productID {
			found := row
			return &found, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (b *fakeCartBackend) InsertCartItem(_ context.Context, userID, productID string, quantity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.rows = append(b.rows, backend.CartRow{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
	return nil
}

func (b *fakeCartBackend) UpdateCartItemQuantity(_ context.Context, itemID string, quantity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	for i := range b.rows {
		if b.rows[i].ID == itemID {
			b.rows[i].Quantity = quantity
			return nil
		}
	}
	return backend.ErrNotFound
}

func (b *fakeCartBackend) SetCartItemQuantity(_ context.Context, userID, productID string, quantity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	for i := range b.rows {
		if b.rows[i].UserID == userID && b.rows[i].ProductID == productID {
			b.rows[i].Quantity = quantity
			return nil
		}
	}
	return backend.ErrNotFound
}

func (b *fakeCartBackend) DeleteCartItem(_ context.Context, userID, productID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	kept := b.rows[:0]
	for _, row := range b.rows {
		if row.UserID != userID || row.ProductID != productID {
			kept = append(kept, row)
		}
	}
	b.rows = kept
	return nil
}

func (b *fakeCartBackend) ClearCart(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	kept := b.rows[:0]
	for _, row := range b.rows {
		if row.UserID != userID {
			kept = append(kept, row)
		}
	}
	b.rows = kept
	return nil
}

type fakeWishlistBackend struct {
	mu       sync.Mutex
	items    map[string][]domain.WishlistItem // keyed by user id
	products map[string]domain.Product
	err      error
}

func newFakeWishlistBackend(products ...domain.Product) *fakeWishlistBackend {
	b := &fakeWishlistBackend{
		items:    make(map[string][]domain.WishlistItem),
		products: make(map[string]domain.Product),
	}
	for _, p := range products {
		b.products[p.ID] = p
	}
	return b
}

func (b *fakeWishlistBackend) ListWishlist(_ context.Context, userID string) ([]domain.WishlistItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return b.items[userID], nil
}

func (b *fakeWishlistBackend) InsertWishlistItem(_ context.Context, userID, productID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	for _, it := range b.items[userID] {
		if it.Product.ID == productID {
			return nil // conflict tolerated, like ON CONFLICT DO NOTHING
		}
	}
	b.items[userID] = append(b.items[userID], domain.WishlistItem{
		ID:      uuid.NewString(),
		Product: b.products[productID],
	})
	return nil
}

func (b *fakeWishlistBackend) DeleteWishlistItem(_ context.Context, userID, productID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	kept := b.items[userID][:0]
	for _, it := range b.items[userID] {
		if it.Product.ID != productID {
			kept = append(kept, it)
		}
	}
	b.items[userID] = kept
	return nil
}

func (b *fakeWishlistBackend) ClearWishlist(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	delete(b.items, userID)
	return nil
}

type fakeCouponBackend struct {
	mu      sync.Mutex
	coupons []domain.Coupon
	err     error
	setErr  error
}

func (b *fakeCouponBackend) GetActiveCouponByCode(_ context.Context, code string) (*domain.Coupon, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	for i := range b.coupons {
		if strings.EqualFold(b.coupons[i].Code, code) && b.coupons[i].IsActive {
			c := b.coupons[i]
			return &c, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (b *fakeCouponBackend) ListActiveCoupons(_ context.Context) ([]domain.Coupon, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	var active []domain.Coupon
	for _, c := range b.coupons {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active, nil
}

func (b *fakeCouponBackend) SetCouponUsedCount(_ context.Context, couponID string, usedCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.setErr != nil {
		return b.setErr
	}
	for i := range b.coupons {
		if b.coupons[i].ID == couponID {
			b.coupons[i].UsedCount = usedCount
			return nil
		}
	}
	return backend.ErrNotFound
}

type fakeOrderBackend struct {
	mu       sync.Mutex
	orders   []domain.Order
	items    []domain.OrderItem
	itemsErr error
	err      error
}

func (b *fakeOrderBackend) InsertOrder(_ context.Context, o *domain.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.orders = append(b.orders, *o)
	return nil
}

func (b *fakeOrderBackend) InsertOrderItems(_ context.Context, items []domain.OrderItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.itemsErr != nil {
		return b.itemsErr
	}
	b.items = append(b.items, items...)
	return nil
}

func (b *fakeOrderBackend) ListOrders(_ context.Context, userID string) ([]domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	var out []domain.Order
	for i := len(b.orders) - 1; i >= 0; i-- { // newest first
		o := b.orders[i]
		if o.UserID != userID {
			continue
		}
		for _, it := range b.items {
			if it.OrderID == o.ID {
				o.Items = append(o.Items, it)
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func (b *fakeOrderBackend) UpdateOrderStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	for i := range b.orders {
		if b.orders[i].ID == orderID {
			b.orders[i].Status = status
			return nil
		}
	}
	return backend.ErrNotFound
}

// fakeReviewBackend keeps GetReview and SetHelpfulCount as separate steps so
// tests can exercise the read-then-write increment.
type fakeReviewBackend struct {
	mu      sync.Mutex
	reviews []domain.ProductReview
	err     error
}

func (b *fakeReviewBackend) ListApprovedReviews(_ context.Context, productID string) ([]domain.ProductReview, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	var out []domain.ProductReview
	for _, r := range b.reviews {
		if r.ProductID == productID && r.IsApproved {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *fakeReviewBackend) GetReview(_ context.Context, reviewID string) (*domain.ProductReview, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	for i := range b.reviews {
		if b.reviews[i].ID == reviewID {
			r := b.reviews[i]
			return &r, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (b *fakeReviewBackend) UpsertReview(_ context.Context, r *domain.ProductReview) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	for i := range b.reviews {
		if b.reviews[i].ProductID == r.ProductID && b.reviews[i].UserID == r.UserID {
			r.ID = b.reviews[i].ID
			r.HelpfulCount = b.reviews[i].HelpfulCount
			b.reviews[i] = *r
			return nil
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	b.reviews = append(b.reviews, *r)
	return nil
}

func (b *fakeReviewBackend) SetHelpfulCount(_ context.Context, reviewID string, helpfulCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	for i := range b.reviews {
		if b.reviews[i].ID == reviewID {
			b.reviews[i].HelpfulCount = helpfulCount
			return nil
		}
	}
	return backend.ErrNotFound
}

type fakeCatalogBackend struct {
	mu        sync.Mutex
	products  []domain.Product
	err       error
	listCalls int
}

func (b *fakeCatalogBackend) ListProducts(_ context.Context) ([]domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	if b.err != nil {
		return nil, b.err
	}
	out := make([]domain.Product, len(b.products))
	copy(out, b.products)
	return out, nil
}

func (b *fakeCatalogBackend) SearchProductsByName(_ context.Context, term string, limit int) ([]domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	var out []domain.Product
	for _, p := range b.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
