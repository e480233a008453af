package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eluvju/wapp-shop-express/internal/auth"
	"github.com/eluvju/wapp-shop-express/internal/backend"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/eluvju/wapp-shop-express/internal/localstore"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartBackend is the slice of the remote collection client the cart needs.
type CartBackend interface {
	ListCartItems(ctx context.Context, userID string) ([]domain.CartItem, error)
	FindCartItem(ctx context.Context, userID, productID string) (*backend.CartRow, error)
	InsertCartItem(ctx context.Context, userID, productID string, quantity int) error
	UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error
	SetCartItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	DeleteCartItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

// Phase tracks where a cart sits in its mutate/reconcile cycle. Every remote
// mutation passes through Mutating and then Reconciling, which re-fetches
// from the backend instead of trusting the optimistic in-memory patch.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMutating
	PhaseReconciling
)

func (p Phase) String() string {
	switch p {
	case PhaseMutating:
		return "mutating"
	case PhaseReconciling:
		return "reconciling"
	default:
		return "idle"
	}
}

// CartService hands out one reconciliation unit per shopper session.
type CartService struct {
	backend CartBackend
	local   localstore.SessionStore
	log     *zap.Logger

	mu    sync.Mutex
	carts map[string]*Cart
}

func NewCartService(b CartBackend, local localstore.SessionStore, log *zap.Logger) *CartService {
	return &CartService{
		backend: b,
		local:   local,
		log:     log,
		carts:   make(map[string]*Cart),
	}
}

// Session returns the cart bound to a session id, loading the session's
// persisted anonymous cart on first use.
func (s *CartService) Session(ctx context.Context, sessionID string) *Cart {
	s.mu.Lock()
	c, ok := s.carts[sessionID]
	if !ok {
		c = &Cart{
			backend:   s.backend,
			local:     s.local,
			log:       s.log,
			sessionID: sessionID,
		}
		s.carts[sessionID] = c
	}
	s.mu.Unlock()

	if !ok {
		c.loadLocal(ctx)
	}
	return c
}

// Cart owns the authoritative item list for one shopper. Anonymous carts
// persist to the session store; authenticated carts write through to the
// backend and reload after every mutation.
type Cart struct {
	backend   CartBackend
	local     localstore.SessionStore
	log       *zap.Logger
	sessionID string

	sfg singleflight.Group

	mu      sync.Mutex
	items   []domain.CartItem
	user    *auth.Identity
	loading bool
	phase   Phase
}

// SetIdentity switches the cart between anonymous and authenticated modes.
// Login loads the remote cart; the anonymous one is left behind in the
// session store, not merged. Logout returns to the session cart.
func (c *Cart) SetIdentity(ctx context.Context, user *auth.Identity) error {
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()

	if user != nil {
		return c.reload(ctx)
	}
	c.loadLocal(ctx)
	return nil
}

func (c *Cart) AddToCart(ctx context.Context, product domain.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	user := c.user
	if user == nil {
		found := false
		for i := range c.items {
			if c.items[i].Product.ID == product.ID {
				c.items[i].Quantity += quantity
				found = true
				break
			}
		}
		if !found {
			c.items = append(c.items, domain.CartItem{
				ID:       uuid.NewString(),
				Product:  product,
				Quantity: quantity,
			})
		}
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.persistLocal(ctx, snapshot)
		return nil
	}
	c.loading = true
	c.phase = PhaseMutating
	c.mu.Unlock()

	row, err := c.backend.FindCartItem(ctx, user.ID, product.ID)
	switch {
	case err == nil:
		err = c.backend.UpdateCartItemQuantity(ctx, row.ID, row.Quantity+quantity)
	case errors.Is(err, backend.ErrNotFound):
		err = c.backend.InsertCartItem(ctx, user.ID, product.ID, quantity)
	}
	if err != nil {
		c.settle()
		c.log.Warn("add to cart failed", zap.String("product_id", product.ID), zap.Error(err))
		return fmt.Errorf("add to cart: %w", err)
	}

	return c.reload(ctx)
}

// UpdateQuantity sets an absolute quantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveFromCart(ctx, productID)
	}

	c.mu.Lock()
	user := c.user
	if user == nil {
		for i := range c.items {
			if c.items[i].Product.ID == productID {
				c.items[i].Quantity = quantity
			}
		}
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.persistLocal(ctx, snapshot)
		return nil
	}
	c.loading = true
	c.phase = PhaseMutating
	c.mu.Unlock()

	if err := c.backend.SetCartItemQuantity(ctx, user.ID, productID, quantity); err != nil {
		c.settle()
		c.log.Warn("update quantity failed", zap.String("product_id", productID), zap.Error(err))
		return fmt.Errorf("update quantity: %w", err)
	}

	return c.reload(ctx)
}

func (c *Cart) RemoveFromCart(ctx context.Context, productID string) error {
	c.mu.Lock()
	user := c.user
	if user == nil {
		kept := c.items[:0]
		for _, it := range c.items {
			if it.Product.ID != productID {
				kept = append(kept, it)
			}
		}
		c.items = kept
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.persistLocal(ctx, snapshot)
		return nil
	}
	c.loading = true
	c.phase = PhaseMutating
	c.mu.Unlock()

	if err := c.backend.DeleteCartItem(ctx, user.ID, productID); err != nil {
		c.settle()
		c.log.Warn("remove from cart failed", zap.String("product_id", productID), zap.Error(err))
		return fmt.Errorf("remove from cart: %w", err)
	}

	return c.reload(ctx)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	user := c.user
	if user == nil {
		c.items = nil
		c.mu.Unlock()
		if err := c.local.DeleteCart(ctx, c.sessionID); err != nil {
			c.log.Warn("deleting local cart failed", zap.Error(err))
		}
		return nil
	}
	c.loading = true
	c.phase = PhaseMutating
	c.mu.Unlock()

	if err := c.backend.ClearCart(ctx, user.ID); err != nil {
		c.settle()
		c.log.Warn("clear cart failed", zap.Error(err))
		return fmt.Errorf("clear cart: %w", err)
	}

	c.mu.Lock()
	c.items = nil
	c.loading = false
	c.phase = PhaseIdle
	c.mu.Unlock()
	return nil
}

func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Total is derived from the current item list on every call; nothing is
// cached between mutations.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartTotal(c.items)
}

func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartItemCount(c.items)
}

func (c *Cart) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Cart) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Cart) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil
}

func (c *Cart) User() *auth.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// reload re-fetches the remote cart so in-memory state matches server truth.
// Concurrent reloads for the same owner collapse into one backend query.
func (c *Cart) reload(ctx context.Context) error {
	c.mu.Lock()
	user := c.user
	c.phase = PhaseReconciling
	c.mu.Unlock()
	defer c.settle()

	if user == nil {
		return nil
	}

	v, err, _ := c.sfg.Do(user.ID, func() (interface{}, error) {
		return c.backend.ListCartItems(ctx, user.ID)
	})
	if err != nil {
		c.log.Warn("cart reload failed", zap.String("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("reload cart: %w", err)
	}

	c.mu.Lock()
	c.items = v.([]domain.CartItem)
	c.mu.Unlock()
	return nil
}

func (c *Cart) loadLocal(ctx context.Context) {
	items, err := c.local.GetCart(ctx, c.sessionID)
	if err != nil && !errors.Is(err, localstore.ErrMiss) {
		// A broken session store degrades to memory-only, like disabled
		// browser storage.
		c.log.Warn("loading local cart failed", zap.Error(err))
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

func (c *Cart) persistLocal(ctx context.Context, items []domain.CartItem) {
	if err := c.local.SaveCart(ctx, c.sessionID, items); err != nil {
		c.log.Warn("saving local cart failed", zap.Error(err))
	}
}

func (c *Cart) settle() {
	c.mu.Lock()
	c.loading = false
	c.phase = PhaseIdle
	c.mu.Unlock()
}

func (c *Cart) snapshotLocked() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}
