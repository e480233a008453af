package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/auth"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/eluvju/wapp-shop-express/internal/localstore"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WishlistBackend interface {
	ListWishlist(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	InsertWishlistItem(ctx context.Context, userID, productID string) error
	DeleteWishlistItem(ctx context.Context, userID, productID string) error
	ClearWishlist(ctx context.Context, userID string) error
}

// WishlistService hands out one wishlist per shopper session, same shape as
// the cart but without the reconcile phases: wishlist mutations are simple
// enough to reload unconditionally.
type WishlistService struct {
	backend WishlistBackend
	local   localstore.SessionStore
	log     *zap.Logger

	mu    sync.Mutex
	lists map[string]*Wishlist
}

func NewWishlistService(b WishlistBackend, local localstore.SessionStore, log *zap.Logger) *WishlistService {
	return &WishlistService{
		backend: b,
		local:   local,
		log:     log,
		lists:   make(map[string]*Wishlist),
	}
}

func (s *WishlistService) Session(ctx context.Context, sessionID string) *Wishlist {
	s.mu.Lock()
	w, ok := s.lists[sessionID]
	if !ok {
		w = &Wishlist{
			backend:   s.backend,
			local:     s.local,
			log:       s.log,
			sessionID: sessionID,
		}
		s.lists[sessionID] = w
	}
	s.mu.Unlock()

	if !ok {
		w.loadLocal(ctx)
	}
	return w
}

type Wishlist struct {
	backend   WishlistBackend
	local     localstore.SessionStore
	log       *zap.Logger
	sessionID string

	mu    sync.Mutex
	items []domain.WishlistItem
	user  *auth.Identity
}

// SetIdentity switches modes the same way the cart does: login shows the
// remote wishlist, logout returns to the session one. No merge.
func (w *Wishlist) SetIdentity(ctx context.Context, user *auth.Identity) error {
	w.mu.Lock()
	w.user = user
	w.mu.Unlock()

	if user != nil {
		return w.reload(ctx)
	}
	w.loadLocal(ctx)
	return nil
}

func (w *Wishlist) Add(ctx context.Context, product domain.Product) error {
	w.mu.Lock()
	user := w.user
	if user == nil {
		for _, it := range w.items {
			if it.Product.ID == product.ID {
				w.mu.Unlock()
				return nil
			}
		}
		w.items = append(w.items, domain.WishlistItem{
			ID:        uuid.NewString(),
			Product:   product,
			CreatedAt: time.Now().UTC(),
		})
		snapshot := w.snapshotLocked()
		w.mu.Unlock()
		w.persistLocal(ctx, snapshot)
		return nil
	}
	w.mu.Unlock()

	// Insert is conflict-tolerant on the backend, so a double add is a no-op.
	if err := w.backend.InsertWishlistItem(ctx, user.ID, product.ID); err != nil {
		w.log.Warn("add to wishlist failed", zap.String("product_id", product.ID), zap.Error(err))
		return fmt.Errorf("add to wishlist: %w", err)
	}
	return w.reload(ctx)
}

func (w *Wishlist) Remove(ctx context.Context, productID string) error {
	w.mu.Lock()
	user := w.user
	if user == nil {
		kept := w.items[:0]
		for _, it := range w.items {
			if it.Product.ID != productID {
				kept = append(kept, it)
			}
		}
		w.items = kept
		snapshot := w.snapshotLocked()
		w.mu.Unlock()
		w.persistLocal(ctx, snapshot)
		return nil
	}
	w.mu.Unlock()

	if err := w.backend.DeleteWishlistItem(ctx, user.ID, productID); err != nil {
		w.log.Warn("remove from wishlist failed", zap.String("product_id", productID), zap.Error(err))
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	return w.reload(ctx)
}

// Toggle adds absent products and removes present ones, reporting whether
// the product ended up on the list.
func (w *Wishlist) Toggle(ctx context.Context, product domain.Product) (bool, error) {
	if w.Contains(product.ID) {
		return false, w.Remove(ctx, product.ID)
	}
	return true, w.Add(ctx, product)
}

func (w *Wishlist) Clear(ctx context.Context) error {
	w.mu.Lock()
	user := w.user
	if user == nil {
		w.items = nil
		w.mu.Unlock()
		if err := w.local.DeleteWishlist(ctx, w.sessionID); err != nil {
			w.log.Warn("deleting local wishlist failed", zap.Error(err))
		}
		return nil
	}
	w.mu.Unlock()

	if err := w.backend.ClearWishlist(ctx, user.ID); err != nil {
		w.log.Warn("clear wishlist failed", zap.Error(err))
		return fmt.Errorf("clear wishlist: %w", err)
	}

	w.mu.Lock()
	w.items = nil
	w.mu.Unlock()
	return nil
}

func (w *Wishlist) Items() []domain.WishlistItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Wishlist) Contains(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, it := range w.items {
		if it.Product.ID == productID {
			return true
		}
	}
	return false
}

func (w *Wishlist) User() *auth.Identity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.user
}

func (w *Wishlist) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

func (w *Wishlist) reload(ctx context.Context) error {
	w.mu.Lock()
	user := w.user
	w.mu.Unlock()
	if user == nil {
		return nil
	}

	items, err := w.backend.ListWishlist(ctx, user.ID)
	if err != nil {
		w.log.Warn("wishlist reload failed", zap.String("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("reload wishlist: %w", err)
	}

	w.mu.Lock()
	w.items = items
	w.mu.Unlock()
	return nil
}

func (w *Wishlist) loadLocal(ctx context.Context) {
	items, err := w.local.GetWishlist(ctx, w.sessionID)
	if err != nil && !errors.Is(err, localstore.ErrMiss) {
		w.log.Warn("loading local wishlist failed", zap.Error(err))
	}

	w.mu.Lock()
	w.items = items
	w.mu.Unlock()
}

func (w *Wishlist) persistLocal(ctx context.Context, items []domain.WishlistItem) {
	if err := w.local.SaveWishlist(ctx, w.sessionID, items); err != nil {
		w.log.Warn("saving local wishlist failed", zap.Error(err))
	}
}

func (w *Wishlist) snapshotLocked() []domain.WishlistItem {
	out := make([]domain.WishlistItem, len(w.items))
	copy(out, w.items)
	return out
}
