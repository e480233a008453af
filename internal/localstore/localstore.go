// Package localstore persists an anonymous shopper's cart, wishlist and
// search history per session. It carries the semantics of browser local
// storage: best effort, last write wins, and a broken store degrades to
// in-memory-only for that session.
package localstore

import (
	"context"
	"errors"

	"github.com/eluvju/wapp-shop-express/internal/domain"
)

// SessionStore keys everything by an opaque session id.
type SessionStore interface {
	GetCart(ctx context.Context, sessionID string) ([]domain.CartItem, error)
	SaveCart(ctx context.Context, sessionID string, items []domain.CartItem) error
	DeleteCart(ctx context.Context, sessionID string) error

	GetWishlist(ctx context.Context, sessionID string) ([]domain.WishlistItem, error)
	SaveWishlist(ctx context.Context, sessionID string, items []domain.WishlistItem) error
	DeleteWishlist(ctx context.Context, sessionID string) error

	GetSearchHistory(ctx context.Context, sessionID string) ([]string, error)
	SaveSearchHistory(ctx context.Context, sessionID string, terms []string) error
}

var ErrMiss = errors.New("no value for session")

// HistoryLimit caps the search history at the ten most recent terms.
const HistoryLimit = 10
