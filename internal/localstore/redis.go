package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    30 * 24 * time.Hour,
	}
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *RedisStore) GetCart(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := r.get(ctx, cartKey(sessionID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *RedisStore) SaveCart(ctx context.Context, sessionID string, items []domain.CartItem) error {
	return r.set(ctx, cartKey(sessionID), items)
}

func (r *RedisStore) DeleteCart(ctx context.Context, sessionID string) error {
	return r.del(ctx, cartKey(sessionID))
}

func (r *RedisStore) GetWishlist(ctx context.Context, sessionID string) ([]domain.WishlistItem, error) {
	var items []domain.WishlistItem
	if err := r.get(ctx, wishlistKey(sessionID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *RedisStore) SaveWishlist(ctx context.Context, sessionID string, items []domain.WishlistItem) error {
	return r.set(ctx, wishlistKey(sessionID), items)
}

func (r *RedisStore) DeleteWishlist(ctx context.Context, sessionID string) error {
	return r.del(ctx, wishlistKey(sessionID))
}

func (r *RedisStore) GetSearchHistory(ctx context.Context, sessionID string) ([]string, error) {
	var terms []string
	if err := r.get(ctx, historyKey(sessionID), &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

func (r *RedisStore) SaveSearchHistory(ctx context.Context, sessionID string, terms []string) error {
	return r.set(ctx, historyKey(sessionID), terms)
}

func (r *RedisStore) get(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisStore) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	if err := r.client.Set(ctx, key, string(data), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func wishlistKey(sessionID string) string {
	return fmt.Sprintf("wishlist:%s", sessionID)
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("search_history:%s", sessionID)
}
