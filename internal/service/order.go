package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/auth"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderBackend interface {
	InsertOrder(ctx context.Context, o *domain.Order) error
	InsertOrderItems(ctx context.Context, items []domain.OrderItem) error
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}

// OrderDraft carries everything the shopper decided at checkout. Line totals
// arrive precomputed (unit price times quantity).
type OrderDraft struct {
	Status          domain.OrderStatus
	TotalAmount     float64
	DiscountAmount  float64
	ShippingCost    float64
	CouponCode      string
	ShippingAddress domain.Address
	BillingAddress  *domain.Address
	PaymentMethod   string
	PaymentStatus   domain.PaymentStatus
	Notes           string
	Items           []domain.OrderItem
}

type OrderService struct {
	backend OrderBackend
	log     *zap.Logger

	mu     sync.Mutex
	orders map[string][]domain.Order // keyed by user id, newest first
}

func NewOrderService(b OrderBackend, log *zap.Logger) *OrderService {
	return &OrderService{
		backend: b,
		log:     log,
		orders:  make(map[string][]domain.Order),
	}
}

// Create writes the order header, then the line rows. A failure between the
// two leaves the header in place; there is no compensating rollback.
func (s *OrderService) Create(ctx context.Context, user *auth.Identity, draft OrderDraft) (*domain.Order, error) {
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		Status:          draft.Status,
		TotalAmount:     draft.TotalAmount,
		DiscountAmount:  draft.DiscountAmount,
		ShippingCost:    draft.ShippingCost,
		CouponCode:      draft.CouponCode,
		ShippingAddress: draft.ShippingAddress,
		BillingAddress:  draft.BillingAddress,
		PaymentMethod:   draft.PaymentMethod,
		PaymentStatus:   draft.PaymentStatus,
		Notes:           draft.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.Status == "" {
		order.Status = domain.OrderPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = domain.PaymentPending
	}

	if err := s.backend.InsertOrder(ctx, order); err != nil {
		s.log.Warn("creating order failed", zap.Error(err))
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]domain.OrderItem, len(draft.Items))
	for i, it := range draft.Items {
		it.ID = uuid.NewString()
		it.OrderID = order.ID
		items[i] = it
	}
	if err := s.backend.InsertOrderItems(ctx, items); err != nil {
		// Header already exists; accepted partial-failure risk.
		s.log.Error("inserting order items failed, header kept",
			zap.String("order_id", order.ID), zap.Error(err))
		return nil, fmt.Errorf("create order items: %w", err)
	}
	order.Items = items

	if _, err := s.Refresh(ctx, user.ID); err != nil {
		s.log.Warn("reloading orders after create failed", zap.Error(err))
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", user.ID),
		zap.Float64("total", order.TotalAmount))
	return order, nil
}

// UpdateStatus patches the cached copy optimistically after the backend
// update succeeds. On failure the cache keeps whatever it had.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if err := s.backend.UpdateOrderStatus(ctx, orderID, status); err != nil {
		s.log.Warn("updating order status failed",
			zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("update order status: %w", err)
	}

	s.mu.Lock()
	for userID, list := range s.orders {
		for i := range list {
			if list[i].ID == orderID {
				list[i].Status = status
				s.orders[userID] = list
			}
		}
	}
	s.mu.Unlock()

	s.log.Info("order status updated",
		zap.String("order_id", orderID), zap.String("status", string(status)))
	return nil
}

// List returns the user's order history newest-first, loading on first use.
func (s *OrderService) List(ctx context.Context, user *auth.Identity) ([]domain.Order, error) {
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	s.mu.Lock()
	cached, ok := s.orders[user.ID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}
	return s.Refresh(ctx, user.ID)
}

func (s *OrderService) Get(ctx context.Context, user *auth.Identity, orderID string) (*domain.Order, error) {
	orders, err := s.List(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == orderID {
			return &orders[i], nil
		}
	}
	return nil, nil
}

func (s *OrderService) Refresh(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.backend.ListOrders(ctx, userID)
	if err != nil {
		s.log.Warn("loading orders failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("load orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	s.mu.Lock()
	s.orders[userID] = orders
	s.mu.Unlock()
	return orders, nil
}
