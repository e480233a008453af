package service

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/eluvju/wapp-shop-express/internal/auth"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"go.uber.org/zap"
)

type ReviewBackend interface {
	ListApprovedReviews(ctx context.Context, productID string) ([]domain.ProductReview, error)
	GetReview(ctx context.Context, reviewID string) (*domain.ProductReview, error)
	UpsertReview(ctx context.Context, r *domain.ProductReview) error
	SetHelpfulCount(ctx context.Context, reviewID string, helpfulCount int) error
}

type ReviewSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ReviewService caches approved reviews per product, newest first.
type ReviewService struct {
	backend ReviewBackend
	log     *zap.Logger

	mu        sync.Mutex
	byProduct map[string][]domain.ProductReview
}

func NewReviewService(b ReviewBackend, log *zap.Logger) *ReviewService {
	return &ReviewService{
		backend:   b,
		log:       log,
		byProduct: make(map[string][]domain.ProductReview),
	}
}

func (s *ReviewService) Reviews(productID string) []domain.ProductReview {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byProduct[productID]
	out := make([]domain.ProductReview, len(list))
	copy(out, list)
	return out
}

func (s *ReviewService) Refresh(ctx context.Context, productID string) error {
	reviews, err := s.backend.ListApprovedReviews(ctx, productID)
	if err != nil {
		s.log.Warn("loading reviews failed", zap.String("product_id", productID), zap.Error(err))
		return fmt.Errorf("load reviews: %w", err)
	}

	s.mu.Lock()
	s.byProduct[productID] = reviews
	s.mu.Unlock()
	return nil
}

// Summary derives the mean rating from the cached list on every call,
// rounded to one decimal. No running average is maintained.
func (s *ReviewService) Summary(productID string) ReviewSummary {
	s.mu.Lock()
	list := s.byProduct[productID]
	s.mu.Unlock()

	count := len(list)
	if count == 0 {
		return ReviewSummary{}
	}

	var sum int
	for _, r := range list {
		sum += r.Rating
	}
	average := float64(sum) / float64(count)
	return ReviewSummary{
		Average: math.Round(average*10) / 10,
		Count:   count,
	}
}

// Submit upserts on (product, user): reviewing the same product twice
// replaces the earlier review. Rating bounds are checked here as well since
// the storefront UI is not the only caller.
func (s *ReviewService) Submit(ctx context.Context, user *auth.Identity, productID string, rating int, title, comment string) error {
	if user == nil {
		return ErrNotAuthenticated
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	err := s.backend.UpsertReview(ctx, &domain.ProductReview{
		ProductID:          productID,
		UserID:             user.ID,
		Rating:             rating,
		Title:              title,
		Comment:            comment,
		IsVerifiedPurchase: false,
		IsApproved:         true,
	})
	if err != nil {
		s.log.Warn("submitting review failed", zap.String("product_id", productID), zap.Error(err))
		return fmt.Errorf("submit review: %w", err)
	}

	return s.Refresh(ctx, productID)
}

// IncrementHelpful bumps the counter optimistically in the cache, then does
// a read-current, write-current-plus-one against the backend and reloads the
// product's reviews to reconcile. Interleaved increments from other sessions
// can collapse into one; that is the backend contract, not a bug to paper
// over with a local lock.
func (s *ReviewService) IncrementHelpful(ctx context.Context, reviewID string) error {
	s.mu.Lock()
	for pid, list := range s.byProduct {
		for i := range list {
			if list[i].ID == reviewID {
				list[i].HelpfulCount++
				s.byProduct[pid] = list
			}
		}
	}
	s.mu.Unlock()

	current, err := s.backend.GetReview(ctx, reviewID)
	if err != nil {
		s.log.Warn("reading review for helpful increment failed",
			zap.String("review_id", reviewID), zap.Error(err))
		return fmt.Errorf("increment helpful: %w", err)
	}

	if err := s.backend.SetHelpfulCount(ctx, reviewID, current.HelpfulCount+1); err != nil {
		s.log.Warn("writing helpful count failed",
			zap.String("review_id", reviewID), zap.Error(err))
		return fmt.Errorf("increment helpful: %w", err)
	}

	return s.Refresh(ctx, current.ProductID)
}
