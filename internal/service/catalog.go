package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/eluvju/wapp-shop-express/internal/localstore"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type CatalogBackend interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SearchProductsByName(ctx context.Context, term string, limit int) ([]domain.Product, error)
}

type SortKey string

const (
	SortName      SortKey = "name"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNewest    SortKey = "newest"
)

// Query is one filter pass over the loaded catalog. A zero MaxPrice means no
// upper bound; CategoryAll (or empty) matches everything.
type Query struct {
	Search   string
	Category string
	MinPrice float64
	MaxPrice float64
	Sort     SortKey
}

const CategoryAll = "all"

// suggestMinLen and suggestLimit mirror the autocomplete contract: no lookup
// under three characters, at most eight hits.
const (
	suggestMinLen = 3
	suggestLimit  = 8
)

type CatalogService struct {
	backend CatalogBackend
	local   localstore.SessionStore
	log     *zap.Logger
	sfg     singleflight.Group

	mu       sync.Mutex
	products []domain.Product
	loaded   bool
}

func NewCatalogService(b CatalogBackend, local localstore.SessionStore, log *zap.Logger) *CatalogService {
	return &CatalogService{
		backend: b,
		local:   local,
		log:     log,
	}
}

// Load fetches the catalog once; later calls serve the in-memory copy and
// concurrent first loads collapse into a single backend query.
func (s *CatalogService) Load(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	if s.loaded {
		products := s.products
		s.mu.Unlock()
		return products, nil
	}
	s.mu.Unlock()

	v, err, _ := s.sfg.Do("catalog", func() (interface{}, error) {
		return s.backend.ListProducts(ctx)
	})
	if err != nil {
		s.log.Warn("loading products failed", zap.Error(err))
		return nil, fmt.Errorf("load products: %w", err)
	}
	products := v.([]domain.Product)

	s.mu.Lock()
	s.products = products
	s.loaded = true
	s.mu.Unlock()
	return products, nil
}

func (s *CatalogService) Refresh(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
	return s.Load(ctx)
}

// Filter derives the visible product view: case-insensitive substring match
// on name or description, category equality, inclusive price range, then the
// requested ordering. Pure over its inputs; call it on every filter change.
func (s *CatalogService) Filter(products []domain.Product, q Query) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if q.Category != "" && q.Category != CategoryAll && p.Category != q.Category {
			continue
		}
		if p.Price < q.MinPrice {
			continue
		}
		if q.MaxPrice > 0 && p.Price > q.MaxPrice {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortNewest:
		// Products carry no creation timestamp on this surface; reverse
		// name order stands in.
		c := newCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Name, out[j].Name) > 0
		})
	case SortName:
		fallthrough
	default:
		c := newCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Name, out[j].Name) < 0
		})
	}

	return out
}

// newCollator is per call; a Collator carries internal buffers and is not
// safe for concurrent use.
func newCollator() *collate.Collator {
	return collate.New(language.BrazilianPortuguese)
}

// Categories lists the distinct categories of the loaded catalog, sorted.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	products, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var categories []string
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// Suggest backs the search autocomplete. Short terms return nothing rather
// than flooding the backend.
func (s *CatalogService) Suggest(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if len(term) < suggestMinLen {
		return nil, nil
	}

	products, err := s.backend.SearchProductsByName(ctx, term, suggestLimit)
	if err != nil {
		s.log.Warn("product suggestions failed", zap.String("term", term), zap.Error(err))
		return nil, fmt.Errorf("suggest products: %w", err)
	}
	return products, nil
}

// RecordSearch pushes a term onto the session's history: most recent first,
// case-insensitive de-dup, capped at ten. Storage failures are swallowed.
func (s *CatalogService) RecordSearch(ctx context.Context, sessionID, term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}

	history, err := s.local.GetSearchHistory(ctx, sessionID)
	if err != nil && !errors.Is(err, localstore.ErrMiss) {
		s.log.Warn("loading search history failed", zap.Error(err))
	}

	next := make([]string, 0, len(history)+1)
	next = append(next, term)
	for _, h := range history {
		if !strings.EqualFold(h, term) {
			next = append(next, h)
		}
	}
	if len(next) > localstore.HistoryLimit {
		next = next[:localstore.HistoryLimit]
	}

	if err := s.local.SaveSearchHistory(ctx, sessionID, next); err != nil {
		s.log.Warn("saving search history failed", zap.Error(err))
	}
}

func (s *CatalogService) SearchHistory(ctx context.Context, sessionID string) []string {
	history, err := s.local.GetSearchHistory(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, localstore.ErrMiss) {
			s.log.Warn("loading search history failed", zap.Error(err))
		}
		return nil
	}
	return history
}
