package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"marblehills.com/app/internal/shopify"
)

// ErrNoProducts: both feeds failed or came back empty. Terminal for the
// product step; the UI renders a retry affordance, we never retry here.
var ErrNoProducts = errors.New("no eligible products available")

// API is the slice of the storefront client the loader needs.
type API interface {
	CollectionProducts(ctx context.Context, handle string) ([]shopify.Product, error)
	Products(ctx context.Context, limit int) ([]shopify.Product, error)
}

type Service struct {
	api API
	log *slog.Logger

	collectionHandle string
	fallbackLimit    int

	mu        sync.Mutex
	cached    *Catalog
	fetchedAt time.Time
	cacheTTL  time.Duration
}

func NewService(api API, l *slog.Logger) *Service {
	return &Service{
		api:              api,
		log:              l,
		collectionHandle: "subscriptions",
		fallbackLimit:    250,
		cacheTTL:         5 * time.Minute,
	}
}

type Category struct {
	Key      string
	Title    string
	Position int // from the -#N tag suffix, 0 when absent
	Products []shopify.Product
}

// Catalog is the classified result of one load. Built fresh every time,
// never persisted.
type Catalog struct {
	Categories []Category // display order
	DefaultKey string     // category shown first, "" when everything is empty
	byID       map[int64]shopify.Product
}

func (c *Catalog) Product(id int64) (shopify.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) Products() []shopify.Product {
	out := make([]shopify.Product, 0, len(c.byID))
	for _, cat := range c.Categories {
		if cat.Key == BestSellersKey {
			continue
		}
		out = append(out, cat.Products...)
	}
	// products only in best-sellers (untagged fallbacks) are still part of
	// the eligible set
	seen := make(map[int64]bool, len(out))
	for _, p := range out {
		seen[p.ID] = true
	}
	for _, cat := range c.Categories {
		if cat.Key != BestSellersKey {
			continue
		}
		for _, p := range cat.Products {
			if !seen[p.ID] {
				out = append(out, p)
			}
		}
	}
	return out
}

// Cached serves the last classified catalog while it is fresh, loading
// anew otherwise. Toggle/variant requests use this so they do not hammer
// the feed; the builder page itself always loads fresh.
func (s *Service) Cached(ctx context.Context) (*Catalog, error) {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.fetchedAt) < s.cacheTTL {
		c := s.cached
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()
	return s.LoadEligibleProducts(ctx)
}

// LoadEligibleProducts fetches the curated feed, falls back to the general
// feed, filters to eligibility-tagged products and classifies them into
// display-ordered categories.
func (s *Service) LoadEligibleProducts(ctx context.Context) (*Catalog, error) {
	products, err := s.api.CollectionProducts(ctx, s.collectionHandle)
	if err != nil || len(products) == 0 {
		if err != nil {
			s.log.LogAttrs(ctx, slog.LevelWarn, "curated_feed_unavailable",
				slog.String("collection", s.collectionHandle),
				slog.Any("err", err),
			)
		}
		products, err = s.api.Products(ctx, s.fallbackLimit)
		if err != nil {
			s.log.LogAttrs(ctx, slog.LevelError, "catalog_feeds_exhausted",
				slog.Any("err", err),
			)
			return nil, ErrNoProducts
		}
	}

	eligible := make([]shopify.Product, 0, len(products))
	for _, p := range products {
		if IsEligible(p.Tags) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoProducts
	}

	cat := Classify(eligible)

	s.mu.Lock()
	s.cached = cat
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return cat, nil
}

// Classify builds the category map from an eligible product list.
// Membership is many-to-many: explicit category tags and the best-seller
// tag are independent; a product with neither lands in best-sellers.
func Classify(products []shopify.Product) *Catalog {
	bestSellers := Category{Key: BestSellersKey, Title: DisplayTitle(BestSellersKey)}
	byKey := map[string]*Category{}
	var order []string // first-encountered order of explicit categories

	byID := make(map[int64]shopify.Product, len(products))

	for _, p := range products {
		byID[p.ID] = p

		refs := ParseCategoryTags(p.Tags)
		for _, ref := range refs {
			cat, ok := byKey[ref.Key]
			if !ok {
				cat = &Category{Key: ref.Key, Title: DisplayTitle(ref.Key)}
				byKey[ref.Key] = cat
				order = append(order, ref.Key)
			}
			if ref.Position > 0 && (cat.Position == 0 || ref.Position < cat.Position) {
				cat.Position = ref.Position
			}
			cat.Products = append(cat.Products, p)
		}

		if len(refs) == 0 || IsBestSeller(p.Tags) {
			bestSellers.Products = append(bestSellers.Products, p)
		}
	}

	cats := sortCategories(bestSellers, byKey, order)

	return &Catalog{
		Categories: cats,
		DefaultKey: defaultKey(cats),
		byID:       byID,
	}
}

// sortCategories: best-sellers first when non-empty, then positioned
// categories ascending by position, then the rest in first-encountered
// order. An empty best-sellers still exists, it just sorts last.
func sortCategories(bestSellers Category, byKey map[string]*Category, order []string) []Category {
	var positioned, plain []Category
	for _, key := range order {
		c := *byKey[key]
		if c.Position > 0 {
			positioned = append(positioned, c)
		} else {
			plain = append(plain, c)
		}
	}
	// stable insertion sort; category counts are tiny
	for i := 1; i < len(positioned); i++ {
		for j := i; j > 0 && positioned[j].Position < positioned[j-1].Position; j-- {
			positioned[j], positioned[j-1] = positioned[j-1], positioned[j]
		}
	}

	out := make([]Category, 0, len(positioned)+len(plain)+1)
	if len(bestSellers.Products) > 0 {
		out = append(out, bestSellers)
	}
	out = append(out, positioned...)
	out = append(out, plain...)
	if len(bestSellers.Products) == 0 {
		out = append(out, bestSellers)
	}
	return out
}

func defaultKey(cats []Category) string {
	for _, c := range cats {
		if len(c.Products) > 0 {
			return c.Key
		}
	}
	return ""
}
