package basket

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sheks-house/storefront/internal/domain/product"
)

// Service reconciles basket state between the database and the cache. Every
// mutation writes through to the database first, then invalidates the cache;
// reads go cache-first with singleflight collapsing concurrent misses.
type Service struct {
	repo     Repository
	products product.Repository
	cache    Cache
	sfg      singleflight.Group
}

// NewService creates a basket Service. cache may be a no-op implementation.
func NewService(repo Repository, products product.Repository, cache Cache) *Service {
	return &Service{repo: repo, products: products, cache: cache}
}

// Load fetches the user's basket. Cache failures are logged and fall through
// to the database: the rows are authoritative.
func (s *Service) Load(ctx context.Context, userID string) ([]Line, error) {
	v, err, _ := s.sfg.Do(userID, func() (any, error) {
		lines, err := s.cache.Get(ctx, userID)
		if err == nil {
			return lines, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			zctx.From(ctx).Warn("Basket cache read failed", zap.Error(err))
		}

		lines, err = s.repo.List(ctx, userID)
		if err != nil {
			return nil, errors.Wrap(err, "list basket lines")
		}

		if err := s.cache.Set(ctx, userID, lines); err != nil {
			zctx.From(ctx).Warn("Basket cache write failed", zap.Error(err))
		}
		return lines, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Line), nil
}

// Add upserts a line: an existing (user, product) row gains qty, otherwise a
// new row is created. The combined quantity is checked against the product's
// current stock before the write.
func (s *Service) Add(ctx context.Context, userID, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	current, err := s.repo.Quantity(ctx, userID, productID)
	if err != nil {
		return errors.Wrap(err, "current quantity")
	}
	if current+qty > p.Stock {
		return &InsufficientStockError{ProductID: productID, Available: p.Stock - current}
	}

	if err := s.repo.Upsert(ctx, userID, productID, qty); err != nil {
		return errors.Wrap(err, "upsert basket line")
	}
	s.invalidate(ctx, userID)
	return nil
}

// SetQuantity replaces a line's quantity. Zero removes the line; a negative
// value is rejected without touching stored state. Increases are checked
// against current stock and rejected before any write.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}
	if qty == 0 {
		return s.Remove(ctx, userID, productID)
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if qty > p.Stock {
		return &InsufficientStockError{ProductID: productID, Available: p.Stock}
	}

	if err := s.repo.SetQuantity(ctx, userID, productID, qty); err != nil {
		return errors.Wrap(err, "set basket quantity")
	}
	s.invalidate(ctx, userID)
	return nil
}

// Remove deletes a line from both the database and the cache.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	if err := s.repo.Delete(ctx, userID, productID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Clear deletes every line for the user. Used when an order completes.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.DeleteAll(ctx, userID); err != nil {
		return errors.Wrap(err, "clear basket")
	}
	s.invalidate(ctx, userID)
	return nil
}

// Count returns the sum of quantities across the user's lines. It is always
// recomputed from the line list so it cannot drift from it.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	lines, err := s.Load(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, userID); err != nil {
		zctx.From(ctx).Warn("Basket cache invalidation failed",
			zap.String("user_id", userID), zap.Error(err))
	}
}
