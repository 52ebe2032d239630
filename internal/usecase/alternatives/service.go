// Package alternatives finds cheaper same-category products within a score
// tolerance band of a target product.
package alternatives

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/comparely/shopmatch/internal/domain"
)

const (
	// DefaultScoreTolerance is the fraction below the target score still
	// accepted as an alternative.
	DefaultScoreTolerance = 0.10

	// DefaultLimit bounds the result size when the caller passes none.
	DefaultLimit = 10
	// MaxLimit caps caller-supplied limits.
	MaxLimit = 50
)

// Service answers alternative-product queries.
type Service struct {
	repo      Repository
	tolerance float64
	logger    *zap.Logger
}

// New creates an alternatives service with the default tolerance band.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, tolerance: DefaultScoreTolerance, logger: logger}
}

// WithScoreTolerance overrides the tolerance band.
func (s *Service) WithScoreTolerance(t float64) *Service {
	if t >= 0 && t < 1 {
		s.tolerance = t
	}
	return s
}

// Find returns same-category products with price <= maxPrice and final
// score within the tolerance band below targetScore, ordered best-first
// (final score descending, then price ascending so cheaper wins among
// equals). No match yields an empty slice, not an error.
func (s *Service) Find(
	ctx context.Context, category domain.Category,
	targetScore, maxPrice float64, limit int,
) ([]domain.Product, error) {
	if category == "" {
		return nil, fmt.Errorf("category is required: %w", domain.ErrInvalidInput)
	}
	if maxPrice < 0 {
		return nil, fmt.Errorf("max price must be non-negative: %w", domain.ErrInvalidInput)
	}
	if targetScore < 0 || targetScore > 100 {
		return nil, fmt.Errorf("target score %v out of [0,100]: %w", targetScore, domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	minScore := targetScore * (1 - s.tolerance)

	products, err := s.repo.FindAlternatives(ctx, category, maxPrice, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("find alternatives: %w", err)
	}

	s.logger.Debug("Found alternatives",
		zap.String("category", string(category)),
		zap.Float64("min_score", minScore),
		zap.Float64("max_price", maxPrice),
		zap.Int("count", len(products)))

	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}
