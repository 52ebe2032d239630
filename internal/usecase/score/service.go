// Package score exposes quality and final scoring, plus persistence of the
// derived scores back to the catalog.
package score

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/comparely/shopmatch/internal/domain"
	"github.com/comparely/shopmatch/internal/scoring"
)

// Service wraps the scorer with catalog persistence.
type Service struct {
	scorer  *scoring.Scorer
	catalog CatalogStore
	logger  *zap.Logger
}

// New creates a scoring service.
func New(scorer *scoring.Scorer, catalog CatalogStore, logger *zap.Logger) *Service {
	return &Service{scorer: scorer, catalog: catalog, logger: logger}
}

// Quality computes the 0-100 quality score for raw specs. Degrades to the
// documented fallback instead of failing; an approximate score beats
// aborting the comparison flow.
func (s *Service) Quality(category domain.Category, specs map[string]string) float64 {
	return s.scorer.QualityScore(category, specs)
}

// Final folds a user rating into a quality score. Rating range is validated
// by the caller per the external contract.
func (s *Service) Final(qualityScore, rating float64) float64 {
	return s.scorer.FinalScore(qualityScore, rating)
}

// ScoreProduct recomputes both derived scores for a stored product and
// writes them back, returning the updated product.
func (s *Service) ScoreProduct(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}

	p.QualityScore = s.scorer.QualityScore(p.Category, p.Specs)
	p.FinalScore = s.scorer.FinalScore(p.QualityScore, p.Rating)

	if err := s.catalog.UpdateDerivedScores(ctx, id, p.QualityScore, p.FinalScore); err != nil {
		return domain.Product{}, fmt.Errorf("persist scores: %w", err)
	}

	s.logger.Debug("Scored product",
		zap.Int64("product_id", id),
		zap.Float64("quality_score", p.QualityScore),
		zap.Float64("final_score", p.FinalScore))
	return p, nil
}

// RegisterCategory adds a scorecard for a new category at runtime. Has no
// retroactive effect on already-stored scores.
func (s *Service) RegisterCategory(
	category domain.Category, card scoring.Scorecard, refs map[string]float64,
) error {
	return s.scorer.RegisterCategory(category, card, refs, nil)
}
