package score

import (
	"context"

	"github.com/comparely/shopmatch/internal/domain"
)

// CatalogStore reads products and persists derived scores.
type CatalogStore interface {
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	UpdateDerivedScores(ctx context.Context, id int64, qualityScore, finalScore float64) error
}
