package alternatives

import (
	"context"

	"github.com/comparely/shopmatch/internal/domain"
)

// Repository runs the filtered alternatives query against the catalog.
type Repository interface {
	FindAlternatives(
		ctx context.Context, category domain.Category,
		maxPrice, minScore float64, limit int,
	) ([]domain.Product, error)
}
