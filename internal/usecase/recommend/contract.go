package recommend

import (
	"context"

	"github.com/comparely/shopmatch/internal/domain"
)

// CatalogReader supplies product rows for enrichment and reindexing.
type CatalogReader interface {
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	GetProducts(ctx context.Context, ids []int64) ([]domain.Product, error)
	ListDescribed(ctx context.Context) ([]domain.Product, error)
}
