// Package recommend serves similar-product recommendations backed by an
// embedding index, and owns the jobs that keep that index in sync with the
// catalog.
package recommend

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comparely/shopmatch/internal/domain"
	"github.com/comparely/shopmatch/internal/index"
	"github.com/comparely/shopmatch/internal/metrics"
)

const (
	// DefaultK is the recommendation count when the caller passes none.
	DefaultK = 5
	// MaxK caps caller-supplied counts.
	MaxK = 50

	// reindexBatchSize bounds texts per provider call during a full rebuild.
	reindexBatchSize = 64
)

// Service answers similarity queries and runs index maintenance.
//
// The mutex serializes index reads against full rebuilds. Provider calls
// never run under the lock; embeddings are computed first and only the
// index swap or lookup is guarded.
type Service struct {
	mu       sync.RWMutex
	catalog  CatalogReader
	embedder domain.Embedder
	idx      index.Index
	logger   *zap.Logger

	defaultK int
	maxK     int
}

// New creates a recommendation service.
func New(catalog CatalogReader, embedder domain.Embedder, idx index.Index, logger *zap.Logger) *Service {
	return &Service{
		catalog:  catalog,
		embedder: embedder,
		idx:      idx,
		logger:   logger,
		defaultK: DefaultK,
		maxK:     MaxK,
	}
}

// WithLimits overrides the default and maximum recommendation counts.
func (s *Service) WithLimits(defaultK, maxK int) *Service {
	if defaultK > 0 {
		s.defaultK = defaultK
	}
	if maxK >= s.defaultK {
		s.maxK = maxK
	}
	return s
}

// Recommend returns up to k products most similar to the given one, never
// including the product itself. Products without a description cannot be
// embedded and yield ErrNotFound.
func (s *Service) Recommend(ctx context.Context, productID int64, k int) ([]domain.Recommendation, error) {
	if k <= 0 {
		k = s.defaultK
	}
	if k > s.maxK {
		k = s.maxK
	}

	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !p.HasDescription() {
		return nil, fmt.Errorf("product %d has no description: %w", productID, domain.ErrNotFound)
	}

	res, err := s.embedder.Embed(ctx, p.EmbedText())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Ask for one extra: the product is its own nearest neighbor.
	s.mu.RLock()
	neighbors, err := s.idx.Query(ctx, res.Embedding, k+1)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	filtered := neighbors[:0]
	for _, n := range neighbors {
		if n.ID == productID {
			continue
		}
		filtered = append(filtered, n)
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}

	recs, err := s.enrich(ctx, filtered)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Served recommendations",
		zap.Int64("product_id", productID),
		zap.Int("k", k),
		zap.Int("count", len(recs)))
	return recs, nil
}

// enrich re-reads neighbor metadata from the catalog. Index metadata may be
// stale; the catalog row is authoritative. Ids deleted from the catalog
// since the last reindex are dropped from the result.
func (s *Service) enrich(ctx context.Context, neighbors []index.Neighbor) ([]domain.Recommendation, error) {
	if len(neighbors) == 0 {
		return []domain.Recommendation{}, nil
	}

	ids := make([]int64, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.ID
	}

	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("enrich neighbors: %w", err)
	}
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	recs := make([]domain.Recommendation, 0, len(neighbors))
	for _, n := range neighbors {
		p, ok := byID[n.ID]
		if !ok {
			s.logger.Warn("Indexed product missing from catalog",
				zap.Int64("product_id", n.ID))
			continue
		}
		recs = append(recs, domain.Recommendation{
			ProductID:          p.ID,
			Name:               p.Name,
			Category:           p.Category,
			Price:              p.Price,
			Rating:             p.Rating,
			Platform:           p.Platform,
			Similarity:         math.Round(n.Similarity*10000) / 10000,
			DescriptionPreview: domain.Preview(p.Description),
		})
	}
	return recs, nil
}

// IndexOne embeds a single product and upserts it into the index. Products
// without a description are not indexable.
func (s *Service) IndexOne(ctx context.Context, productID int64) error {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if !p.HasDescription() {
		return fmt.Errorf("product %d has no description: %w", productID, domain.ErrInvalidInput)
	}

	res, err := s.embedder.Embed(ctx, p.EmbedText())
	if err != nil {
		return fmt.Errorf("embed product %d: %w", productID, err)
	}

	s.mu.Lock()
	err = s.idx.Upsert(ctx, entryFor(p, res.Embedding))
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("upsert product %d: %w", productID, err)
	}

	s.logger.Debug("Indexed product", zap.Int64("product_id", productID))
	return nil
}

// ReindexAll rebuilds the whole index from the catalog and returns the
// number of products indexed. All embeddings are computed before the index
// is touched, so readers keep seeing the previous generation until the swap.
func (s *Service) ReindexAll(ctx context.Context) (int, error) {
	jobID := uuid.NewString()
	log := s.logger.With(zap.String("job_id", jobID))

	products, err := s.catalog.ListDescribed(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	log.Info("Reindex started", zap.Int("products", len(products)))

	entries := make([]index.Entry, 0, len(products))
	for start := 0; start < len(products); start += reindexBatchSize {
		end := start + reindexBatchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.EmbedText()
		}

		res, err := s.embedBatch(ctx, texts)
		if err != nil {
			metrics.ReindexRunsTotal.WithLabelValues("error").Inc()
			return 0, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(res.Embeddings) != len(batch) {
			return 0, fmt.Errorf("embed batch at %d: got %d vectors for %d texts: %w",
				start, len(res.Embeddings), len(batch), domain.ErrInternal)
		}

		for i, p := range batch {
			entries = append(entries, entryFor(p, res.Embeddings[i]))
		}
	}

	s.mu.Lock()
	err = s.idx.ReplaceAll(ctx, entries)
	s.mu.Unlock()
	if err != nil {
		metrics.ReindexRunsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("replace index: %w", err)
	}

	metrics.ReindexRunsTotal.WithLabelValues("success").Inc()
	metrics.IndexedProducts.Set(float64(len(entries)))
	log.Info("Reindex finished", zap.Int("indexed", len(entries)))
	return len(entries), nil
}

func (s *Service) embedBatch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embedder, texts)
}

func entryFor(p domain.Product, vector []float32) index.Entry {
	return index.Entry{
		ID:     p.ID,
		Vector: vector,
		Meta: index.Metadata{
			Name:     p.Name,
			Category: string(p.Category),
			Price:    p.Price,
			Rating:   p.Rating,
			Platform: p.Platform,
			Document: p.EmbedText(),
		},
	}
}
