package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/comparely/shopmatch/internal/domain"
	"github.com/comparely/shopmatch/internal/index/memory"
)

// --- Mocks ---

type mockCatalog struct {
	products map[int64]domain.Product
	getErr   error
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	if m.getErr != nil {
		return domain.Product{}, m.getErr
	}
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockCatalog) GetProducts(_ context.Context, ids []int64) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalog) ListDescribed(_ context.Context) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.products {
		if p.HasDescription() {
			out = append(out, p)
		}
	}
	return out, nil
}

// stubEmbedder maps texts to fixed vectors. Unknown texts get a distinct
// axis so every product is embeddable.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (e *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{0, 0, 1}, TotalTokens: 1}, nil
}

func fixtureCatalog() *mockCatalog {
	return &mockCatalog{products: map[int64]domain.Product{
		1: {ID: 1, Name: "Studio Cans", Category: domain.CategoryHeadphones, Price: 200,
			Rating: 4.5, Platform: "amazon", Description: "Closed-back studio headphones"},
		2: {ID: 2, Name: "Travel Buds", Category: domain.CategoryHeadphones, Price: 90,
			Rating: 4.0, Platform: "flipkart", Description: "Wireless earbuds for travel"},
		3: {ID: 3, Name: "DJ Set", Category: domain.CategoryHeadphones, Price: 350,
			Rating: 4.8, Platform: "amazon", Description: "DJ monitoring headphones"},
		4: {ID: 4, Name: "Mystery Box", Category: domain.CategoryGeneral, Price: 10,
			Rating: 3.0, Platform: "amazon", Description: ""},
	}}
}

func fixtureEmbedder(catalog *mockCatalog) *stubEmbedder {
	vectors := map[string][]float32{
		catalog.products[1].EmbedText(): {1, 0, 0},
		catalog.products[2].EmbedText(): {0.9, 0.1, 0},
		catalog.products[3].EmbedText(): {0.5, 0.5, 0},
	}
	return &stubEmbedder{vectors: vectors}
}

func newService(t *testing.T) (*Service, *mockCatalog) {
	t.Helper()
	catalog := fixtureCatalog()
	svc := New(catalog, fixtureEmbedder(catalog), memory.New(), zap.NewNop())

	if _, err := svc.ReindexAll(context.Background()); err != nil {
		t.Fatalf("ReindexAll: %v", err)
	}
	return svc, catalog
}

func TestRecommendExcludesSelf(t *testing.T) {
	svc, _ := newService(t)

	for _, k := range []int{1, 2, 5} {
		recs, err := svc.Recommend(context.Background(), 1, k)
		if err != nil {
			t.Fatalf("Recommend(k=%d): %v", k, err)
		}
		for _, r := range recs {
			if r.ProductID == 1 {
				t.Errorf("k=%d: product recommended to itself", k)
			}
		}
		if len(recs) > k {
			t.Errorf("k=%d: got %d recommendations", k, len(recs))
		}
	}
}

func TestRecommendOrdersBySimilarity(t *testing.T) {
	svc, _ := newService(t)

	recs, err := svc.Recommend(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	// Product 2's vector is nearly parallel to product 1's; product 3 is 45 degrees off.
	if recs[0].ProductID != 2 || recs[1].ProductID != 3 {
		t.Errorf("order = [%d %d], want [2 3]", recs[0].ProductID, recs[1].ProductID)
	}
	if recs[0].Similarity < recs[1].Similarity {
		t.Errorf("similarities not descending: %v then %v", recs[0].Similarity, recs[1].Similarity)
	}
}

func TestRecommendEnrichesFromCatalog(t *testing.T) {
	svc, catalog := newService(t)

	recs, err := svc.Recommend(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}

	want := catalog.products[recs[0].ProductID]
	r := recs[0]
	if r.Name != want.Name || r.Price != want.Price || r.Rating != want.Rating ||
		r.Platform != want.Platform || r.Category != want.Category {
		t.Errorf("recommendation %+v does not match catalog row %+v", r, want)
	}
	if r.Similarity < 0 || r.Similarity > 1 {
		t.Errorf("similarity %v out of [0,1]", r.Similarity)
	}
}

func TestRecommendDropsStaleIndexEntries(t *testing.T) {
	svc, catalog := newService(t)

	// Deleted from the catalog after indexing.
	delete(catalog.products, 2)

	recs, err := svc.Recommend(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, r := range recs {
		if r.ProductID == 2 {
			t.Error("stale neighbor leaked into recommendations")
		}
	}
}

func TestRecommendNoDescription(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Recommend(context.Background(), 4, 3)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecommendUnknownProduct(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Recommend(context.Background(), 999, 3)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecommendEmbedderFailure(t *testing.T) {
	catalog := fixtureCatalog()
	embedder := &stubEmbedder{err: errors.New("rate limited")}
	svc := New(catalog, embedder, memory.New(), zap.NewNop())

	if _, err := svc.Recommend(context.Background(), 1, 3); err == nil {
		t.Error("expected embedder error to propagate")
	}
}

func TestPreviewTruncation(t *testing.T) {
	catalog := fixtureCatalog()
	long := strings.Repeat("x", 150)
	catalog.products[2] = domain.Product{
		ID: 2, Name: "Travel Buds", Category: domain.CategoryHeadphones,
		Rating: 4.0, Description: long,
	}
	svc := New(catalog, fixtureEmbedder(fixtureCatalog()), memory.New(), zap.NewNop())
	if _, err := svc.ReindexAll(context.Background()); err != nil {
		t.Fatalf("ReindexAll: %v", err)
	}

	recs, err := svc.Recommend(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, r := range recs {
		if r.ProductID != 2 {
			continue
		}
		if len([]rune(r.DescriptionPreview)) != domain.PreviewLength+3 {
			t.Errorf("preview length = %d runes, want %d plus ellipsis",
				len([]rune(r.DescriptionPreview)), domain.PreviewLength)
		}
		if !strings.HasSuffix(r.DescriptionPreview, "...") {
			t.Errorf("preview %q not ellipsis-terminated", r.DescriptionPreview)
		}
	}
}

func TestReindexAllCountsDescribedOnly(t *testing.T) {
	catalog := fixtureCatalog()
	svc := New(catalog, fixtureEmbedder(catalog), memory.New(), zap.NewNop())

	n, err := svc.ReindexAll(context.Background())
	if err != nil {
		t.Fatalf("ReindexAll: %v", err)
	}
	// Product 4 has no description and is skipped.
	if n != 3 {
		t.Errorf("indexed %d products, want 3", n)
	}
}

func TestReindexAllIsIdempotent(t *testing.T) {
	catalog := fixtureCatalog()
	idx := memory.New()
	svc := New(catalog, fixtureEmbedder(catalog), idx, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.ReindexAll(ctx); err != nil {
			t.Fatalf("ReindexAll #%d: %v", i+1, err)
		}
	}

	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("index holds %d entries after double reindex, want 3", count)
	}
}

func TestIndexOne(t *testing.T) {
	catalog := fixtureCatalog()
	idx := memory.New()
	svc := New(catalog, fixtureEmbedder(catalog), idx, zap.NewNop())
	ctx := context.Background()

	if err := svc.IndexOne(ctx, 1); err != nil {
		t.Fatalf("IndexOne: %v", err)
	}
	if err := svc.IndexOne(ctx, 1); err != nil {
		t.Fatalf("IndexOne repeat: %v", err)
	}

	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("index holds %d entries, want 1", count)
	}

	if err := svc.IndexOne(ctx, 4); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput for undescribed product", err)
	}
}

func TestWithLimits(t *testing.T) {
	svc, _ := newService(t)
	svc.WithLimits(1, 2)

	recs, err := svc.Recommend(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("default k: got %d recommendations, want 1", len(recs))
	}

	recs, err = svc.Recommend(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) > 2 {
		t.Errorf("capped k: got %d recommendations, want at most 2", len(recs))
	}
}
