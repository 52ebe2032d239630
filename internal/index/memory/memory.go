// Package memory implements the embedding index as a flat in-memory table
// with brute-force cosine similarity. Exact, O(n) per query; the reference
// backend for correctness checks and small catalogs.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/comparely/shopmatch/internal/domain"
	"github.com/comparely/shopmatch/internal/index"
)

// normEpsilon guards the zero-norm edge case in cosine similarity.
const normEpsilon = 1e-10

// Index is a brute-force in-memory embedding index. Safe for concurrent
// use; queries run under the read lock, writes under the write lock.
type Index struct {
	mu      sync.RWMutex
	entries map[int64]index.Entry
}

var _ index.Index = (*Index)(nil)

// New creates an empty in-memory index.
func New() *Index {
	return &Index{entries: make(map[int64]index.Entry)}
}

// Upsert inserts or replaces the entry for e.ID.
func (x *Index) Upsert(_ context.Context, e index.Entry) error {
	if len(e.Vector) == 0 {
		return fmt.Errorf("empty vector for id %d: %w", e.ID, domain.ErrInvalidInput)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries[e.ID] = e
	return nil
}

// DeleteAll removes a batch of ids.
func (x *Index) DeleteAll(_ context.Context, ids []int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, id := range ids {
		delete(x.entries, id)
	}
	return nil
}

// ReplaceAll builds a fresh table and swaps it in one assignment, so
// concurrent queries see either the old or the new index, never a mix.
func (x *Index) ReplaceAll(_ context.Context, entries []index.Entry) error {
	fresh := make(map[int64]index.Entry, len(entries))
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("empty vector for id %d: %w", e.ID, domain.ErrInvalidInput)
		}
		fresh[e.ID] = e
	}

	x.mu.Lock()
	x.entries = fresh
	x.mu.Unlock()
	return nil
}

// Query scores every stored vector against the query by cosine similarity
// and returns the top k, ties broken by ascending id for determinism.
func (x *Index) Query(_ context.Context, vector []float32, k int) ([]index.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive: %w", domain.ErrInvalidInput)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query vector: %w", domain.ErrInvalidInput)
	}

	x.mu.RLock()
	neighbors := make([]index.Neighbor, 0, len(x.entries))
	for id, e := range x.entries {
		neighbors = append(neighbors, index.Neighbor{
			ID:         id,
			Similarity: cosine(e.Vector, vector),
			Meta:       e.Meta,
		})
	}
	x.mu.RUnlock()

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].ID < neighbors[j].ID
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// Count returns the number of stored entries.
func (x *Index) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries), nil
}

// cosine computes dot(a,b) / (|a|*|b| + eps). The epsilon keeps a zero-norm
// vector from dividing by zero; such a vector scores 0 against everything.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + normEpsilon)
}
