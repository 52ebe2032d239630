// Package index defines the embedding index contract shared by the
// persistent Redis backend and the in-memory exact backend. Backend
// selection is a deployment-time configuration switch resolved once at
// construction; callers only see this contract.
package index

import "context"

// Metadata is the denormalized product snapshot stored next to a vector.
// It may go stale relative to the catalog; readers that need current values
// must re-fetch them from the catalog store.
type Metadata struct {
	Name     string
	Category string
	Price    float64
	Rating   float64
	Platform string
	Document string
}

// Entry associates one product id with its current embedding.
type Entry struct {
	ID     int64
	Vector []float32
	Meta   Metadata
}

// Neighbor is one nearest-neighbor hit. Similarity is in [0,1], higher is
// more alike, regardless of backend.
type Neighbor struct {
	ID         int64
	Similarity float64
	Meta       Metadata
}

// Index stores exactly one vector per product id and answers
// nearest-neighbor queries, best-first.
type Index interface {
	// Upsert inserts or replaces the entry for its id. Idempotent.
	Upsert(ctx context.Context, e Entry) error

	// DeleteAll removes a batch of ids. Missing ids are not an error.
	DeleteAll(ctx context.Context, ids []int64) error

	// ReplaceAll atomically (from the caller's point of view) replaces the
	// whole index with the given entries. Used by full rebuilds.
	ReplaceAll(ctx context.Context, entries []Entry) error

	// Query returns up to k nearest neighbors ordered by similarity
	// descending. The caller is responsible for excluding the issuing
	// product's own id.
	Query(ctx context.Context, vector []float32, k int) ([]Neighbor, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}
