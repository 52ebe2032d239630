package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/comparely/shopmatch/internal/domain"
	"github.com/comparely/shopmatch/internal/index"
)

var _ index.Index = (*Index)(nil)

// Hash field names. Only the vector field is indexed; metadata fields are
// plain hash attributes loaded via RETURN.
const (
	fieldVector   = "vector"
	fieldName     = "name"
	fieldCategory = "category"
	fieldPrice    = "price"
	fieldRating   = "rating"
	fieldPlatform = "platform"
	fieldDocument = "document"
	fieldScore    = "__vector_score"
)

// EnsureIndex creates the FT index if it does not exist yet.
func (x *Index) EnsureIndex(ctx context.Context) error {
	args := []string{
		x.indexName,
		"ON", "HASH",
		"PREFIX", "1", x.keyPrefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW",
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(x.dim),
		"DISTANCE_METRIC", "COSINE",
	}
	if x.hnswM > 0 {
		attrs = append(attrs, "M", strconv.Itoa(x.hnswM))
	}
	if x.hnswEF > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(x.hnswEF))
	}
	args = append(args, strconv.Itoa(len(attrs)))
	args = append(args, attrs...)

	cmd := x.client.B().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := x.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return fmt.Errorf("ft.create %s: %w: %w", x.indexName, err, domain.ErrBackendUnavailable)
	}
	return nil
}

// Upsert writes the entry hash; HSET replaces existing fields, so repeated
// calls for the same id leave exactly one entry.
func (x *Index) Upsert(ctx context.Context, e index.Entry) error {
	if len(e.Vector) == 0 {
		return fmt.Errorf("empty vector for id %d: %w", e.ID, domain.ErrInvalidInput)
	}

	cmd := x.upsertCmd(e)
	if err := x.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("hset %s: %w: %w", x.key(e.ID), err, domain.ErrBackendUnavailable)
	}
	return nil
}

// DeleteAll removes a batch of ids in a single pipelined round trip.
func (x *Index) DeleteAll(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(ids))
	for i, id := range ids {
		cmds[i] = x.client.B().Del().Key(x.key(id)).Build()
	}

	for i, res := range x.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("del %s: %w: %w", x.key(ids[i]), err, domain.ErrBackendUnavailable)
		}
	}
	return nil
}

// ReplaceAll swaps the whole index: existing product keys are deleted and
// the new entries written in one pipelined round trip, after making sure the
// FT index exists. Concurrent readers never observe a partially deleted
// index across separate round trips.
func (x *Index) ReplaceAll(ctx context.Context, entries []index.Entry) error {
	if err := x.EnsureIndex(ctx); err != nil {
		return err
	}

	oldKeys, err := x.scanKeys(ctx)
	if err != nil {
		return err
	}

	cmds := make([]rueidis.Completed, 0, len(oldKeys)+len(entries))
	for _, key := range oldKeys {
		cmds = append(cmds, x.client.B().Del().Key(key).Build())
	}
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("empty vector for id %d: %w", e.ID, domain.ErrInvalidInput)
		}
		cmds = append(cmds, x.upsertCmd(e))
	}

	if len(cmds) == 0 {
		return nil
	}

	for _, res := range x.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("replace all: %w: %w", err, domain.ErrBackendUnavailable)
		}
	}
	return nil
}

// Query runs a KNN search and converts returned cosine distances into
// similarities via 1/(1+distance).
func (x *Index) Query(ctx context.Context, vector []float32, k int) ([]index.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive: %w", domain.ErrInvalidInput)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query vector: %w", domain.ErrInvalidInput)
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @%s $BLOB]", k, fieldVector)
	args := []string{
		x.indexName, queryStr,
		"RETURN", "7",
		fieldScore, fieldName, fieldCategory, fieldPrice, fieldRating, fieldPlatform, fieldDocument,
		"SORTBY", fieldScore,
		"LIMIT", "0", strconv.Itoa(k),
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	}

	cmd := x.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := x.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("ft.search %s: %w: %w", x.indexName, err, domain.ErrBackendUnavailable)
	}

	return x.parseNeighbors(raw)
}

// Count returns the indexed entry count via FT.SEARCH with LIMIT 0 0.
func (x *Index) Count(ctx context.Context) (int, error) {
	cmd := x.client.B().Arbitrary("FT.SEARCH").Args(x.indexName, "*", "LIMIT", "0", "0").Build()
	raw, err := x.client.Do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return 0, nil
		}
		return 0, fmt.Errorf("ft.search count: %w: %w", err, domain.ErrBackendUnavailable)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

func (x *Index) key(id int64) string {
	return x.keyPrefix + strconv.FormatInt(id, 10)
}

func (x *Index) upsertCmd(e index.Entry) rueidis.Completed {
	return x.client.B().Hset().Key(x.key(e.ID)).FieldValue().
		FieldValue(fieldVector, vectorToBytes(e.Vector)).
		FieldValue(fieldName, e.Meta.Name).
		FieldValue(fieldCategory, e.Meta.Category).
		FieldValue(fieldPrice, strconv.FormatFloat(e.Meta.Price, 'f', -1, 64)).
		FieldValue(fieldRating, strconv.FormatFloat(e.Meta.Rating, 'f', -1, 64)).
		FieldValue(fieldPlatform, e.Meta.Platform).
		FieldValue(fieldDocument, e.Meta.Document).
		Build()
}

// scanKeys iterates all product keys under the configured prefix.
func (x *Index) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := x.client.B().Scan().Cursor(cursor).Match(x.keyPrefix + "*").Count(100).Build()
		res, err := x.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("scan: %w: %w", err, domain.ErrBackendUnavailable)
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	// The FT index key itself is not under the prefix, but guard anyway.
	filtered := keys[:0]
	for _, k := range keys {
		if k != x.indexName {
			filtered = append(filtered, k)
		}
	}
	return filtered, nil
}

// parseNeighbors converts the RESP2 FT.SEARCH reply
// [total, key1, fields1, key2, fields2, ...] into neighbors sorted by
// similarity descending.
func (x *Index) parseNeighbors(raw []rueidis.RedisMessage) ([]index.Neighbor, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	neighbors := make([]index.Neighbor, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fieldsArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		id, err := strconv.ParseInt(strings.TrimPrefix(key, x.keyPrefix), 10, 64)
		if err != nil {
			continue
		}

		fields := parseFieldPairs(fieldsArr)

		n := index.Neighbor{ID: id}
		if distStr, ok := fields[fieldScore]; ok {
			if dist, perr := strconv.ParseFloat(distStr, 64); perr == nil {
				n.Similarity = distanceToSimilarity(dist)
			}
		}
		n.Meta = index.Metadata{
			Name:     fields[fieldName],
			Category: fields[fieldCategory],
			Platform: fields[fieldPlatform],
			Document: fields[fieldDocument],
		}
		n.Meta.Price, _ = strconv.ParseFloat(fields[fieldPrice], 64)
		n.Meta.Rating, _ = strconv.ParseFloat(fields[fieldRating], 64)

		neighbors = append(neighbors, n)
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Similarity > neighbors[j].Similarity
	})
	return neighbors, nil
}

// parseFieldPairs converts a flat [k1, v1, k2, v2, ...] reply into a map.
func parseFieldPairs(arr []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(arr)/2)
	for i := 0; i+1 < len(arr); i += 2 {
		k, err := arr[i].ToString()
		if err != nil {
			continue
		}
		v, err := arr[i+1].ToString()
		if err != nil {
			continue
		}
		fields[k] = v
	}
	return fields
}
