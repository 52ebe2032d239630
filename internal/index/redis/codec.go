package redis

import (
	"encoding/binary"
	"math"
)

// vectorToBytes packs a float32 vector as little-endian bytes for the
// FT.SEARCH PARAMS blob and the hash field. Vectors are never read back
// from Redis; queries return distances, not blobs.
func vectorToBytes(vec []float32) string {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return string(buf)
}

// distanceToSimilarity converts the cosine distance returned by the index
// into a bounded [0,1] similarity. Strictly decreasing in distance, so rank
// order matches the exact backend's cosine ordering.
func distanceToSimilarity(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}
