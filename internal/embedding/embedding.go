// Package embedding defines the text->vector boundary long-term memory
// builds on. The embedding model itself is an external collaborator per
// the system's scope (spec §1): this package owns the fixed-dimension
// contract, byte (de)serialization, and cosine similarity, not model
// weights or a network client.
package embedding

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/ownai/ownai-core/internal/errs"
)

// Func embeds a single piece of text into a fixed-dimension vector. Every
// call for the life of a store must return vectors of the same length.
type Func func(ctx context.Context, text string) ([]float32, error)

// Local returns a deterministic, dependency-free Func of the given
// dimension. It stands in for a real model in tests and for instances
// that haven't configured one: same text always yields the same vector,
// and different texts are spread across the unit hypersphere via a
// seeded hash, giving recall something non-degenerate to rank against
// even without a real embedding model wired in.
func Local(dimension int) Func {
	return func(_ context.Context, text string) ([]float32, error) {
		if dimension <= 0 {
			return nil, errs.New(errs.ConfigKind, "embedding dimension must be positive")
		}
		vec := make([]float32, dimension)
		h := fnv.New64a()
		for i := range vec {
			h.Write([]byte{byte(i)})
			h.Write([]byte(text))
			sum := h.Sum64()
			// Map the hash into [-1, 1] deterministically per dimension.
			vec[i] = float32(int64(sum%2000001)-1000000) / 1000000
		}
		return normalize(vec), nil
	}
}

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = f / norm
	}
	return out
}

// Encode packs a vector as raw little-endian float32 bytes, the on-disk
// representation named in the data model.
func Encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode unpacks raw little-endian float32 bytes back into a vector. It
// returns nil if the byte slice isn't a whole number of float32s.
func Decode(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

// CosineSimilarity returns the cosine similarity of two equal-length
// vectors, or 0 for mismatched or empty vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
