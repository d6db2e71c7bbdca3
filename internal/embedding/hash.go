package embedding

import (
	"crypto/sha256"
	"math"
)

const (
	// Dimension is the fixed length of every embedding vector in the system.
	Dimension = 256

	// FallbackModelName is used when a tenant has no LLM config.
	FallbackModelName = "hash-fallback"
)

// HashVector returns a deterministic embedding derived from a sha256 digest
// of "{modelName}:{text}". The digest bytes are expanded cyclically to
// Dimension bytes, mapped linearly from [0,255] to [-1,1], and L2-normalized.
// The same model name and text always produce a bit-identical vector, which
// keeps ingestion and retrieval usable with no live model backend.
func HashVector(modelName, text string) []float32 {
	digest := sha256.Sum256([]byte(modelName + ":" + text))

	values := make([]float64, Dimension)
	var sum float64
	for i := range values {
		b := digest[i%len(digest)]
		v := (float64(b)/255.0)*2.0 - 1.0
		values[i] = v
		sum += v * v
	}

	vec := make([]float32, Dimension)
	norm := math.Sqrt(sum)
	if norm == 0 {
		for i, v := range values {
			vec[i] = float32(v)
		}
		return vec
	}
	for i, v := range values {
		vec[i] = float32(v / norm)
	}
	return vec
}

// CosineSimilarity returns the normalized dot product of two vectors.
// It returns exactly 0 if either vector has zero norm.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
