package service

import (
	"iter"
	"strings"
)

// ChunkConfig controls windowing of extracted text into chunks.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides the defaults used for ingestion.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    700,
		Overlap: 100,
	}
}

// NormalizeText collapses all runs of whitespace to single spaces and
// trims the result.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// CombineSegments joins extracted segments into a single document,
// dropping blank segments.
func CombineSegments(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		trimmed := strings.TrimSpace(seg)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n")
}

// Chunks yields successive windows of text. Each window is at most
// cfg.Size runes; consecutive windows share cfg.Overlap runes. The
// sequence is restartable.
func Chunks(text string, cfg ChunkConfig) iter.Seq[string] {
	return func(yield func(string) bool) {
		if cfg.Size <= 0 {
			cfg = DefaultChunkConfig()
		}
		overlap := cfg.Overlap
		if overlap < 0 {
			overlap = 0
		}
		if overlap >= cfg.Size {
			overlap = cfg.Size - 1
		}

		runes := []rune(text)
		start := 0
		for start < len(runes) {
			end := start + cfg.Size
			if end > len(runes) {
				end = len(runes)
			}
			if !yield(string(runes[start:end])) {
				return
			}
			if end >= len(runes) {
				return
			}
			start = end - overlap
		}
	}
}

// ChunkList collects Chunks into a slice.
func ChunkList(text string, cfg ChunkConfig) []string {
	var out []string
	for chunk := range Chunks(text, cfg) {
		out = append(out, chunk)
	}
	return out
}
