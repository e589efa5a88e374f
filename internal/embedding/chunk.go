package embedding

import (
	"iter"
	"strings"
)

const (
	DefaultChunkWords   = 1000
	DefaultOverlapWords = 100
	DefaultMinChars     = 50
)

type chunkConfig struct {
	minChars int
}

type ChunkOption func(*chunkConfig)

// WithMinChars drops windows whose trimmed text has this many characters or fewer.
func WithMinChars(n int) ChunkOption {
	return func(c *chunkConfig) { c.minChars = n }
}

// Chunks splits text on whitespace into windows of maxWords words, consecutive
// windows sharing overlap words. A non-positive maxWords selects DefaultChunkWords.
// Each window starts maxWords-overlap words after the previous one and iteration
// stops once a window reaches the end of the text. An overlap that is not smaller
// than maxWords is clamped so that windows always advance.
func Chunks(text string, maxWords, overlap int, opts ...ChunkOption) iter.Seq[string] {
	cfg := chunkConfig{minChars: DefaultMinChars}
	for _, opt := range opts {
		opt(&cfg)
	}
	if maxWords <= 0 {
		maxWords = DefaultChunkWords
	}
	overlap = max(0, min(overlap, maxWords-1))
	step := maxWords - overlap

	words := strings.Fields(text)
	return func(yield func(string) bool) {
		for start := 0; start < len(words); start += step {
			end := min(start+maxWords, len(words))
			chunk := strings.Join(words[start:end], " ")
			if len([]rune(chunk)) > cfg.minChars {
				if !yield(chunk) {
					return
				}
			}
			if end == len(words) {
				return
			}
		}
	}
}
