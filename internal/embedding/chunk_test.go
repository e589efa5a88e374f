package embedding

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWords int
		overlap  int
		opts     []ChunkOption
		want     []string
	}{
		{
			name:     "sliding window with one word overlap",
			text:     "one two three four five",
			maxWords: 3,
			overlap:  1,
			opts:     []ChunkOption{WithMinChars(0)},
			want:     []string{"one two three", "three four five"},
		},
		{
			name:     "default floor discards short windows",
			text:     "one two three four five",
			maxWords: 3,
			overlap:  1,
			want:     nil,
		},
		{
			name:     "text shorter than one window",
			text:     "alpha beta",
			maxWords: 5,
			overlap:  2,
			opts:     []ChunkOption{WithMinChars(0)},
			want:     []string{"alpha beta"},
		},
		{
			name:     "collapses whitespace between words",
			text:     "  a\n\nb\tc   d  ",
			maxWords: 2,
			overlap:  0,
			opts:     []ChunkOption{WithMinChars(0)},
			want:     []string{"a b", "c d"},
		},
		{
			name:     "overlap not smaller than window still advances",
			text:     "a b c",
			maxWords: 2,
			overlap:  5,
			opts:     []ChunkOption{WithMinChars(0)},
			want:     []string{"a b", "b c"},
		},
		{
			name:     "empty text",
			text:     "   ",
			maxWords: 3,
			overlap:  1,
			opts:     []ChunkOption{WithMinChars(0)},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Chunks(tt.text, tt.maxWords, tt.overlap, tt.opts...))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunks_Restartable(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 60)
	seq := Chunks(text, 40, 10)

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
	for _, c := range first {
		assert.Greater(t, len(c), DefaultMinChars)
	}
}

func TestChunks_EarlyBreak(t *testing.T) {
	var got []string
	for c := range Chunks("a b c d e f", 2, 0, WithMinChars(0)) {
		got = append(got, c)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a b", "c d"}, got)
}
