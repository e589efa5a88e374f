package retrieval

import (
	"math"
	"strings"
	"testing"
)

func TestLexicalScoreBasicMatch(t *testing.T) {
	query := "pricing plans"
	text := "Our pricing covers three plans. Each of the plans includes support and pricing is monthly."
	score := lexicalScore(query, text, "Pricing")

	if score <= 0 {
		t.Fatalf("expected score to be positive, got %f", score)
	}
	if score > maxLexicalScore {
		t.Fatalf("score should be clamped to maxLexicalScore, got %f", score)
	}
}

func TestLexicalScoreTitleBonus(t *testing.T) {
	score := lexicalScore("database", "General context without the keyword.", "Database Layer")

	if math.Abs(float64(score-titleMatchBonus)) > 0.0001 {
		t.Fatalf("expected title bonus only (%f), got %f", titleMatchBonus, score)
	}
}

func TestLexicalScoreStopwordsRemoved(t *testing.T) {
	if score := lexicalScore("the and of", "the and of", ""); score != 0 {
		t.Fatalf("expected score 0 when query tokens are only stopwords, got %f", score)
	}
}

func TestLexicalScoreNormalization(t *testing.T) {
	text := "project " + strings.Repeat(" filler", 200)
	score := lexicalScore("project", text, "")

	if score <= 0 {
		t.Fatalf("expected normalized score to stay positive, got %f", score)
	}
	if score > maxLexicalScore {
		t.Fatalf("expected score to be clamped to %f, got %f", maxLexicalScore, score)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Hello, World! v2.0")
	want := []string{"hello", "world", "v2", "0"}
	if len(got) != len(want) {
		t.Fatalf("tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tokenize()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
