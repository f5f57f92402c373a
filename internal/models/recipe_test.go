package models

import (
	"strings"
	"testing"
)

func TestEmbeddingText(t *testing.T) {
	r := Recipe{
		Name:        "Classic Tomato Soup",
		Description: "A simple soup.",
		Ingredients: []string{"tomatoes", "onion"},
		Steps:       []string{"Chop.", "Simmer."},
	}

	got := r.EmbeddingText()
	want := "Classic Tomato Soup\nA simple soup.\ntomatoes\nonion\nChop.\nSimmer."
	if got != want {
		t.Errorf("EmbeddingText() = %q, want %q", got, want)
	}

	if got != r.EmbeddingText() {
		t.Error("EmbeddingText() must be deterministic")
	}
}

func TestEmbeddingTextSparseRecipe(t *testing.T) {
	r := Recipe{Name: "Toast"}

	got := r.EmbeddingText()
	if got != "Toast" {
		t.Errorf("EmbeddingText() = %q, want %q", got, "Toast")
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("EmbeddingText() should trim trailing separators")
	}
}
