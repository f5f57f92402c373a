// Package models defines the domain types shared across services.
package models

import (
	"strings"
	"time"
)

// Recipe is a stored recipe record. The embedding persisted alongside it is
// always derived from EmbeddingText at write time.
type Recipe struct {
	Key              string    `json:"key"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Ingredients      []string  `json:"ingredients"`
	Steps            []string  `json:"steps"`
	Submitted        time.Time `json:"submitted"`
	TotalTimeMinutes int       `json:"total_time_minutes"`
}

// EmbeddingText returns the deterministic textual projection of the recipe
// that is embedded at upsert time. Changing this changes what similarity
// search "sees", so keep it stable.
func (r Recipe) EmbeddingText() string {
	parts := []string{r.Name, r.Description}
	parts = append(parts, r.Ingredients...)
	parts = append(parts, r.Steps...)
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// RecipeMatch is a recipe annotated with its similarity score and cache
// provenance. Score is a cosine distance: lower is more similar.
type RecipeMatch struct {
	Recipe    Recipe  `json:"recipe"`
	Score     float64 `json:"score"`
	FromCache bool    `json:"from_cache"`
}
