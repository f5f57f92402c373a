package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucier-dev/saucier/internal/models"
	"github.com/saucier-dev/saucier/internal/service"
	"github.com/saucier-dev/saucier/internal/vectorstore/memory"
)

// constEmbedder is safe under concurrent workers.
type constEmbedder struct {
	calls atomic.Int64
}

func (e *constEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	return []float32{1, 0}, nil
}

func testRecipes(n int) []models.Recipe {
	recipes := make([]models.Recipe, 0, n)
	for i := 0; i < n; i++ {
		recipes = append(recipes, models.Recipe{
			Key:         fmt.Sprintf("recipe-%d", i),
			Name:        fmt.Sprintf("Recipe %d", i),
			Ingredients: []string{"salt", "pepper"},
		})
	}
	return recipes
}

func TestUpload(t *testing.T) {
	store := memory.New()
	emb := &constEmbedder{}
	svc := service.NewIngestService(store, emb, service.IngestOptions{Concurrency: 3})

	var mu sync.Mutex
	var lastDone, lastTotal int

	err := svc.Upload(context.Background(), testRecipes(10), func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if done > lastDone {
			lastDone = done
		}
		lastTotal = total
	})
	require.NoError(t, err)

	assert.Equal(t, 10, store.Len())
	assert.Equal(t, int64(10), emb.calls.Load())
	assert.Equal(t, 10, lastDone)
	assert.Equal(t, 10, lastTotal)

	rec, err := store.Get(context.Background(), "recipe-3")
	require.NoError(t, err)
	assert.Contains(t, rec.Text, "Recipe 3")
}

func TestUploadEmptyBatch(t *testing.T) {
	svc := service.NewIngestService(memory.New(), &constEmbedder{}, service.IngestOptions{})
	require.NoError(t, svc.Upload(context.Background(), nil, nil))
}

func TestUploadMissingKey(t *testing.T) {
	store := memory.New()
	svc := service.NewIngestService(store, &constEmbedder{}, service.IngestOptions{})

	err := svc.Upload(context.Background(), []models.Recipe{{Name: "No Key"}}, nil)
	assert.Error(t, err)
}

func TestUploadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := service.NewIngestService(memory.New(), &constEmbedder{}, service.IngestOptions{RateLimit: 1})
	err := svc.Upload(ctx, testRecipes(5), nil)
	assert.Error(t, err)
}
