package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// DefaultBedrockModel is the Titan text embedding model used when no model
// is configured for the bedrock provider.
const DefaultBedrockModel = "amazon.titan-embed-text-v2:0"

// BedrockConfig configures the Bedrock embedding provider. Credentials come
// from the standard AWS credential chain; nothing is read from process-wide
// mutable state beyond that chain.
type BedrockConfig struct {
	Region    string
	Model     string
	Dimension int
}

// BedrockEmbedder generates embeddings with Amazon Titan text embedding
// models via the Bedrock runtime InvokeModel API.
type BedrockEmbedder struct {
	client    *bedrockruntime.Client
	modelID   string
	dimension int
}

var _ Embedder = (*BedrockEmbedder)(nil)

type titanEmbedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type titanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewBedrockEmbedder creates a Bedrock-backed embedder.
func NewBedrockEmbedder(ctx context.Context, cfg BedrockConfig) (*BedrockEmbedder, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultBedrockModel
	}
	if cfg.Dimension == 0 {
		return nil, fmt.Errorf("bedrock embedder requires an explicit dimension")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &BedrockEmbedder{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		modelID:   cfg.Model,
		dimension: cfg.Dimension,
	}, nil
}

func (e *BedrockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := titanEmbedRequest{InputText: text}
	// Only v2 models accept a requested output dimension.
	if strings.HasPrefix(e.modelID, "amazon.titan-embed-text-v2") {
		req.Dimensions = e.dimension
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke model: %w", err)
	}

	var resp titanEmbedResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(resp.Embedding) != e.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)",
			len(resp.Embedding), e.dimension, e.modelID)
	}
	return resp.Embedding, nil
}

// EmbedBatch embeds texts one by one; the Titan InvokeModel API has no
// batch variant. Input order is preserved.
func (e *BedrockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed %d: %w", i, err)
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (e *BedrockEmbedder) Model() string {
	return e.modelID
}

func (e *BedrockEmbedder) Dimension() int {
	return e.dimension
}
