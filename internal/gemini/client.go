// Package gemini implements the extraction inference call on top of the Gemini API.
package gemini

import (
	"context"
	"fmt"

	"github.com/dvloznov/household-ledger/internal/logger"
	"google.golang.org/genai"
)

// Generation parameters used for every extraction call.
const (
	Temperature     float32 = 0.6
	TopP            float32 = 1.0
	MaxOutputTokens int32   = 1024
)

var blockedCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// contentGenerator is the subset of *genai.Models used by Client.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends a single prompt to Gemini and returns the text reply.
type Client struct {
	models contentGenerator
	model  string
	config *genai.GenerateContentConfig
}

// NewClient creates a Gemini API client for the given model.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewClient: create genai client: %w", err)
	}
	return newClient(gc.Models, model), nil
}

func newClient(models contentGenerator, model string) *Client {
	return &Client{
		models: models,
		model:  model,
		config: GenerationConfig(),
	}
}

// GenerationConfig returns the sampling and safety settings for extraction calls.
func GenerationConfig() *genai.GenerateContentConfig {
	safety := make([]*genai.SafetySetting, 0, len(blockedCategories))
	for _, c := range blockedCategories {
		safety = append(safety, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}

	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(Temperature),
		TopP:            genai.Ptr(TopP),
		MaxOutputTokens: MaxOutputTokens,
		SafetySettings:  safety,
	}
}

// Generate implements pipeline.InferenceClient. An empty reply is returned as "" with no
// error so the caller can classify it.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" && resp.PromptFeedback != nil {
		log := logger.FromContext(ctx)
		log.Warn().
			Str("block_reason", string(resp.PromptFeedback.BlockReason)).
			Msg("Gemini returned no text")
	}
	return text, nil
}
