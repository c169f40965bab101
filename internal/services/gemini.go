package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/ats-matcher/internal/config"
	"alfredoptarigan/ats-matcher/internal/logger"
)

const maxEmbeddingInput = 40000

type GeminiService interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// contentModels is the part of *genai.Models the service uses.
type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type geminiService struct {
	models     contentModels
	modelName  string
	embedModel string
	log        *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg config.GeminiConfig, log *zap.Logger) (GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiService(client.Models, cfg.Model, cfg.EmbedModel, log), nil
}

func newGeminiService(models contentModels, modelName, embedModel string, log *zap.Logger) *geminiService {
	return &geminiService{
		models:     models,
		modelName:  modelName,
		embedModel: embedModel,
		log:        log,
	}
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		g.log.Error("gemini generate failed", zap.String("model", g.modelName), zap.Error(err))
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", errors.New("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			return "", fmt.Errorf("no text content in response (finish reason: %s)", resp.Candidates[0].FinishReason)
		}
		return "", errors.New("no text content in response")
	}

	g.log.Debug("gemini response received",
		zap.String("model", g.modelName),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(text)),
		zap.String("preview", logger.TruncateForLog(text, 120)),
	)

	return text, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = truncateUTF8(text, maxEmbeddingInput)

	result, err := g.models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, errors.New("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
