package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/ats-matcher/internal/config"
)

type fakeModels struct {
	resp       *genai.GenerateContentResponse
	err        error
	gotModel   string
	gotConfig  *genai.GenerateContentConfig
	gotText    string
	embedResp  *genai.EmbedContentResponse
	embedErr   error
	embedInput string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotText = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func (f *fakeModels) EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.embedInput = contents[0].Parts[0].Text
	}
	return f.embedResp, f.embedErr
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestGenerateTextReturnsResponse(t *testing.T) {
	models := &fakeModels{resp: textResponse("summary")}
	svc := newGeminiService(models, "gemini-2.5-flash", "text-embedding-004", zap.NewNop())

	got, err := svc.GenerateText(context.Background(), "prompt body", 0.3)
	if err != nil {
		t.Fatalf("GenerateText error: %v", err)
	}
	if got != "summary" {
		t.Errorf("GenerateText = %q, want summary", got)
	}
	if models.gotModel != "gemini-2.5-flash" {
		t.Errorf("model = %q", models.gotModel)
	}
	if models.gotText != "prompt body" {
		t.Errorf("prompt = %q", models.gotText)
	}
	if models.gotConfig == nil || models.gotConfig.Temperature == nil || *models.gotConfig.Temperature != 0.3 {
		t.Errorf("temperature not forwarded: %+v", models.gotConfig)
	}
}

func TestGenerateTextErrors(t *testing.T) {
	tests := []struct {
		name    string
		models  *fakeModels
		wantErr string
	}{
		{
			name:    "api failure",
			models:  &fakeModels{err: errors.New("service unavailable")},
			wantErr: "service unavailable",
		},
		{
			name:    "nil response",
			models:  &fakeModels{},
			wantErr: "nil response",
		},
		{
			name: "blocked response",
			models: &fakeModels{resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}},
			wantErr: "SAFETY",
		},
		{
			name:    "no candidates",
			models:  &fakeModels{resp: &genai.GenerateContentResponse{}},
			wantErr: "no text content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newGeminiService(tt.models, "m", "e", zap.NewNop())
			_, err := svc.GenerateText(context.Background(), "p", 1)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateEmbedding(t *testing.T) {
	models := &fakeModels{embedResp: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{1, 2, 3}}},
	}}
	svc := newGeminiService(models, "m", "e", zap.NewNop())

	long := strings.Repeat("a", maxEmbeddingInput+100)
	got, err := svc.GenerateEmbedding(context.Background(), long)
	if err != nil {
		t.Fatalf("GenerateEmbedding error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("embedding length = %d, want 3", len(got))
	}
	if len(models.embedInput) != maxEmbeddingInput {
		t.Errorf("input not truncated: %d", len(models.embedInput))
	}
}

func TestGenerateEmbeddingTruncatesOnRuneBoundary(t *testing.T) {
	models := &fakeModels{embedResp: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{1}}},
	}}
	svc := newGeminiService(models, "m", "e", zap.NewNop())

	// "é" is two bytes and straddles the limit.
	text := strings.Repeat("a", maxEmbeddingInput-1) + "é" + "tail"
	if _, err := svc.GenerateEmbedding(context.Background(), text); err != nil {
		t.Fatalf("GenerateEmbedding error: %v", err)
	}

	if !utf8.ValidString(models.embedInput) {
		t.Error("truncated input is not valid UTF-8")
	}
	if len(models.embedInput) != maxEmbeddingInput-1 {
		t.Errorf("input length = %d, want %d", len(models.embedInput), maxEmbeddingInput-1)
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short", "abc", 5, "abc"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"inside rune", "aé", 2, "a"},
		{"after rune", "aéb", 3, "aé"},
		{"three byte rune", "€€", 4, "€"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateUTF8(tt.in, tt.limit); got != tt.want {
				t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestGenerateEmbeddingEmpty(t *testing.T) {
	svc := newGeminiService(&fakeModels{embedResp: &genai.EmbedContentResponse{}}, "m", "e", zap.NewNop())
	if _, err := svc.GenerateEmbedding(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty embedding result")
	}
}

func TestNewGeminiServiceRequiresKey(t *testing.T) {
	if _, err := NewGeminiService(context.Background(), config.GeminiConfig{APIKey: ""}, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
