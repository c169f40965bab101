package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

const guidelineVectorSize = 768 // text-embedding-004

// GuidelineIndex stores chunks of ATS screening guidelines for retrieval.
type GuidelineIndex interface {
	InitCollection(ctx context.Context) error
	UpsertChunk(ctx context.Context, source, docType, text string, embedding []float32) error
	Search(ctx context.Context, queryEmbedding []float32, limit int) ([]SearchResult, error)
	DeleteSource(ctx context.Context, source string) error
}

type SearchResult struct {
	Source  string
	DocType string
	Text    string
	Score   float32
}

type guidelineIndex struct {
	client         *qdrant.Client
	collectionName string
	log            *zap.Logger
}

func NewGuidelineIndex(urlStr, apiKey, collectionName string, log *zap.Logger) (GuidelineIndex, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &guidelineIndex{
		client:         client,
		collectionName: collectionName,
		log:            log,
	}, nil
}

// InitCollection implements GuidelineIndex.
func (g *guidelineIndex) InitCollection(ctx context.Context) error {
	exists, err := g.client.CollectionExists(ctx, g.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		return nil
	}

	err = g.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: g.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     guidelineVectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	g.log.Info("qdrant collection created", zap.String("collection", g.collectionName))
	return nil
}

// UpsertChunk implements GuidelineIndex.
func (g *guidelineIndex) UpsertChunk(ctx context.Context, source, docType, text string, embedding []float32) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(uuid.New().String()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"source":   source,
			"doc_type": docType,
			"text":     text,
		}),
	}

	_, err := g.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: g.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// Search implements GuidelineIndex.
func (g *guidelineIndex) Search(ctx context.Context, queryEmbedding []float32, limit int) ([]SearchResult, error) {
	points, err := g.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: g.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		results = append(results, SearchResult{
			Source:  payloadString(point.Payload, "source"),
			DocType: payloadString(point.Payload, "doc_type"),
			Text:    payloadString(point.Payload, "text"),
			Score:   point.Score,
		})
	}

	return results, nil
}

// DeleteSource implements GuidelineIndex. Re-ingesting a document calls it first.
func (g *guidelineIndex) DeleteSource(ctx context.Context, source string) error {
	_, err := g.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: g.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("source", source),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete source %q: %w", source, err)
	}

	return nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	return value.GetStringValue()
}

// FormatGuidelineContext renders search hits as a prompt section.
func FormatGuidelineContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Guideline %d (%s, score %.2f) ---\n%s",
			i+1, result.DocType, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
