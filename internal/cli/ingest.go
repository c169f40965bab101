package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/ats-matcher/internal/services"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200

	defaultDocType = "ats_guideline"
)

type ingestOptions struct {
	docType string
}

func newIngestCommand(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest PATH...",
		Short: "Embed screening guideline documents into the Qdrant collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			gemini, err := services.NewGeminiService(ctx, cfg.Gemini, log)
			if err != nil {
				return err
			}

			index, err := services.NewGuidelineIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
			if err != nil {
				return err
			}
			if err := index.InitCollection(ctx); err != nil {
				return err
			}

			ingester := &guidelineIngester{
				extractor: services.NewTextExtractor(log),
				chunker:   services.NewTextChunker(),
				gemini:    gemini,
				index:     index,
				log:       log,
			}

			summary := ingester.ingestAll(ctx, args, opts.docType)
			fmt.Fprintf(cmd.OutOrStdout(), "ingested %d documents (%d chunks), %d failed\n",
				summary.documents, summary.chunks, summary.failed)

			if summary.failed > 0 {
				return fmt.Errorf("%d documents failed to ingest", summary.failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.docType, "type", "t", defaultDocType, "document type stored with each chunk")

	return cmd
}

type guidelineIngester struct {
	extractor services.TextExtractor
	chunker   services.TextChunker
	gemini    services.GeminiService
	index     services.GuidelineIndex
	log       *zap.Logger
}

type ingestSummary struct {
	documents int
	chunks    int
	failed    int
}

func (g *guidelineIngester) ingestAll(ctx context.Context, paths []string, docType string) ingestSummary {
	var summary ingestSummary

	for _, path := range paths {
		chunks, err := g.ingest(ctx, path, docType)
		if err != nil {
			g.log.Error("failed to ingest document", zap.String("path", path), zap.Error(err))
			summary.failed++
			continue
		}
		summary.documents++
		summary.chunks += chunks
	}

	return summary
}

// ingest replaces every chunk previously stored for the file, so re-running is idempotent.
func (g *guidelineIngester) ingest(ctx context.Context, path, docType string) (int, error) {
	source := filepath.Base(path)
	log := g.log.With(zap.String("source", source), zap.String("doc_type", docType))

	content, err := g.extractor.ExtractWithMetadata(path)
	if err != nil {
		return 0, err
	}
	log.Info("text extracted", zap.Int("pages", content.PageCount), zap.Int("chars", len(content.Text)))

	chunks := g.chunker.ChunkText(content.Text, chunkSize, chunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks produced from %s", path)
	}

	if err := g.index.DeleteSource(ctx, source); err != nil {
		return 0, fmt.Errorf("clearing previous chunks: %w", err)
	}

	stored := 0
	for i, chunk := range chunks {
		embedding, err := g.gemini.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return stored, fmt.Errorf("embedding chunk %d: %w", i+1, err)
		}
		if err := g.index.UpsertChunk(ctx, source, docType, chunk, embedding); err != nil {
			return stored, fmt.Errorf("storing chunk %d: %w", i+1, err)
		}
		stored++
	}

	log.Info("document ingested", zap.Int("chunks", stored))
	return stored, nil
}
