// Package indexer recomputes catalog embeddings from each entity's text
// projection. It runs from the reindex command, never on the query path.
package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"parts-assist/internal/model"
)

const defaultBatchSize = 10

// BatchEmbedder embeds several texts in one provider round trip.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ProductIndex is the slice of the product repository the indexer needs.
type ProductIndex interface {
	ListAll(ctx context.Context) ([]model.Product, error)
	UpsertEmbedding(ctx context.Context, productID uint, vec []float32) error
}

// GuideIndex is the slice of the guide repository the indexer needs.
type GuideIndex interface {
	ListAllWithProducts(ctx context.Context) ([]model.InstallationGuide, error)
	UpsertEmbedding(ctx context.Context, guideID uint, vec []float32) error
}

type Indexer struct {
	embedder  BatchEmbedder
	products  ProductIndex
	guides    GuideIndex
	vectorDim int
	batchSize int
	log       *zap.Logger
}

func New(embedder BatchEmbedder, products ProductIndex, guides GuideIndex, vectorDim, batchSize int, log *zap.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{
		embedder:  embedder,
		products:  products,
		guides:    guides,
		vectorDim: vectorDim,
		batchSize: batchSize,
		log:       log,
	}
}

// ReindexProducts recomputes every product embedding. Returns the number
// of vectors written.
func (ix *Indexer) ReindexProducts(ctx context.Context) (int, error) {
	products, err := ix.products.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	ix.log.Info("reindexing products", zap.Int("count", len(products)))

	written := 0
	for start := 0; start < len(products); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].DocumentText()
		}
		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("embed product batch failed: %w", err)
		}
		if len(vectors) != len(batch) {
			return written, fmt.Errorf("embedding count mismatch: want %d got %d", len(batch), len(vectors))
		}

		for i := range batch {
			if err := ix.checkDim(vectors[i]); err != nil {
				return written, fmt.Errorf("product %s: %w", batch[i].PartNumber, err)
			}
			if err := ix.products.UpsertEmbedding(ctx, batch[i].ID, vectors[i]); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

// ReindexGuides recomputes every installation-guide embedding.
func (ix *Indexer) ReindexGuides(ctx context.Context) (int, error) {
	guides, err := ix.guides.ListAllWithProducts(ctx)
	if err != nil {
		return 0, err
	}
	ix.log.Info("reindexing installation guides", zap.Int("count", len(guides)))

	written := 0
	for start := 0; start < len(guides); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(guides) {
			end = len(guides)
		}
		batch := guides[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].DocumentText()
		}
		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("embed guide batch failed: %w", err)
		}
		if len(vectors) != len(batch) {
			return written, fmt.Errorf("embedding count mismatch: want %d got %d", len(batch), len(vectors))
		}

		for i := range batch {
			if err := ix.checkDim(vectors[i]); err != nil {
				return written, fmt.Errorf("guide %d: %w", batch[i].ID, err)
			}
			if err := ix.guides.UpsertEmbedding(ctx, batch[i].ID, vectors[i]); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

// ReindexAll refreshes products first, then guides.
func (ix *Indexer) ReindexAll(ctx context.Context) (int, error) {
	productCount, err := ix.ReindexProducts(ctx)
	if err != nil {
		return productCount, err
	}
	guideCount, err := ix.ReindexGuides(ctx)
	return productCount + guideCount, err
}

func (ix *Indexer) checkDim(vec []float32) error {
	if ix.vectorDim > 0 && len(vec) != ix.vectorDim {
		return fmt.Errorf("vector dimension %d, want %d", len(vec), ix.vectorDim)
	}
	return nil
}
