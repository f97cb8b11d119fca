package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"parts-assist/internal/ai"
	"parts-assist/internal/config"
	"parts-assist/internal/indexer"
	mysqlClient "parts-assist/internal/platform/mysql"
	"parts-assist/internal/repository"

	"go.uber.org/zap"
)

// Rebuilds stored embeddings from the catalog rows. Run after bulk
// catalog imports or after changing the embedding model.
func main() {
	scope := flag.String("scope", "all", "what to reindex: all, products or guides")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	zlog, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("build logger failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("connect mysql failed: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	guideRepo := repository.NewGuideRepository(db)

	client := ai.NewClient()
	embedder := ai.NewEmbedder(client, ai.EmbeddingConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.EmbeddingModel,
	})

	ix := indexer.New(
		embedder,
		productRepo,
		guideRepo,
		cfg.Retrieval.VectorDim,
		cfg.Retrieval.EmbedBatchSize,
		zlog,
	)

	var count int
	switch *scope {
	case "all":
		count, err = ix.ReindexAll(ctx)
	case "products":
		count, err = ix.ReindexProducts(ctx)
	case "guides":
		count, err = ix.ReindexGuides(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown scope %q\n", *scope)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("reindex %s failed: %v", *scope, err)
	}

	log.Printf("reindex %s complete: %d documents embedded", *scope, count)
}
