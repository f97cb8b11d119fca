// Package retrieval turns a raw customer query into a ranked, cross-
// referenced bundle of catalog facts used to ground the LLM answer.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parts-assist/internal/model"
)

const (
	defaultSearchLimit  = 5
	defaultThreshold    = 0.7
	defaultContextLimit = 3
)

// ErrUnavailable marks infrastructure failures (embedding service or
// catalog store unreachable). It is fatal for the current turn; retry
// policy belongs to the caller.
var ErrUnavailable = errors.New("retrieval unavailable")

// Embedder maps text to a fixed-length vector via the external provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Match is one nearest-neighbor hit, ordered ascending by distance.
type Match struct {
	ProductID uint
	Distance  float64
}

// ProductSource is the slice of the catalog store the search engine needs.
type ProductSource interface {
	// Nearest returns up to k products ordered ascending by distance to
	// the query embedding, optionally restricted to one appliance type.
	Nearest(ctx context.Context, embedding []float32, k int, applianceType string) ([]Match, error)
	// ProductsByID is a single batched lookup keyed by product id.
	ProductsByID(ctx context.Context, ids []uint) (map[uint]model.Product, error)
}

// GuideSource resolves installation-guide text for a batch of products.
type GuideSource interface {
	GuideTextByProductID(ctx context.Context, ids []uint) (map[uint]string, error)
}

// CompatibleModel is one appliance model a product is known to fit.
type CompatibleModel struct {
	ModelNumber string `json:"model_number"`
	Brand       string `json:"brand"`
	Notes       string `json:"notes"`
}

// ProductResult is one ranked search hit with its guide text attached.
// InstallationGuide is nil when the product has no guide.
type ProductResult struct {
	ID                uint              `json:"id"`
	PartNumber        string            `json:"part_number"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	ApplianceType     string            `json:"appliance_type"`
	Price             float64           `json:"price"`
	StockQuantity     int               `json:"stock_quantity"`
	SimilarityScore   float64           `json:"similarity_score"`
	InstallationGuide *string           `json:"installation_guide"`
	CompatibleModels  []CompatibleModel `json:"compatible_models,omitempty"`
}

// SearchInput carries the query and optional tuning. Zero values fall back
// to the engine defaults.
type SearchInput struct {
	Query               string
	Limit               int
	ApplianceType       string
	SimilarityThreshold float64
}

// Engine ranks catalog products against a query by embedding distance.
type Engine struct {
	embedder  Embedder
	products  ProductSource
	guides    GuideSource
	limit     int
	threshold float64
}

func NewEngine(embedder Embedder, products ProductSource, guides GuideSource, defaultLimit int, threshold float64) *Engine {
	if defaultLimit <= 0 {
		defaultLimit = defaultSearchLimit
	}
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Engine{
		embedder:  embedder,
		products:  products,
		guides:    guides,
		limit:     defaultLimit,
		threshold: threshold,
	}
}

// Search embeds the query, ranks products by L2 distance, drops everything
// beyond the similarity threshold, and enriches the survivors with guide
// text in one batched lookup. An empty result is a valid outcome, not an
// error.
func (e *Engine) Search(ctx context.Context, in SearchInput) ([]ProductResult, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, nil
	}

	limit := in.Limit
	if limit <= 0 {
		limit = e.limit
	}
	threshold := in.SimilarityThreshold
	if threshold <= 0 {
		threshold = e.threshold
	}

	// A recognized part number replaces the whole query so the embedding
	// matches the catalog code instead of diffuse prose.
	if tokens := ExtractPartNumbers(query); len(tokens) > 0 {
		query = CanonicalPartQuery(tokens[0])
	}

	queryEmbedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrUnavailable, err)
	}

	matches, err := e.products.Nearest(ctx, queryEmbedding, limit, in.ApplianceType)
	if err != nil {
		return nil, fmt.Errorf("%w: nearest products: %v", ErrUnavailable, err)
	}

	// Hard relevance cutoff; matches arrive ordered ascending so the
	// survivors keep their rank.
	kept := matches[:0]
	for _, m := range matches {
		if m.Distance <= threshold {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(kept))
	for _, m := range kept {
		ids = append(ids, m.ProductID)
	}

	productsByID, err := e.products.ProductsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load products: %v", ErrUnavailable, err)
	}
	guidesByID, err := e.guides.GuideTextByProductID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load installation guides: %v", ErrUnavailable, err)
	}

	results := make([]ProductResult, 0, len(kept))
	for _, m := range kept {
		product, ok := productsByID[m.ProductID]
		if !ok {
			// Product row vanished between the scan and the fetch.
			continue
		}
		result := ProductResult{
			ID:              product.ID,
			PartNumber:      product.PartNumber,
			Name:            product.Name,
			Description:     product.Description,
			ApplianceType:   product.ApplianceType,
			Price:           product.Price,
			StockQuantity:   product.StockQuantity,
			SimilarityScore: m.Distance,
		}
		if guide, ok := guidesByID[m.ProductID]; ok {
			result.InstallationGuide = &guide
		}
		results = append(results, result)
	}
	return results, nil
}
