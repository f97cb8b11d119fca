package retrieval

import (
	"context"
	"fmt"
)

// ContextBundle is the per-query retrieval output handed to the generation
// step. The three views are parallel: prompt construction formats guide
// text and compatibility text independently from the product cards.
type ContextBundle struct {
	Products           []ProductResult     `json:"products"`
	InstallationGuides []string            `json:"installation_guides"`
	CompatibilityInfo  [][]CompatibleModel `json:"compatibility_info"`
}

// PartNumbers lists the part numbers surfaced by this bundle, in rank order.
func (b *ContextBundle) PartNumbers() []string {
	parts := make([]string, 0, len(b.Products))
	for _, p := range b.Products {
		parts = append(parts, p.PartNumber)
	}
	return parts
}

// Aggregator builds the full context bundle for one query turn.
type Aggregator struct {
	engine   *Engine
	resolver *Resolver
	limit    int
}

func NewAggregator(engine *Engine, resolver *Resolver, contextLimit int) *Aggregator {
	if contextLimit <= 0 {
		contextLimit = defaultContextLimit
	}
	return &Aggregator{engine: engine, resolver: resolver, limit: contextLimit}
}

// BuildContext runs the search, then enriches every hit with its
// compatibility rows through the resolver. Bundle construction is
// all-or-nothing: if the embedding service or store is down the whole turn
// fails, there is no partial context.
func (a *Aggregator) BuildContext(ctx context.Context, query string) (*ContextBundle, error) {
	products, err := a.engine.Search(ctx, SearchInput{Query: query, Limit: a.limit})
	if err != nil {
		return nil, err
	}

	bundle := &ContextBundle{
		Products:           make([]ProductResult, 0, len(products)),
		InstallationGuides: []string{},
		CompatibilityInfo:  [][]CompatibleModel{},
	}
	for _, product := range products {
		resolved := a.resolver.Resolve(ctx, product.PartNumber, "")
		// An unknown part is a valid empty enrichment; an infra failure
		// during enrichment fails the whole turn like any other.
		if resolved.Reason == ReasonError {
			return nil, fmt.Errorf("%w: resolve compatibility for %s", ErrUnavailable, product.PartNumber)
		}
		product.CompatibleModels = resolved.CompatibleModels

		bundle.Products = append(bundle.Products, product)
		if product.InstallationGuide != nil {
			bundle.InstallationGuides = append(bundle.InstallationGuides, *product.InstallationGuide)
		}
		bundle.CompatibilityInfo = append(bundle.CompatibilityInfo, resolved.CompatibleModels)
	}
	return bundle, nil
}
