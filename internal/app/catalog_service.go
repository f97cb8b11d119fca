package app

import (
	"context"
	"strings"

	"parts-assist/internal/model"
	"parts-assist/internal/repository"
	"parts-assist/internal/retrieval"
)

// CatalogService fronts the retrieval core for the HTTP layer: it
// validates input, then delegates to the engine and resolver.
type CatalogService struct {
	engine   *retrieval.Engine
	resolver *retrieval.Resolver
	products *repository.ProductRepository
	guides   *repository.GuideRepository
}

func NewCatalogService(
	engine *retrieval.Engine,
	resolver *retrieval.Resolver,
	products *repository.ProductRepository,
	guides *repository.GuideRepository,
) *CatalogService {
	return &CatalogService{
		engine:   engine,
		resolver: resolver,
		products: products,
		guides:   guides,
	}
}

type SearchProductsInput struct {
	Query               string
	Limit               int
	ApplianceType       string
	SimilarityThreshold float64
}

func (s *CatalogService) SearchProducts(ctx context.Context, input SearchProductsInput) ([]retrieval.ProductResult, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, ErrInvalidInput
	}
	results, err := s.engine.Search(ctx, retrieval.SearchInput{
		Query:               input.Query,
		Limit:               input.Limit,
		ApplianceType:       strings.ToUpper(strings.TrimSpace(input.ApplianceType)),
		SimilarityThreshold: input.SimilarityThreshold,
	})
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []retrieval.ProductResult{}
	}
	return results, nil
}

// CheckCompatibility requires both identifiers: a compatibility question
// without a model number is not answerable as a compatibility check.
func (s *CatalogService) CheckCompatibility(ctx context.Context, partNumber, modelNumber string) (retrieval.CompatibilityResult, error) {
	partNumber = strings.TrimSpace(partNumber)
	modelNumber = strings.TrimSpace(modelNumber)
	if partNumber == "" || modelNumber == "" {
		return retrieval.CompatibilityResult{}, ErrInvalidInput
	}
	return s.resolver.Resolve(ctx, partNumber, modelNumber), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, partNumber string) (*model.Product, error) {
	partNumber = strings.ToUpper(strings.TrimSpace(partNumber))
	if partNumber == "" {
		return nil, ErrInvalidInput
	}
	product, err := s.products.GetByPartNumber(ctx, partNumber)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *CatalogService) GetInstallationGuide(ctx context.Context, partNumber string) (*model.InstallationGuide, error) {
	product, err := s.GetProduct(ctx, partNumber)
	if err != nil {
		return nil, err
	}
	guide, err := s.guides.GetByProductID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if guide == nil {
		return nil, ErrGuideNotFound
	}
	return guide, nil
}
