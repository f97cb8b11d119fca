package retrieval

import (
	"context"

	"parts-assist/internal/model"
)

// Reasons carried by a negative CompatibilityResult.
const (
	ReasonNotFound = "not_found"
	ReasonError    = "error"
)

// CompatibilitySource fetches every compatibility row for one product.
type CompatibilitySource interface {
	CompatibilityByProduct(ctx context.Context, productID uint) ([]model.ModelCompatibility, error)
}

// ProductDetails is the resolved product summary inside a
// CompatibilityResult.
type ProductDetails struct {
	PartNumber    string `json:"part_number"`
	Name          string `json:"name"`
	ApplianceType string `json:"appliance_type"`
	Description   string `json:"description"`
}

// CompatibilityResult carries facts only. Whether the part actually fits a
// given model is judged by the generation step over the notes; no boolean
// verdict is computed here.
type CompatibilityResult struct {
	Found            bool              `json:"found"`
	Reason           string            `json:"reason,omitempty"`
	ProductDetails   *ProductDetails   `json:"product_details"`
	CompatibleModels []CompatibleModel `json:"compatible_models"`
	RequestedModel   string            `json:"requested_model,omitempty"`
}

// Resolver answers compatibility questions for a part number. It resolves
// the part through the search engine rather than a key lookup, so the
// catalog is addressed uniformly by semantic search.
type Resolver struct {
	engine *Engine
	compat CompatibilitySource
}

func NewResolver(engine *Engine, compat CompatibilitySource) *Resolver {
	return &Resolver{engine: engine, compat: compat}
}

// Resolve always returns a renderable result; bad or unknown part numbers
// and lookup failures become structured negative results instead of
// errors. The full compatibility list is returned even when a model number
// is supplied: the generation step makes the final judgment.
func (r *Resolver) Resolve(ctx context.Context, partNumber, modelNumber string) CompatibilityResult {
	negative := func(reason string) CompatibilityResult {
		return CompatibilityResult{
			Reason:           reason,
			CompatibleModels: []CompatibleModel{},
			RequestedModel:   modelNumber,
		}
	}

	results, err := r.engine.Search(ctx, SearchInput{
		Query: CanonicalPartQuery(partNumber),
		Limit: 1,
	})
	if err != nil {
		return negative(ReasonError)
	}
	if len(results) == 0 {
		return negative(ReasonNotFound)
	}
	product := results[0]

	rows, err := r.compat.CompatibilityByProduct(ctx, product.ID)
	if err != nil {
		return negative(ReasonError)
	}

	compatible := make([]CompatibleModel, 0, len(rows))
	for _, row := range rows {
		compatible = append(compatible, CompatibleModel{
			ModelNumber: row.ModelNumber,
			Brand:       row.Brand,
			Notes:       row.Notes,
		})
	}

	return CompatibilityResult{
		Found: true,
		ProductDetails: &ProductDetails{
			PartNumber:    product.PartNumber,
			Name:          product.Name,
			ApplianceType: product.ApplianceType,
			Description:   product.Description,
		},
		CompatibleModels: compatible,
		RequestedModel:   modelNumber,
	}
}
