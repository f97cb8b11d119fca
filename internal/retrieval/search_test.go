package retrieval

import (
	"context"
	"errors"
	"sort"
	"testing"

	"parts-assist/internal/model"
)

// stubEmbedder returns canned vectors per exact input text and records
// every input it sees.
type stubEmbedder struct {
	inputs   []string
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.inputs = append(s.inputs, text)
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return s.fallback, nil
}

type catalogEntry struct {
	product model.Product
	vec     []float32
}

// stubCatalog is an in-memory catalog store implementing ProductSource,
// GuideSource and CompatibilitySource.
type stubCatalog struct {
	entries      []catalogEntry
	guides       map[uint]string
	compat       map[uint][]model.ModelCompatibility
	dropProducts map[uint]bool

	nearestErr  error
	productsErr error
	guidesErr   error
	compatErr   error
}

func (s *stubCatalog) Nearest(_ context.Context, embedding []float32, k int, applianceType string) ([]Match, error) {
	if s.nearestErr != nil {
		return nil, s.nearestErr
	}
	var matches []Match
	for _, e := range s.entries {
		if applianceType != "" && e.product.ApplianceType != applianceType {
			continue
		}
		if d, ok := L2Distance(embedding, e.vec); ok {
			matches = append(matches, Match{ProductID: e.product.ID, Distance: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *stubCatalog) ProductsByID(_ context.Context, ids []uint) (map[uint]model.Product, error) {
	if s.productsErr != nil {
		return nil, s.productsErr
	}
	out := make(map[uint]model.Product, len(ids))
	for _, id := range ids {
		if s.dropProducts[id] {
			continue
		}
		for _, e := range s.entries {
			if e.product.ID == id {
				out[id] = e.product
			}
		}
	}
	return out, nil
}

func (s *stubCatalog) GuideTextByProductID(_ context.Context, ids []uint) (map[uint]string, error) {
	if s.guidesErr != nil {
		return nil, s.guidesErr
	}
	out := make(map[uint]string)
	for _, id := range ids {
		if text, ok := s.guides[id]; ok {
			out[id] = text
		}
	}
	return out, nil
}

func (s *stubCatalog) CompatibilityByProduct(_ context.Context, productID uint) ([]model.ModelCompatibility, error) {
	if s.compatErr != nil {
		return nil, s.compatErr
	}
	return s.compat[productID], nil
}

func part(id uint, partNumber, name, applianceType string) model.Product {
	return model.Product{
		ID:            id,
		PartNumber:    partNumber,
		Name:          name,
		ApplianceType: applianceType,
		Price:         49.99,
		StockQuantity: 10,
	}
}

func TestSearchRewritesPartNumberQuery(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{9}}
	catalog := &stubCatalog{}
	engine := NewEngine(embedder, catalog, catalog, 0, 0)

	if _, err := engine.Search(context.Background(), SearchInput{Query: "is W10295370A in stock?"}); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(embedder.inputs) != 1 || embedder.inputs[0] != "PART_NUMBER: W10295370A" {
		t.Fatalf("effective query = %v, want canonical part projection", embedder.inputs)
	}
}

func TestSearchSemanticQueryUnchanged(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{9}}
	catalog := &stubCatalog{}
	engine := NewEngine(embedder, catalog, catalog, 0, 0)

	if _, err := engine.Search(context.Background(), SearchInput{Query: "my fridge is leaking water"}); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(embedder.inputs) != 1 || embedder.inputs[0] != "my fridge is leaking water" {
		t.Fatalf("effective query = %v, want original text", embedder.inputs)
	}
}

func TestSearchThresholdAndOrdering(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{0}}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(1, "RF0001", "Water Filter", model.ApplianceRefrigerator), vec: []float32{0.69}},
			{product: part(2, "RF0002", "Ice Maker", model.ApplianceRefrigerator), vec: []float32{0}},
			{product: part(3, "RF0003", "Door Bin", model.ApplianceRefrigerator), vec: []float32{0.71}},
			{product: part(4, "RF0004", "Control Board", model.ApplianceRefrigerator), vec: []float32{0.5}},
		},
	}
	engine := NewEngine(embedder, catalog, catalog, 0, 0)

	results, err := engine.Search(context.Background(), SearchInput{Query: "refrigerator part"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 within threshold 0.7", len(results))
	}
	for i, r := range results {
		if r.SimilarityScore > 0.7 {
			t.Errorf("result %d distance %.2f exceeds threshold", i, r.SimilarityScore)
		}
		if i > 0 && results[i-1].SimilarityScore > r.SimilarityScore {
			t.Errorf("results not ascending at %d: %.2f > %.2f", i, results[i-1].SimilarityScore, r.SimilarityScore)
		}
	}
	if results[0].PartNumber != "RF0002" {
		t.Errorf("best match = %s, want RF0002", results[0].PartNumber)
	}
}

func TestSearchLimitTruncates(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{0}}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(1, "RF0001", "A", model.ApplianceRefrigerator), vec: []float32{0.1}},
			{product: part(2, "RF0002", "B", model.ApplianceRefrigerator), vec: []float32{0.2}},
			{product: part(3, "RF0003", "C", model.ApplianceRefrigerator), vec: []float32{0.3}},
		},
	}
	engine := NewEngine(embedder, catalog, catalog, 0, 0)

	results, err := engine.Search(context.Background(), SearchInput{Query: "anything", Limit: 2})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want limit 2", len(results))
	}
}

func TestSearchTieKeepsInputOrder(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{0}}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(7, "DW0007", "Spray Arm", model.ApplianceDishwasher), vec: []float32{0.3}},
			{product: part(8, "DW0008", "Drain Pump", model.ApplianceDishwasher), vec: []float32{0.3}},
		},
	}
	engine := NewEngine(embedder, catalog, catalog, 0, 0)

	results, err := engine.Search(context.Background(), SearchInput{Query: "dishwasher part"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 || results[0].PartNumber != "DW0007" || results[1].PartNumber != "DW0008" {
		t.Fatalf("tie order broken: %+v", results)
	}
}

func TestSearchApplianceTypeFilter(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{0}}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(1, "RF0001", "Water Filter", model.ApplianceRefrigerator), vec: []float32{0.1}},
			{product: part(2, "DW0001", "Spray Arm", model.ApplianceDishwasher), vec: []float32{0.1}},
		},
	}
	engine := NewEngine(embedder, catalog, catalog, 0, 0)

	results, err := engine.Search(context.Background(), SearchInput{Query: "replacement part", ApplianceType: model.ApplianceDishwasher})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].PartNumber != "DW0001" {
		t.Fatalf("filter not applied: %+v", results)
	}
}

func TestSearchAttachesGuideText(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{0}}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(1, "RF0001", "Water Filter", model.ApplianceRefrigerator), vec: []float32{0.1}},
			{product: part(2, "RF0002", "Ice Maker", model.ApplianceRefrigerator), vec: []float32{0.2}},
		},
		guides: map[uint]string{1: "Twist the old filter counter-clockwise."},
	}
	engine := NewEngine(embedder, catalog, catalog, 0, 0)

	results, err := engine.Search(context.Background(), SearchInput{Query: "water filter"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].InstallationGuide == nil || *results[0].InstallationGuide != "Twist the old filter counter-clockwise." {
		t.Errorf("guide not attached to RF0001")
	}
	if results[1].InstallationGuide != nil {
		t.Errorf("unexpected guide on RF0002")
	}
}

func TestSearchEmptyOutcomes(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{0}}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(1, "RF0001", "Water Filter", model.ApplianceRefrigerator), vec: []float32{5}},
		},
	}
	engine := NewEngine(embedder, catalog, catalog, 0, 0)

	results, err := engine.Search(context.Background(), SearchInput{Query: "nothing close"})
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results, want none past threshold", len(results))
	}

	results, err = engine.Search(context.Background(), SearchInput{Query: "   "})
	if err != nil || len(results) != 0 {
		t.Fatalf("blank query: results=%v err=%v, want empty and nil", results, err)
	}
}

func TestSearchInfrastructureFailures(t *testing.T) {
	boom := errors.New("connection refused")

	embedder := &stubEmbedder{err: boom}
	engine := NewEngine(embedder, &stubCatalog{}, &stubCatalog{}, 0, 0)
	if _, err := engine.Search(context.Background(), SearchInput{Query: "water filter"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("embedder failure: err = %v, want ErrUnavailable", err)
	}

	catalog := &stubCatalog{nearestErr: boom}
	engine = NewEngine(&stubEmbedder{fallback: []float32{0}}, catalog, catalog, 0, 0)
	if _, err := engine.Search(context.Background(), SearchInput{Query: "water filter"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("store failure: err = %v, want ErrUnavailable", err)
	}
}

func TestSearchSkipsVanishedProduct(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{0}}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(1, "RF0001", "Water Filter", model.ApplianceRefrigerator), vec: []float32{0.1}},
			{product: part(2, "RF0002", "Ice Maker", model.ApplianceRefrigerator), vec: []float32{0.2}},
		},
		dropProducts: map[uint]bool{1: true},
	}
	engine := NewEngine(embedder, catalog, catalog, 0, 0)

	results, err := engine.Search(context.Background(), SearchInput{Query: "part"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].PartNumber != "RF0002" {
		t.Fatalf("vanished product not skipped: %+v", results)
	}
}
