package retrieval

import (
	"context"
	"errors"
	"testing"

	"parts-assist/internal/model"
)

func newAggregator(embedder *stubEmbedder, catalog *stubCatalog) *Aggregator {
	engine := NewEngine(embedder, catalog, catalog, 0, 0)
	return NewAggregator(engine, NewResolver(engine, catalog), 0)
}

func TestBuildContextViews(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{0}}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(1, "RF0001", "Water Filter", model.ApplianceRefrigerator), vec: []float32{0.1}},
			{product: part(2, "RF0002", "Ice Maker", model.ApplianceRefrigerator), vec: []float32{0.2}},
			{product: part(3, "RF0003", "Door Bin", model.ApplianceRefrigerator), vec: []float32{0.3}},
		},
		guides: map[uint]string{
			1: "Twist the old filter counter-clockwise.",
			3: "Lift the bin straight up and out.",
		},
		compat: map[uint][]model.ModelCompatibility{
			1: {{ProductID: 1, ModelNumber: "WRF535SMHZ", Brand: "Whirlpool", Notes: "ok"}},
		},
	}

	bundle, err := newAggregator(embedder, catalog).BuildContext(context.Background(), "refrigerator parts")
	if err != nil {
		t.Fatalf("build context failed: %v", err)
	}

	if len(bundle.Products) != 3 {
		t.Fatalf("got %d products, want 3", len(bundle.Products))
	}
	if len(bundle.InstallationGuides) > len(bundle.Products) {
		t.Errorf("more guides than products: %d > %d", len(bundle.InstallationGuides), len(bundle.Products))
	}
	for _, guide := range bundle.InstallationGuides {
		found := false
		for _, p := range bundle.Products {
			if p.InstallationGuide != nil && *p.InstallationGuide == guide {
				found = true
			}
		}
		if !found {
			t.Errorf("guide %q not attached to any returned product", guide)
		}
	}
	if len(bundle.CompatibilityInfo) != len(bundle.Products) {
		t.Fatalf("compatibility view not parallel: %d vs %d", len(bundle.CompatibilityInfo), len(bundle.Products))
	}
	for i, p := range bundle.Products {
		if len(p.CompatibleModels) != len(bundle.CompatibilityInfo[i]) {
			t.Errorf("product %d compatibility mismatch between views", i)
		}
	}
}

func TestBuildContextRespectsContextLimit(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{0}}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(1, "RF0001", "A", model.ApplianceRefrigerator), vec: []float32{0.1}},
			{product: part(2, "RF0002", "B", model.ApplianceRefrigerator), vec: []float32{0.2}},
			{product: part(3, "RF0003", "C", model.ApplianceRefrigerator), vec: []float32{0.3}},
			{product: part(4, "RF0004", "D", model.ApplianceRefrigerator), vec: []float32{0.4}},
		},
	}

	bundle, err := newAggregator(embedder, catalog).BuildContext(context.Background(), "part")
	if err != nil {
		t.Fatalf("build context failed: %v", err)
	}
	if len(bundle.Products) != 3 {
		t.Fatalf("got %d products, want context limit 3", len(bundle.Products))
	}
}

func TestBuildContextCompatibilityScenario(t *testing.T) {
	embedder := &stubEmbedder{
		vectors:  map[string][]float32{"PART_NUMBER: W10295370A": {0}},
		fallback: []float32{9},
	}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(1, "W10295370A", "Refrigerator Water Filter", model.ApplianceRefrigerator), vec: []float32{0}},
			{product: part(2, "DW0001", "Spray Arm", model.ApplianceDishwasher), vec: []float32{5}},
		},
		guides: map[uint]string{1: "Twist the old filter counter-clockwise."},
		compat: map[uint][]model.ModelCompatibility{
			1: {
				{ProductID: 1, ModelNumber: "WRF535SMHZ", Brand: "Whirlpool", Notes: "Confirmed compatible"},
				{ProductID: 1, ModelNumber: "MFI2570FEZ", Brand: "Maytag", Notes: "Confirmed compatible"},
			},
		},
	}

	bundle, err := newAggregator(embedder, catalog).BuildContext(context.Background(), "is W10295370A compatible with WRF535SMHZ")
	if err != nil {
		t.Fatalf("build context failed: %v", err)
	}
	if len(bundle.Products) != 1 {
		t.Fatalf("got %d products, want exactly the matched filter", len(bundle.Products))
	}
	got := bundle.Products[0]
	if got.PartNumber != "W10295370A" {
		t.Fatalf("matched %s, want W10295370A", got.PartNumber)
	}
	if len(got.CompatibleModels) != 2 {
		t.Fatalf("got %d compatible models, want both rows", len(got.CompatibleModels))
	}
	models := map[string]string{}
	for _, m := range got.CompatibleModels {
		models[m.ModelNumber] = m.Brand
	}
	if models["WRF535SMHZ"] != "Whirlpool" || models["MFI2570FEZ"] != "Maytag" {
		t.Errorf("unexpected compatibility rows: %v", models)
	}
}

func TestBuildContextFailsWhenEnrichmentLookupFails(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float32{0}}
	catalog := &stubCatalog{
		entries: []catalogEntry{
			{product: part(1, "RF0001", "Water Filter", model.ApplianceRefrigerator), vec: []float32{0.1}},
		},
		compatErr: errors.New("dial tcp: connection refused"),
	}

	bundle, err := newAggregator(embedder, catalog).BuildContext(context.Background(), "water filter")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if bundle != nil {
		t.Fatalf("store failure during enrichment must not yield a bundle, got %+v", bundle)
	}
}

func TestBuildContextFailsWholeTurnOnInfrastructureError(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("dial tcp: connection refused")}
	catalog := &stubCatalog{}

	bundle, err := newAggregator(embedder, catalog).BuildContext(context.Background(), "water filter")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if bundle != nil {
		t.Fatalf("no partial bundle allowed, got %+v", bundle)
	}
}
