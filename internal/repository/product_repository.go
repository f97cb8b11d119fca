package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parts-assist/internal/model"
	"parts-assist/internal/retrieval"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("create product failed: %w", err)
	}
	return nil
}

// GetByPartNumber is the direct key lookup used by the detail endpoints.
// Returns nil without error when the part number is unknown.
func (r *ProductRepository) GetByPartNumber(ctx context.Context, partNumber string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("part_number = ?", partNumber).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by part number failed: %w", err)
	}
	return &product, nil
}

func (r *ProductRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products failed: %w", err)
	}
	return products, nil
}

// ProductsByID loads a batch of products in one query.
func (r *ProductRepository) ProductsByID(ctx context.Context, ids []uint) (map[uint]model.Product, error) {
	if len(ids) == 0 {
		return map[uint]model.Product{}, nil
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products by id failed: %w", err)
	}
	out := make(map[uint]model.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// Nearest scans every stored product embedding and returns the k closest
// by L2 distance, ascending, optionally restricted to one appliance type.
// The catalog is small enough that a full scan beats maintaining an index.
func (r *ProductRepository) Nearest(ctx context.Context, embedding []float32, k int, applianceType string) ([]retrieval.Match, error) {
	query := r.db.WithContext(ctx).Model(&model.ProductEmbedding{})
	if applianceType != "" {
		query = query.
			Joins("JOIN products ON products.id = product_embeddings.product_id").
			Where("products.appliance_type = ?", applianceType)
	}

	var rows []model.ProductEmbedding
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load product embeddings failed: %w", err)
	}

	matches := make([]retrieval.Match, 0, len(rows))
	for _, row := range rows {
		distance, ok := retrieval.L2Distance(embedding, row.EmbeddingVector())
		if !ok {
			// Stale vector with the wrong dimensionality; skip it.
			continue
		}
		matches = append(matches, retrieval.Match{ProductID: row.ProductID, Distance: distance})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// UpsertEmbedding writes the product's vector, replacing any previous one.
func (r *ProductRepository) UpsertEmbedding(ctx context.Context, productID uint, vec []float32) error {
	embedding := model.ProductEmbedding{ProductID: productID}
	embedding.SetEmbedding(vec)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "updated_at"}),
	}).Create(&embedding).Error
	if err != nil {
		return fmt.Errorf("upsert product embedding failed: %w", err)
	}
	return nil
}
