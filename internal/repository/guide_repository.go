package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parts-assist/internal/model"
)

type GuideRepository struct {
	db *gorm.DB
}

func NewGuideRepository(db *gorm.DB) *GuideRepository {
	return &GuideRepository{db: db}
}

func (r *GuideRepository) Create(ctx context.Context, guide *model.InstallationGuide) error {
	if err := r.db.WithContext(ctx).Create(guide).Error; err != nil {
		return fmt.Errorf("create installation guide failed: %w", err)
	}
	return nil
}

// GetByProductID returns the product's guide, or nil when it has none.
func (r *GuideRepository) GetByProductID(ctx context.Context, productID uint) (*model.InstallationGuide, error) {
	var guide model.InstallationGuide
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&guide).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get installation guide failed: %w", err)
	}
	return &guide, nil
}

// GuideTextByProductID resolves guide text for a batch of products in one
// query. Products without a guide are simply absent from the map.
func (r *GuideRepository) GuideTextByProductID(ctx context.Context, ids []uint) (map[uint]string, error) {
	if len(ids) == 0 {
		return map[uint]string{}, nil
	}
	var guides []model.InstallationGuide
	if err := r.db.WithContext(ctx).Where("product_id IN ?", ids).Find(&guides).Error; err != nil {
		return nil, fmt.Errorf("load installation guides failed: %w", err)
	}
	out := make(map[uint]string, len(guides))
	for _, g := range guides {
		out[g.ProductID] = g.Content
	}
	return out, nil
}

// ListAllWithProducts preloads the owning product so DocumentText can
// project the full part context for embedding.
func (r *GuideRepository) ListAllWithProducts(ctx context.Context) ([]model.InstallationGuide, error) {
	var guides []model.InstallationGuide
	if err := r.db.WithContext(ctx).Preload("Product").Find(&guides).Error; err != nil {
		return nil, fmt.Errorf("list installation guides failed: %w", err)
	}
	return guides, nil
}

// UpsertEmbedding writes the guide's vector, replacing any previous one.
func (r *GuideRepository) UpsertEmbedding(ctx context.Context, guideID uint, vec []float32) error {
	embedding := model.GuideEmbedding{GuideID: guideID}
	embedding.SetEmbedding(vec)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guide_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "updated_at"}),
	}).Create(&embedding).Error
	if err != nil {
		return fmt.Errorf("upsert guide embedding failed: %w", err)
	}
	return nil
}
