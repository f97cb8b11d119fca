package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"parts-assist/internal/model"
)

type CompatibilityRepository struct {
	db *gorm.DB
}

func NewCompatibilityRepository(db *gorm.DB) *CompatibilityRepository {
	return &CompatibilityRepository{db: db}
}

func (r *CompatibilityRepository) Create(ctx context.Context, row *model.ModelCompatibility) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create compatibility row failed: %w", err)
	}
	return nil
}

// CompatibilityByProduct returns every row for the product, unbounded:
// compatibility lists are small and the generation step needs all of them.
func (r *CompatibilityRepository) CompatibilityByProduct(ctx context.Context, productID uint) ([]model.ModelCompatibility, error) {
	var rows []model.ModelCompatibility
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("model_number ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list compatibility rows failed: %w", err)
	}
	return rows, nil
}
